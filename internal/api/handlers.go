package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dbsee/dbsee/internal/auth"
	"github.com/dbsee/dbsee/internal/query"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps query request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "DBSee API",
		"version": s.version,
		"health":  "/health",
	})
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Connected bool      `json:"database_connected"`
	Error     string    `json:"error,omitempty"`
}

// health always answers 200; the body says whether the database is up.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	h := s.engine.Health(r.Context())
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    h.Status,
		Timestamp: time.Now().UTC(),
		Connected: h.Connected,
		Error:     h.Error,
	})
}

// createSession exchanges a bearer token for a session cookie.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sessions := s.auth.Sessions()
	if sessions == nil {
		s.writeError(w, r, &apiError{
			status:  http.StatusNotImplemented,
			code:    codeSessionsDisabled,
			message: "sessions are disabled: auth.session_secret is not set",
		})
		return
	}
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		s.writeError(w, r, auth.ErrUnauthenticated)
		return
	}
	p, err := s.auth.Verify(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sessions.Login(w, r, p); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("session created", "user", p.Username)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if sessions := s.auth.Sessions(); sessions != nil {
		if err := sessions.Logout(w, r); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.engine.ListTables(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) describeTable(w http.ResponseWriter, r *http.Request) {
	schema, err := s.engine.DescribeTable(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

// queryRequest is the body of POST /tables/{table}/query. Absent page and
// page_size take the defaults; explicit values are validated by the builder.
type queryRequest struct {
	Filters  map[string]any `json:"filters"`
	Search   string         `json:"search"`
	Page     *int           `json:"page"`
	PageSize *int           `json:"page_size"`
	OrderBy  string         `json:"order_by"`
	OrderDir string         `json:"order_dir"`
}

func (s *Server) queryTable(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, badRequest("invalid request body: "+err.Error()))
		return
	}

	p := s.engine.DefaultParams()
	p.Filters = req.Filters
	p.Search = req.Search
	p.OrderBy = req.OrderBy
	if req.Page != nil {
		p.Page = *req.Page
	}
	if req.PageSize != nil {
		p.PageSize = *req.PageSize
	}
	if req.OrderDir != "" {
		p.OrderDir = req.OrderDir
	}
	s.runQuery(w, r, p)
}

func (s *Server) tableData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := s.engine.DefaultParams()
	p.Search = q.Get("search")
	p.OrderBy = q.Get("order_by")
	if v := q.Get("order_dir"); v != "" {
		p.OrderDir = v
	}
	var err error
	if p.Page, err = intParam(q.Get("page"), p.Page, "page"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if p.PageSize, err = intParam(q.Get("page_size"), p.PageSize, "page_size"); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.runQuery(w, r, p)
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request, p query.Params) {
	res, err := s.engine.QueryTable(r.Context(), chi.URLParam(r, "table"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func intParam(raw string, def int, name string) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name + " must be an integer")
	}
	return n, nil
}
