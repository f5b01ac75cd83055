package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dbsee/dbsee/internal/search"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"
)

// minIdentifierLength is the shortest identifier /search/cig accepts.
const minIdentifierLength = 3

type tablesResponse struct {
	Tables []string `json:"tables"`
	Count  int      `json:"count"`
}

func (s *Server) identifierTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.engine.FindIdentifierTables(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tablesResponse{Tables: tables, Count: len(tables)})
}

// resolveIdentifier answers 200 for unknown identifiers too, with found=false.
func (s *Server) resolveIdentifier(w http.ResponseWriter, r *http.Request) {
	value := chi.URLParam(r, "value")
	if value == "" {
		value = r.URL.Query().Get("cig")
	}
	value = strings.TrimSpace(value)
	if len([]rune(value)) < minIdentifierLength {
		s.writeError(w, r, badRequest("CIG must be at least 3 characters long"))
		return
	}

	res, err := s.engine.ResolveIdentifier(r.Context(), value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// searchParams reads the name and optional year of a name search. The
// company_name and year_filter spellings are accepted as aliases.
func searchParams(r *http.Request) (string, *int, error) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		name = q.Get("company_name")
	}
	raw := q.Get("year")
	if raw == "" {
		raw = q.Get("year_filter")
	}
	if raw == "" {
		return name, nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return "", nil, badRequest("year must be an integer")
	}
	return name, &year, nil
}

func (s *Server) scanByName(w http.ResponseWriter, r *http.Request) {
	name, year, err := searchParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.ScanByName(r.Context(), name, year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) resolveDirect(w http.ResponseWriter, r *http.Request) {
	name, year, err := searchParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.ResolveDirect(r.Context(), name, year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) scanByNameStream(w http.ResponseWriter, r *http.Request) {
	s.stream(w, r, s.engine.ScanByNameStream)
}

func (s *Server) resolveDirectStream(w http.ResponseWriter, r *http.Request) {
	s.stream(w, r, s.engine.ResolveDirectStream)
}

type streamFunc func(ctx context.Context, name string, year *int, emit search.EmitFunc) error

// stream runs a streaming search, patching each event into the client's
// signals as {"event": ...}. Input errors are answered as JSON before the
// stream opens; later failures become a final error event.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, run streamFunc) {
	name, year, err := searchParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.engine.ValidateName(name, year); err != nil {
		s.writeError(w, r, err)
		return
	}

	sse := datastar.NewSSE(w, r)

	sentError := false
	err = run(r.Context(), name, year, func(ev core.ScanEvent) error {
		if ev.Type == core.EventError {
			sentError = true
		}
		return sse.MarshalAndPatchSignals(map[string]any{"event": ev})
	})
	if err == nil || r.Context().Err() != nil {
		return
	}

	s.logger.Warn("stream aborted", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	if !sentError {
		_ = sse.MarshalAndPatchSignals(map[string]any{"event": core.ScanEvent{
			Type: core.EventError,
			Data: core.ErrorData{Message: err.Error()},
		}})
	}
	_ = sse.ConsoleError(err)
}
