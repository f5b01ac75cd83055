package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dbsee/dbsee/internal/auth"
	"github.com/dbsee/dbsee/pkg/core"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Error codes that do not come from core.ErrorKind.
const (
	codeUnauthenticated  = "unauthenticated"
	codeSessionsDisabled = "sessions_disabled"
	codeInternal         = "internal"
)

// apiError is a transport-level failure with an explicit status.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(message string) error {
	return &apiError{status: http.StatusBadRequest, code: core.KindInvalidArgument.String(), message: message}
}

type errorBody struct {
	Error     errorDetail `json:"error"`
	RequestID string      `json:"request_id"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestID tags every request with an ID, reusing the caller's when given.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusOf maps an error to its HTTP status and stable code.
func statusOf(err error) (int, string) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ae.code
	}
	if errors.Is(err, auth.ErrUnauthenticated) {
		return http.StatusUnauthorized, codeUnauthenticated
	}
	kind, ok := core.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, codeInternal
	}
	switch kind {
	case core.KindNotFound:
		return http.StatusNotFound, kind.String()
	case core.KindInvalidArgument, core.KindInvalidColumn:
		return http.StatusBadRequest, kind.String()
	case core.KindCatalogUnavailable:
		return http.StatusServiceUnavailable, kind.String()
	default:
		return http.StatusInternalServerError, kind.String()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	message := err.Error()
	if code == codeInternal {
		s.logger.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		message = http.StatusText(status)
	} else if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, errorBody{
		Error:     errorDetail{Code: code, Message: message},
		RequestID: middleware.GetReqID(r.Context()),
	})
}
