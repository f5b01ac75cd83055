package api

import (
	"net/http"

	"github.com/dbsee/dbsee/internal/auth"
	"github.com/go-chi/chi/v5"
)

func (s *Server) routes(r chi.Router) {
	r.Get("/", s.root)
	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Post("/auth/session", s.createSession)
		r.Delete("/auth/session", s.deleteSession)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/auth/me", s.me)

			r.Get("/tables", s.listTables)
			r.Get("/tables/{table}/schema", s.describeTable)
			r.Post("/tables/{table}/query", s.queryTable)
			r.Get("/tables/{table}/data", s.tableData)

			r.Route("/search", func(r chi.Router) {
				r.Get("/tables-with-cig", s.identifierTables)
				r.Get("/cig", s.resolveIdentifier)
				r.Get("/cig/{value}", s.resolveIdentifier)
				r.Get("/company", s.scanByName)
				r.Get("/company/stream", s.scanByNameStream)
				r.Get("/company/direct", s.resolveDirect)
				r.Get("/company/direct/stream", s.resolveDirectStream)
			})
		})
	})
}

// authenticate rejects requests without a valid credential and stores the
// principal in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.auth.Authenticate(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}
