package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Route("/dispatches", func(r chi.Router) {
			r.Get("/", s.handleListDispatches)
			r.Get("/{runID}", s.handleGetDispatch)
		})
		r.Get("/ticks", s.handleListTicks)

		r.Route("/queue", func(r chi.Router) {
			r.Get("/", s.handleQueueDepth)
			r.Post("/", s.handleEnqueue)
		})
		r.Post("/control", s.handleControl)
		r.Post("/compile", s.handleCompile)
		r.Get("/audit", s.handleListAudit)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}
