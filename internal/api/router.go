package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-ledd/internal/endpoint"
)

// healthCheckTimeout bounds each component check in /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Get("/led", s.handleReadLED)
		r.Put("/led", s.handleWriteLED)

		r.Get("/events", s.handleListEvents)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	return r
}

type endpointHealth struct {
	Name         string `json:"name"`
	State        string `json:"state"`
	OpenSessions int64  `json:"open_sessions"`
}

type healthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Endpoint   endpointHealth    `json:"endpoint"`
	Components map[string]string `json:"components,omitempty"`
}

// handleHealth reports "ok" when the endpoint is Ready and every component
// check passes, "degraded" otherwise. It always answers 200 so operators
// can read the details.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.endpoint.State()
	resp := healthResponse{
		Status:  "ok",
		Version: s.version,
		Endpoint: endpointHealth{
			Name:         s.endpoint.Name(),
			State:        state.String(),
			OpenSessions: s.endpoint.OpenSessions(),
		},
	}
	if state != endpoint.Ready {
		resp.Status = "degraded"
	}

	if len(s.checks) > 0 {
		resp.Components = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := check.HealthCheck(ctx)
			cancel()

			if err != nil {
				resp.Components[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
