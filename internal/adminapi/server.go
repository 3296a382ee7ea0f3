// Package adminapi mounts the admin HTTP surface: endpoint introspection,
// mode/chaos control, drift alert management, health reporting and the
// live transaction stream. It never touches the catch-all proxy surface,
// which is mounted alongside it by cmd/mimicgate.
package adminapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server is the chi-routed admin HTTP surface.
type Server struct {
	router *chi.Mux
	logger *zap.Logger
}

// NewServer builds the admin router with every handler wired in. logger
// may be nil.
func NewServer(logger *zap.Logger, stream http.Handler, endpoints *EndpointsHandler, mode *ModeHandler, chaos *ChaosHandler, drift *DriftAlertsHandler, health *HealthHandler) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{router: chi.NewRouter(), logger: logger.Named("admin-api")}
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/endpoints", endpoints.List)
		r.Get("/endpoints/{id}", endpoints.Get)

		r.Post("/mode", mode.Set)

		r.Get("/chaos", chaos.Get)
		r.Post("/chaos", chaos.Set)

		r.Get("/drift-alerts", drift.List)
		r.Post("/drift-alerts/{id}/resolve", drift.Resolve)

		r.Get("/health", health.List)
		r.Get("/health/global", health.Global)
		r.Get("/health/{id}", health.ByEndpoint)

		r.Get("/stream", stream.ServeHTTP)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying chi.Mux so cmd/mimicgate can mount the
// catch-all proxy handler on the same top-level router.
func (s *Server) Router() *chi.Mux {
	return s.router
}
