// Package control provides the localhost control API through which the
// host application's lifecycle events drive the sync engine.
package control

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumieapp/lumie-sync/internal/sync"
)

// Server holds dependencies for control API handlers.
type Server struct {
	orch   *sync.Orchestrator
	router *chi.Mux
	api    huma.API
	logger *slog.Logger
}

// NewServer creates the control server with all routes configured.
func NewServer(orch *sync.Orchestrator, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	config := huma.DefaultConfig("Lumie Sync Control", "1.0.0")
	api := humachi.New(router, config)
	RegisterErrorHandler()

	s := &Server{
		orch:   orch,
		router: router,
		api:    api,
		logger: logger,
	}

	s.registerHealthRoutes()
	s.registerSyncRoutes()
	s.registerPushRoutes()
	s.registerEntityRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// === Health ===

// HealthResponse reports process liveness.
type HealthResponse struct {
	Status string `json:"status" doc:"Always healthy when reachable"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getHealth",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"System"},
	}, s.handleHealth)
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{Body: HealthResponse{Status: "healthy"}}, nil
}
