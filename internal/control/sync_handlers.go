package control

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/lumieapp/lumie-sync/internal/errors"
	"github.com/lumieapp/lumie-sync/internal/sync"
)

func (s *Server) registerSyncRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "refreshAll",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/refresh",
		Summary:     "Trigger a refresh",
		Description: "Runs the throttled pull-merge pipeline. Bursts coalesce into one run.",
		Tags:        []string{"Sync"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "authoritativeRefresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/authoritative-refresh",
		Summary:     "Trigger an authoritative refresh",
		Description: "Runs the pipeline bypassing the throttle, e.g. right after login.",
		Tags:        []string{"Sync"},
	}, s.handleAuthoritativeRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "syncTelemetry",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/telemetry",
		Summary:     "Sweep pending telemetry",
		Description: "Pushes unbound usage entries and journey events of bound products.",
		Tags:        []string{"Sync"},
	}, s.handleSyncTelemetry)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSyncStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/status",
		Summary:     "Sync engine status",
		Tags:        []string{"Sync"},
	}, s.handleSyncStatus)
}

// === DTOs ===

// RefreshResponse reports what a refresh trigger did.
type RefreshResponse struct {
	Status string `json:"status" doc:"refreshed or coalesced"`
}

// RefreshOutput wraps the refresh response for Huma.
type RefreshOutput struct {
	Body RefreshResponse
}

// SyncStatusResponse describes the engine's current state.
type SyncStatusResponse struct {
	Busy            bool       `json:"busy" doc:"A sync flow is running right now"`
	InitialSyncDone bool       `json:"initial_sync_done" doc:"The once-per-process initial sync has been attempted"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty" doc:"Start time of the most recent pipeline run"`
}

// SyncStatusOutput wraps the status response for Huma.
type SyncStatusOutput struct {
	Body SyncStatusResponse
}

// MessageResponse carries a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

// A coalesced trigger is a success from the caller's point of view: the
// refresh it asked for is already running or just ran.
func (s *Server) handleRefresh(ctx context.Context, _ *struct{}) (*RefreshOutput, error) {
	err := s.orch.RefreshAll(ctx)
	if errors.Is(err, sync.ErrCoalesced) {
		return &RefreshOutput{Body: RefreshResponse{Status: "coalesced"}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &RefreshOutput{Body: RefreshResponse{Status: "refreshed"}}, nil
}

func (s *Server) handleAuthoritativeRefresh(ctx context.Context, _ *struct{}) (*RefreshOutput, error) {
	if err := s.orch.AuthoritativeRefresh(ctx); err != nil {
		return nil, err
	}
	return &RefreshOutput{Body: RefreshResponse{Status: "refreshed"}}, nil
}

func (s *Server) handleSyncTelemetry(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.orch.SyncPendingTelemetry(ctx); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Telemetry sweep complete"}}, nil
}

func (s *Server) handleSyncStatus(_ context.Context, _ *struct{}) (*SyncStatusOutput, error) {
	guard := s.orch.Guard()

	resp := SyncStatusResponse{
		Busy:            guard.Busy(),
		InitialSyncDone: s.orch.InitialSyncDone(),
	}
	if last := guard.LastRunAt(); !last.IsZero() {
		resp.LastRunAt = &last
	}

	return &SyncStatusOutput{Body: resp}, nil
}
