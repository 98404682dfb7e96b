package providers

import (
	"context"
	"net"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/lumieapp/lumie-sync/internal/config"
	"github.com/lumieapp/lumie-sync/internal/control"
	"github.com/lumieapp/lumie-sync/internal/logger"
	"github.com/lumieapp/lumie-sync/internal/sync"
)

// ControlServerHandle wraps http.Server with Shutdownable.
type ControlServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *ControlServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideControlServer provides the localhost control API server. It binds
// loopback only; the control surface is for the host app, not the network.
func ProvideControlServer(i do.Injector) (*ControlServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	orch := do.MustInvoke[*sync.Orchestrator](i)

	handler := control.NewServer(orch, log.Logger)

	srv := &http.Server{
		Addr:         net.JoinHostPort("127.0.0.1", cfg.Control.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Control.ReadTimeout,
		WriteTimeout: cfg.Control.WriteTimeout,
		IdleTimeout:  cfg.Control.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("Control API starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Control API error", "error", err)
		}
	}()

	return &ControlServerHandle{Server: srv}, nil
}
