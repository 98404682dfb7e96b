package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/lumieapp/lumie-sync/internal/config"
	"github.com/lumieapp/lumie-sync/internal/credentials"
	"github.com/lumieapp/lumie-sync/internal/logger"
)

// CredentialsHandle wraps the file-backed token provider with its watch
// loop for lifecycle management.
type CredentialsHandle struct {
	*credentials.FileProvider
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CredentialsHandle) Shutdown() error {
	h.cancel()
	return h.Close()
}

// ProvideCredentials provides the bearer token source. The authentication
// collaborator writes the token file; the watcher picks up rotations.
func ProvideCredentials(i do.Injector) (*CredentialsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	provider, err := credentials.NewFileProvider(cfg.Backend.TokenPath, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := provider.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("Token watcher stopped", "error", err)
		}
	}()

	log.Info("Token watcher started", "path", cfg.Backend.TokenPath)

	return &CredentialsHandle{FileProvider: provider, cancel: cancel}, nil
}
