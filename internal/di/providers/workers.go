package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/lumieapp/lumie-sync/internal/config"
	"github.com/lumieapp/lumie-sync/internal/errors"
	"github.com/lumieapp/lumie-sync/internal/logger"
	"github.com/lumieapp/lumie-sync/internal/sync"
)

// RefreshJob periodically triggers the pull-merge pipeline.
type RefreshJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *RefreshJob) Shutdown() error {
	if j.cancel != nil {
		j.cancel()
	}
	return nil
}

// ProvideRefreshJob provides the background refresh ticker. An interval of
// zero disables it; the host app then drives refreshes through the control
// API alone.
func ProvideRefreshJob(i do.Injector) (*RefreshJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	orch := do.MustInvoke[*sync.Orchestrator](i)

	if cfg.Sync.RefreshInterval <= 0 {
		log.Info("Periodic refresh disabled")
		return &RefreshJob{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go runRefreshLoop(ctx, orch, cfg.Sync.RefreshInterval, log)

	log.Info("Periodic refresh started", "interval", cfg.Sync.RefreshInterval)

	return &RefreshJob{cancel: cancel}, nil
}

func runRefreshLoop(ctx context.Context, orch *sync.Orchestrator, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := orch.RefreshAll(ctx); err != nil && !errors.Is(err, sync.ErrCoalesced) {
				log.Warn("Periodic refresh failed", "error", err)
			}
		}
	}
}
