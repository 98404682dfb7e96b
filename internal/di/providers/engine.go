package providers

import (
	"github.com/samber/do/v2"

	"github.com/lumieapp/lumie-sync/internal/bus"
	"github.com/lumieapp/lumie-sync/internal/config"
	"github.com/lumieapp/lumie-sync/internal/gateway"
	"github.com/lumieapp/lumie-sync/internal/logger"
	"github.com/lumieapp/lumie-sync/internal/sync"
)

// BusHandle wraps the event bus with shutdown capability.
type BusHandle struct {
	*bus.Bus
}

// Shutdown implements do.Shutdownable.
func (h *BusHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideBus provides the in-process change notifier.
func ProvideBus(i do.Injector) (*BusHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &BusHandle{Bus: bus.New(log.Logger)}, nil
}

// ProvideOrchestrator provides the one sync orchestrator for the process.
func ProvideOrchestrator(i do.Injector) (*sync.Orchestrator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	gw := do.MustInvoke[gateway.Gateway](i)
	busHandle := do.MustInvoke[*BusHandle](i)
	creds := do.MustInvoke[*CredentialsHandle](i)

	guard := sync.NewGuard(cfg.Sync.MinInterval)
	orch := sync.New(storeHandle.Store, gw, guard, busHandle.Bus, creds, cfg.Backend.OwnerID, log.Logger)

	log.Info("Sync orchestrator ready",
		"owner_id", cfg.Backend.OwnerID,
		"min_interval", cfg.Sync.MinInterval,
	)

	return orch, nil
}
