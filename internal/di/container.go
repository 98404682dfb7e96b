// Package di provides dependency injection configuration for the sync daemon.
package di

import (
	"github.com/samber/do/v2"

	"github.com/lumieapp/lumie-sync/internal/config"
	"github.com/lumieapp/lumie-sync/internal/di/providers"
	"github.com/lumieapp/lumie-sync/internal/logger"
	"github.com/lumieapp/lumie-sync/internal/sync"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Local cache
	do.Provide(injector, providers.ProvideStore)

	// Backend boundary
	do.Provide(injector, providers.ProvideCredentials)
	do.Provide(injector, providers.ProvideGateway)

	// Engine
	do.Provide(injector, providers.ProvideBus)
	do.Provide(injector, providers.ProvideOrchestrator)

	// Workers
	do.Provide(injector, providers.ProvideRefreshJob)

	// Control API
	do.Provide(injector, providers.ProvideControlServer)

	return injector
}

// Bootstrap triggers lazy initialization of every service and returns the
// orchestrator for the startup sync.
func Bootstrap(injector *do.RootScope) (*sync.Orchestrator, error) {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.CredentialsHandle](injector)

	orch, err := do.Invoke[*sync.Orchestrator](injector)
	if err != nil {
		return nil, err
	}

	_ = do.MustInvoke[*providers.RefreshJob](injector)
	_ = do.MustInvoke[*providers.ControlServerHandle](injector)

	return orch, nil
}
