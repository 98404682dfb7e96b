// Package providers contains dependency injection providers for the sync daemon.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/lumieapp/lumie-sync/internal/config"
	"github.com/lumieapp/lumie-sync/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Lumie sync daemon",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"store_path", cfg.Store.BasePath,
		"backend_url", cfg.Backend.BaseURL,
	)

	return log, nil
}
