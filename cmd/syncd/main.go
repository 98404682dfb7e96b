// Package main provides the entry point for the Lumie sync daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/lumieapp/lumie-sync/internal/di"
	"github.com/lumieapp/lumie-sync/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	orch, err := di.Bootstrap(injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap sync daemon: %v\n", err)
		os.Exit(1)
	}

	// Get logger for lifecycle messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Run the startup sync in the background so the control API is
	// responsive immediately. A failed attempt is not retried; the next
	// refresh trigger covers it.
	go func() {
		if err := orch.PerformInitialSync(context.Background()); err != nil {
			log.Warn("Initial sync failed", "error", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down sync daemon gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Sync daemon stopped")
}
