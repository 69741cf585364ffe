// Package main provides the entry point for the ClassDesk server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/classdeskapp/classdesk-server/internal/di"
	"github.com/classdeskapp/classdesk-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewServerContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	if err := di.StartServer(injector); err != nil {
		log.WithError(err).Fatal("Failed to start HTTP server")
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// The DI container shuts services down in reverse dependency order,
	// so the HTTP server drains before the stores close.
	if err := injector.Shutdown(); err != nil {
		log.WithError(err).Error("Shutdown error")
	}

	log.Info("Class dismissed")
}
