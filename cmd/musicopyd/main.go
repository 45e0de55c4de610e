// Package main provides the entry point for the musicopy transcoding core
// daemon: it loads configuration, wires the DI container, and runs the
// library coordinator until told to shut down.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/fractalbeauty/musicopy/internal/config"
	"github.com/fractalbeauty/musicopy/internal/di"
	"github.com/fractalbeauty/musicopy/internal/di/providers"
	"github.com/fractalbeauty/musicopy/internal/logger"
)

func main() {
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start musicopy: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	cfg := do.MustInvoke[*config.Config](injector)
	lib := do.MustInvoke[*providers.LibraryHandle](injector)
	db := do.MustInvoke[*providers.StoreHandle](injector)

	log.Info("musicopy transcoding core running",
		"transcodes_dir", cfg.Transcode.TranscodesDir,
		"ready", lib.QueueReady(),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down musicopy gracefully")

	// Shutdown sequence (order matters!):
	// 1. Stop the supervisor and workers, waiting out in-flight transcodes.
	// 2. Close the store (no more hash/size row access).
	if err := lib.Shutdown(); err != nil {
		log.Error("failed to stop transcoding core", "error", err)
	}

	if err := db.Shutdown(); err != nil {
		log.Error("failed to close store", "error", err)
		os.Exit(1)
	}

	log.Info("store closed, goodbye")
}
