package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/fractalbeauty/musicopy/internal/config"
	"github.com/fractalbeauty/musicopy/internal/library"
	"github.com/fractalbeauty/musicopy/internal/logger"
	"github.com/fractalbeauty/musicopy/internal/store"
)

// StoreHandle wraps the embedded badger-backed Database with shutdown
// capability.
type StoreHandle struct {
	store.Database
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the embedded key/value store backing the hash and
// size caches.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	return &StoreHandle{Database: db}, nil
}

// LibraryHandle wraps the library coordinator with shutdown capability: it
// cancels the context that governs the supervisor's command loop and the
// worker pool, then waits for in-flight transcodes to finish publishing
// their outcome before returning.
type LibraryHandle struct {
	*library.Library
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *LibraryHandle) Shutdown() error {
	h.cancel()
	h.Wait()
	return nil
}

// ProvideLibrary provides the transcoding core's root coordinator: it
// performs the startup disk reconciliation scan before this provider
// returns, then launches the supervisor's command loop and the worker pool
// in the background.
func ProvideLibrary(i do.Injector) (*LibraryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	lib := library.New(storeHandle.Database, cfg.Transcode, log)

	ctx, cancel := context.WithCancel(context.Background())
	if err := lib.Start(ctx); err != nil {
		cancel()
		return nil, err
	}

	log.Info("transcoding core started",
		"transcodes_dir", cfg.Transcode.TranscodesDir,
		"initial_policy", cfg.Transcode.InitialPolicy,
		"worker_count", cfg.Transcode.WorkerCount,
		"ready", lib.Status.Ready(),
	)

	return &LibraryHandle{Library: lib, cancel: cancel}, nil
}
