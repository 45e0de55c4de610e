// Package di provides dependency injection configuration for the
// musicopy transcoding core.
package di

import (
	"github.com/samber/do/v2"

	"github.com/fractalbeauty/musicopy/internal/config"
	"github.com/fractalbeauty/musicopy/internal/di/providers"
	"github.com/fractalbeauty/musicopy/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Persistence layer
	do.Provide(injector, providers.ProvideStore)

	// Transcoding core
	do.Provide(injector, providers.ProvideLibrary)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.LibraryHandle](injector)

	return nil
}
