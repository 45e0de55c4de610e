// Package providers contains dependency injection providers for the
// musicopy transcoding core.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/fractalbeauty/musicopy/internal/config"
	"github.com/fractalbeauty/musicopy/internal/logger"
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

	log.Info("starting musicopy transcoding core",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"store_path", cfg.Store.Path,
		"transcodes_dir", cfg.Transcode.TranscodesDir,
		"worker_count", cfg.Transcode.WorkerCount,
	)

	return log, nil
}
