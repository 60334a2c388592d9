// Package providers contains dependency injection providers for the readnest server.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/readnest/readnest/internal/config"
	"github.com/readnest/readnest/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting ReadNest",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"store", cfg.Store.Backend,
		"data_path", cfg.Data.Path,
		"readers", cfg.Household.Readers,
	)

	return log, nil
}
