// Package providers contains the dependency injection providers for
// the Lectern server.
package providers

import (
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/config"
	"github.com/lecternapp/lectern-server/internal/logger"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second
)

// ProvideConfig loads application configuration.
func ProvideConfig(_ do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}), nil
}

// ProvideSlogLogger provides the underlying slog.Logger for packages
// that take the standard interface.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
