// Package di provides dependency injection configuration for the Lectern server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/auth"
	"github.com/lecternapp/lectern-server/internal/config"
	"github.com/lecternapp/lectern-server/internal/di/providers"
	"github.com/lecternapp/lectern-server/internal/logger"
	"github.com/lecternapp/lectern-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideLessonService)
	do.Provide(injector, providers.ProvideProgressService)

	// Server
	do.Provide(injector, providers.ProvideProgressRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once they are live.
// This triggers lazy initialization in dependency order.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.LessonService](injector)
	_ = do.MustInvoke[*service.ProgressService](injector)

	// Server
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
