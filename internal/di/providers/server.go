package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/api"
	"github.com/lecternapp/lectern-server/internal/auth"
	"github.com/lecternapp/lectern-server/internal/config"
	"github.com/lecternapp/lectern-server/internal/logger"
	"github.com/lecternapp/lectern-server/internal/ratelimit"
	"github.com/lecternapp/lectern-server/internal/service"
)

// RateLimiterHandle wraps the progress rate limiter with Shutdownable.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideProgressRateLimiter provides the per-user limiter on progress writes.
func ProvideProgressRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Server.ProgressRPS, cfg.Server.ProgressBurst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)

	services := &api.Services{
		Lesson:   do.MustInvoke[*service.LessonService](i),
		Progress: do.MustInvoke[*service.ProgressService](i),
	}

	handler := api.NewServer(services, tokens, limiter.KeyedRateLimiter, cfg.App.Environment, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "name", cfg.Server.Name)

	return &HTTPServerHandle{Server: srv}, nil
}
