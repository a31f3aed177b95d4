package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"pelotero/internal/auth"
	"pelotero/internal/cache"
	"pelotero/internal/cli"
	apphttp "pelotero/internal/http"
	"pelotero/internal/log"
	"pelotero/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	loc := cfg.Location()

	backend := cli.InitBackend(context.Background(), logger, cfg)

	app := services.NewApp(backend.Backend, backend.Publisher(), services.WithLocation(loc))

	cacheManager := cache.NewManager()
	cacheManager.StartCleanup(10 * time.Minute)

	authn := auth.New(auth.Config{
		User:         cfg.AdminUser,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       cfg.SessionSecret,
		TTL:          cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
	}, cacheManager)
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is empty, login is disabled and the API is unreachable")
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		App:             app,
		Auth:            authn,
		Store:           backend.Backend,
		Logger:          logger.WithComponent(log.ComponentHTTP),
		Location:        loc,
		LoginRateLimit:  cfg.LoginRateLimit,
		DashboardRecent: cfg.DashboardRecent,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if err := backend.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting pelotero server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", cfg.AMQPEnabled(),
		"timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
