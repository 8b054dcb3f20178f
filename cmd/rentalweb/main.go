package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smartrental/rental-web/internal/accounts"
	"github.com/smartrental/rental-web/internal/app"
	"github.com/smartrental/rental-web/internal/audit"
	"github.com/smartrental/rental-web/internal/auth"
	"github.com/smartrental/rental-web/internal/dashboard"
	"github.com/smartrental/rental-web/internal/observability"
	"github.com/smartrental/rental-web/internal/platform/cache"
	"github.com/smartrental/rental-web/internal/platform/db"
	"github.com/smartrental/rental-web/internal/rentalapi"
	"github.com/smartrental/rental-web/internal/session"
	"github.com/smartrental/rental-web/internal/shared"
	"github.com/smartrental/rental-web/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	healthChecks := map[string]app.HealthCheck{
		"redis": func(ctx context.Context) error { return cache.Ping(ctx, redisClient) },
	}

	var recorder audit.Recorder = audit.Nop{}
	if cfg.AuditEnabled() {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()

		repo := audit.NewRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Error("prepare audit schema", slog.Any("error", err))
			os.Exit(1)
		}
		recorder = repo
		healthChecks["postgres"] = pool.Ping
	} else {
		logger.Info("audit trail disabled; PG_DSN is empty")
	}

	metrics := observability.NewMetrics()
	storageManager := shared.NewStorageManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	apiClient := rentalapi.NewClientWithTransport(
		cfg.RentalAPIURL,
		cfg.RentalAPITimeout,
		session.AccessToken,
		metrics.InstrumentTransport(http.DefaultTransport),
	)

	authService := auth.NewService(apiClient, logger, metrics, recorder)
	authHandler := auth.NewHandler(logger, authService, templates, cfg.LoginRateLimit)
	accountsHandler := accounts.NewHandler(logger, apiClient, authService, templates)
	dashboardHandler := dashboard.NewHandler(logger, apiClient, authService, templates)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		StorageManager:   storageManager,
		AuthHandler:      authHandler,
		AccountsHandler:  accountsHandler,
		DashboardHandler: dashboardHandler,
		Metrics:          metrics,
		HealthChecks:     healthChecks,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("rental_api", cfg.RentalAPIURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
