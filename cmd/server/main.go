package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/br-lookup-go/internal/app"
	"github.com/boddenberg/br-lookup-go/internal/config"
	"github.com/boddenberg/br-lookup-go/internal/handler"
	"github.com/boddenberg/br-lookup-go/internal/infra/observability"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("carrier_timeout", cfg.CarrierTimeout),
		zap.Int("provider_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("official_carrier_lookup", cfg.OfficialLookup),
		zap.String("catalog_file", cfg.CatalogFile),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "br-lookup")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Engine ---
	bg, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := app.Build(bg, cfg, logger, app.Options{})
	if err != nil {
		logger.Fatal("failed to build engine", zap.Error(err))
	}
	defer a.Close()

	if !a.Admin.Enabled() {
		logger.Warn("ADMIN_JWT_SECRET not set, cache admin routes disabled")
	}

	// --- Router ---
	router := handler.NewRouter(a.Engine, a.Admin, a, a.Metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
