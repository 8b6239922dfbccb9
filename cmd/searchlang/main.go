package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchlang/internal/config"
	"github.com/kailas-cloud/searchlang/internal/db"
	dbMemory "github.com/kailas-cloud/searchlang/internal/db/memory"
	dbRedis "github.com/kailas-cloud/searchlang/internal/db/redis"
	"github.com/kailas-cloud/searchlang/internal/domain/search/kv"
	"github.com/kailas-cloud/searchlang/internal/domain/search/timemod"
	logpkg "github.com/kailas-cloud/searchlang/internal/logger"
	"github.com/kailas-cloud/searchlang/internal/metrics"
	"github.com/kailas-cloud/searchlang/internal/repository/history"
	"github.com/kailas-cloud/searchlang/internal/repository/parsecache"
	chiTransport "github.com/kailas-cloud/searchlang/internal/transport/chi"
	"github.com/kailas-cloud/searchlang/internal/transport/splunkd"
	healthuc "github.com/kailas-cloud/searchlang/internal/usecase/health"
	parseruc "github.com/kailas-cloud/searchlang/internal/usecase/parser"
	suggestuc "github.com/kailas-cloud/searchlang/internal/usecase/suggest"
	"github.com/kailas-cloud/searchlang/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchlang API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("backend_url", cfg.Backend.URL),
	)

	ctx := context.Background()

	store, err := newCacheStore(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register parser metrics explicitly (no init())
	metrics.RegisterParserMetrics()

	// Time resolution: backend round-trip when configured, local otherwise.
	// Pass nil interfaces (not typed nil pointers) for absent components.
	var (
		resolver parseruc.TimeResolver = timemod.NewResolver()
		backend  healthuc.BackendChecker
	)
	if cfg.Backend.URL != "" {
		client, err := splunkd.New(splunkd.Config{
			BaseURL:            cfg.Backend.URL,
			Timeout:            time.Duration(cfg.Backend.TimeoutSec) * time.Second,
			InsecureSkipVerify: cfg.Backend.InsecureSkipVerify,
			Retry:              retryConfig(cfg.Backend.Retry),
			RateLimit: splunkd.RateLimitConfig{
				RequestsPerSecond: cfg.Backend.RateLimit.RequestsPerSecond,
				Burst:             cfg.Backend.RateLimit.Burst,
			},
			Logger: logger,
		})
		if err != nil {
			logger.Fatal("Failed to create backend client", zap.Error(err))
		}
		resolver, backend = client, client
	}

	var (
		recorder     parseruc.UsageRecorder
		usage        suggestuc.History
		historyCheck healthuc.Pinger
	)
	if cfg.History.Path != "" {
		hs, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			logger.Fatal("Failed to open history store", zap.Error(err))
		}
		defer func() { _ = hs.Close() }()
		recorder, usage, historyCheck = hs, hs, hs
		logger.Info("Opened history store", zap.String("path", cfg.History.Path))
	}

	parserSvc := parseruc.New(kv.New(), parseruc.DefaultRegistry(), resolver, recorder, logger)
	cached := parsecache.New(
		parserSvc, store, time.Duration(cfg.Cache.TTLSec)*time.Second,
		metrics.ParseCacheTotal, logger,
	)
	suggestSvc := suggestuc.New(usage)
	healthSvc := healthuc.New(store, backend, historyCheck)

	server := chiTransport.NewServer(cached, suggestSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.SessionAuthMiddleware(cfg.Auth.SessionKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newCacheStore creates the parse cache backend for the configured driver.
func newCacheStore(cfg config.CacheConfig) (db.Store, error) {
	switch cfg.Driver {
	case "memory":
		return dbMemory.NewStore(cfg.Capacity), nil
	case "redis", "valkey":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func retryConfig(c config.RetryConfig) splunkd.RetryConfig {
	return splunkd.RetryConfig{
		MaxAttempts:    c.MaxAttempts,
		InitialDelay:   time.Duration(c.InitialDelayMs) * time.Millisecond,
		MaxDelay:       time.Duration(c.MaxDelayMs) * time.Millisecond,
		Multiplier:     c.Multiplier,
		JitterFraction: c.JitterFraction,
	}
}
