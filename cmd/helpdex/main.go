package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/helpdex/helpdex/internal/config"
	dbRedis "github.com/helpdex/helpdex/internal/db/redis"
	"github.com/helpdex/helpdex/internal/domain"
	logpkg "github.com/helpdex/helpdex/internal/logger"
	"github.com/helpdex/helpdex/internal/metrics"
	indexrepo "github.com/helpdex/helpdex/internal/repository/index"
	chiTransport "github.com/helpdex/helpdex/internal/transport/chi"
	openaiEmb "github.com/helpdex/helpdex/internal/transport/openai"
	healthuc "github.com/helpdex/helpdex/internal/usecase/health"
	metricsuc "github.com/helpdex/helpdex/internal/usecase/metrics"
	ratelimituc "github.com/helpdex/helpdex/internal/usecase/ratelimit"
	searchuc "github.com/helpdex/helpdex/internal/usecase/search"
	"github.com/helpdex/helpdex/internal/version"
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

	logger.Info("Starting helpdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("index_name", cfg.Database.IndexName),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register embedding metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()

	// Optional query embedder. Pass nil interface (not typed nil pointer!)
	// when no provider is configured: the semantic tier then runs
	// lexically only.
	var queryEmbedder domain.Embedder
	var embeddingChecker healthuc.EmbeddingChecker
	if cfg.Embedding.Enabled() {
		emb := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		queryEmbedder = emb
		embeddingChecker = emb
		logger.Info("Query embedder created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	backend := indexrepo.New(store, queryEmbedder, indexrepo.Config{
		IndexName: cfg.Database.IndexName,
		PoolSize:  cfg.Database.PoolSize,
	})

	// Use case services
	aggregator := metricsuc.New()
	limiter := ratelimituc.New(ratelimituc.Config{
		PerMinute:     cfg.RateLimit.PerMinute,
		PerHour:       cfg.RateLimit.PerHour,
		SweepInterval: time.Duration(cfg.RateLimit.SweepIntervalSec) * time.Second,
	}, nil)
	searchSvc := searchuc.NewService(backend, searchuc.NewTextFormatter(), aggregator)
	healthSvc := healthuc.New(store, embeddingChecker)

	server := chiTransport.NewServer(searchSvc, limiter, aggregator, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", server.Search)
		r.Get("/rate-limit", server.RateLimit)
		r.Get("/metrics", server.MetricsSnapshot)
	})
	r.Get("/health", server.HealthCheck)
	r.Get("/metrics", server.Metrics)

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
