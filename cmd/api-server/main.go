package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/v-prt/bookish-backend/database"
	"github.com/v-prt/bookish-backend/internal/catalog"
	"github.com/v-prt/bookish-backend/internal/config"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/handler"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/middleware"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/repository"
	"github.com/v-prt/bookish-backend/internal/microservices/http-api/service"
	"github.com/v-prt/bookish-backend/internal/validation"
)

const shutdownTimeout = 10 * time.Second

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" || cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Setup structured logging
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	// The Redis cache is optional, lookups go straight to the catalog without it
	clientOpts := []catalog.Option{catalog.WithLogger(logger)}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cache, err := catalog.NewRedisCache(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Warn("catalog_cache_disabled", "error", err)
		} else {
			defer cache.Close()
			clientOpts = append(clientOpts, catalog.WithCache(cache))
		}
	}

	catalogClient := catalog.NewClient(catalog.Config{
		BaseURL:   cfg.CatalogAPIURL,
		APIKey:    cfg.CatalogAPIKey,
		Timeout:   cfg.CatalogTimeout,
		RateLimit: cfg.CatalogRateLimit,
		CacheTTL:  cfg.CatalogCacheTTL,
	}, clientOpts...)

	enricher := service.NewEnricher(catalogClient,
		service.WithConcurrency(cfg.CatalogConcurrency),
		service.WithDeadline(cfg.CatalogEnrichTimeout),
		service.WithLookupTimeout(cfg.CatalogTimeout),
		service.WithEnricherLogger(logger),
	)

	userRepo := repository.NewUserRepository(db)
	bookRepo := repository.NewBookRepository(db)

	services := handler.Services{
		Auth:            service.NewAuthService(userRepo, cfg),
		Users:           service.NewUserService(userRepo),
		Books:           service.NewBookService(bookRepo, catalogClient, enricher),
		Activity:        service.NewActivityService(bookRepo, enricher),
		Recommendations: service.NewRecommendationService(bookRepo, catalogClient, cfg.RecommendationMaxPages),
	}

	if err := validation.Register(); err != nil {
		logger.Error("validator_setup_failed", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/healthz", handler.Health)
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), services)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting_api_server", "addr", srv.Addr, "prefix", cfg.APIPrefix, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("received_shutdown_signal")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server_shutdown_failed", "error", err)
			return
		}
		logger.Info("server_stopped_gracefully")
	case err := <-errChan:
		logger.Error("server_error", "error", err)
		database.Close(db)
		os.Exit(1)
	}
}
