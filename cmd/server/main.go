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

	"github.com/skillshare/skillshare-backend/internal/api"
	"github.com/skillshare/skillshare-backend/internal/config"
	"github.com/skillshare/skillshare-backend/internal/logging"
	"github.com/skillshare/skillshare-backend/internal/media"
	"github.com/skillshare/skillshare-backend/internal/metrics"
	"github.com/skillshare/skillshare-backend/internal/repository/gormrepo"
	"github.com/skillshare/skillshare-backend/internal/service"
	"github.com/skillshare/skillshare-backend/internal/sweeper"
	"github.com/skillshare/skillshare-backend/internal/websocket"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Initialize database
	gormLevel := logger.Warn
	if cfg.Environment == "production" {
		gormLevel = logger.Error
	}
	db, err := gormrepo.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL, gormLevel)
	if err != nil {
		log.Error("failed to connect to database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := gormrepo.NewRepositories(db)

	m := metrics.New()

	// Initialize media storage
	deps := api.Deps{Metrics: m.Handler(), Logger: log}
	var store media.Store
	switch cfg.MediaBackend {
	case config.MediaBackendS3:
		s3Store, err := media.NewS3Store(context.Background(), media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Error("failed to configure s3 media store", "error", err)
			os.Exit(1)
		}
		store = s3Store
	default:
		local, err := media.NewLocalStore(cfg.MediaDir)
		if err != nil {
			log.Error("failed to configure local media store", "error", err)
			os.Exit(1)
		}
		store = local
		deps.Uploads = local.Handler()
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(log)
	go hub.Run()
	deps.Hub = hub

	// Initialize services
	services, err := service.NewServices(repos, cfg, store, hub, m, log)
	if err != nil {
		log.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	// Start the story expiry sweeper
	sw := sweeper.New(repos.Story, sweeper.Config{
		TTL:      cfg.StoryTTL,
		Interval: cfg.StorySweepInterval,
	},
		sweeper.WithPublisher(hub),
		sweeper.WithMetrics(m),
		sweeper.WithLogger(log),
	)
	sw.Start(context.Background())

	// Initialize router
	router := api.NewRouter(services, deps, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sw.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	hub.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("server stopped")
}
