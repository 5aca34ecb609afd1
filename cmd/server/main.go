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

	goredis "github.com/redis/go-redis/v9"

	"github.com/ikkim/venue-backend/config"
	"github.com/ikkim/venue-backend/internal/app/controller"
	"github.com/ikkim/venue-backend/internal/app/repository"
	"github.com/ikkim/venue-backend/internal/app/service"
	"github.com/ikkim/venue-backend/internal/db"
	"github.com/ikkim/venue-backend/internal/router"
	"github.com/ikkim/venue-backend/internal/scheduler"
	"github.com/ikkim/venue-backend/internal/storage"
	ws "github.com/ikkim/venue-backend/internal/websocket"
	"github.com/ikkim/venue-backend/pkg/logger"
	"github.com/ikkim/venue-backend/pkg/redis"
)

const initialLoadTimeout = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat == "console",
	})

	logger.Info("Starting Venue Backend Server", map[string]interface{}{
		"environment":    cfg.Server.Environment,
		"port":           cfg.Server.Port,
		"log_level":      logLevel,
		"dataset_source": cfg.Dataset.Source,
	})

	// Redis backs the dataset cache and comparison selections when enabled
	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.Init(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	}

	source, err := newVenueSource(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize venue source", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if cfg.Dataset.CacheTTL > 0 {
		source = repository.NewCachedSource(source, redisClient, cfg.Dataset.CacheTTL)
	}

	// Dataset state changes are pushed to WebSocket subscribers
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub()
	go hub.Run(hubCtx)

	// Initialize repositories and services
	venueRepo := repository.NewVenueRepository(source)
	filterEngine := service.NewFilterEngine()
	coordinator := service.NewQueryCoordinator(venueRepo, filterEngine, service.QueryOptions{
		CombineModes: cfg.Search.CombineModes,
		Listener:     hub,
	})

	// A failed initial load leaves the coordinator in the error state;
	// POST /api/v1/venues/reload retries it.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), initialLoadTimeout)
	if err := coordinator.Load(loadCtx); err != nil {
		logger.Error("Initial venue load failed", err, map[string]interface{}{
			"source": venueRepo.SourceName(),
		})
	}
	cancelLoad()

	var selectionStore service.SelectionStore
	if redisClient != nil {
		selectionStore = service.NewRedisSelectionStore(redisClient, cfg.Comparison.SessionTTL)
	} else {
		selectionStore = service.NewMemorySelectionStore(cfg.Comparison.SessionTTL)
	}
	comparisonService := service.NewComparisonService(selectionStore, coordinator)

	// Initialize controllers
	venueController := controller.NewVenueController(coordinator, filterEngine)
	comparisonController := controller.NewComparisonController(comparisonService)
	eventController := controller.NewEventController(hub, cfg.CORS.AllowedOrigins)

	// Setup router
	r := router.NewRouter(venueController, comparisonController, eventController, cfg)
	engine := r.Setup()

	var reloadScheduler *scheduler.DatasetReloadScheduler
	if cfg.Scheduler.ReloadSpec != "" {
		reloadScheduler = scheduler.NewDatasetReloadScheduler(cfg.Scheduler.ReloadSpec, coordinator)
		if err := reloadScheduler.Start(); err != nil {
			logger.Fatal("Failed to start dataset reload scheduler", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...", nil)

	if reloadScheduler != nil {
		reloadScheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	stopHub()

	logger.Info("Server stopped successfully", nil)
}

func newVenueSource(cfg *config.Config) (repository.VenueSource, error) {
	switch cfg.Dataset.Source {
	case config.DatasetSourceS3:
		s3 := storage.NewS3Storage(
			context.Background(),
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
		)
		return repository.NewS3Source(s3, cfg.Dataset.S3Key), nil
	case config.DatasetSourceDatabase:
		conn, err := db.Initialize(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateDB(conn); err != nil {
			return nil, err
		}
		return repository.NewVenueStore(conn), nil
	default:
		return repository.NewFileSource(cfg.Dataset.FilePath), nil
	}
}
