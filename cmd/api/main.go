package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tandez/vectorflow/internal/api"
	"github.com/Tandez/vectorflow/internal/api/handler"
	"github.com/Tandez/vectorflow/internal/api/middleware"
	"github.com/Tandez/vectorflow/internal/auth"
	"github.com/Tandez/vectorflow/internal/config"
	"github.com/Tandez/vectorflow/internal/extract"
	"github.com/Tandez/vectorflow/internal/logger"
	"github.com/Tandez/vectorflow/internal/queue"
	"github.com/Tandez/vectorflow/internal/repository"
	"github.com/Tandez/vectorflow/internal/service"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		LogFile:     cfg.Log.File,
		ServiceName: "vectorflow",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	ctx := context.Background()
	redisQueue, err := queue.NewRedisQueue(ctx, &queue.RedisConfig{
		Addr:     cfg.Queue.Addr,
		Password: cfg.Queue.Password,
		DB:       cfg.Queue.DB,
		Key:      cfg.Queue.Key,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to queue")
	}
	defer redisQueue.Close()

	ingestStore := repository.NewIngestStore(db)
	jobRepo := repository.NewJobRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	ingestService, err := service.NewIngestService(ingestStore, redisQueue, appLogger, &service.IngestConfig{
		DispatchWorkers: cfg.Ingest.DispatchWorkers,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize ingest service")
	}
	defer ingestService.Close()

	statusService := service.NewStatusService(jobRepo)

	// Drains committed-but-undispatched batches back to the queue
	reconciler := service.NewReconciler(outboxRepo, redisQueue, appLogger, service.ReconcilerConfig{
		Interval:   cfg.Ingest.ReconcileInterval,
		StaleAfter: cfg.Ingest.ReconcileAfter,
	})
	reconcileCtx, stopReconciler := context.WithCancel(ctx)
	go reconciler.Run(reconcileCtx)

	router := api.SetupRouter(
		ingestService,
		statusService,
		redisQueue,
		extract.NewFileExtractor(),
		api.RouterConfig{
			Mode: cfg.Server.Mode,
			CORS: middleware.CORSConfig{
				AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
				AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
			},
			Validator: auth.NewStaticValidator(cfg.Auth.APIKey),
			Embed: handler.EmbedConfig{
				MaxFileSizeMB:  cfg.Ingest.MaxFileSizeMB,
				RequestTimeout: cfg.Ingest.RequestTimeout,
			},
		},
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	stopReconciler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
