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

	"github.com/Dias221467/Wishlist_Manager/internal/config"
	"github.com/Dias221467/Wishlist_Manager/internal/database"
	"github.com/Dias221467/Wishlist_Manager/internal/handlers"
	"github.com/Dias221467/Wishlist_Manager/internal/jobs"
	"github.com/Dias221467/Wishlist_Manager/internal/repository"
	cron "github.com/Dias221467/Wishlist_Manager/internal/scheduler"
	"github.com/Dias221467/Wishlist_Manager/internal/services"
	"github.com/Dias221467/Wishlist_Manager/internal/storage"
	"github.com/Dias221467/Wishlist_Manager/internal/storage/memory"
	miniostore "github.com/Dias221467/Wishlist_Manager/internal/storage/minio"
	s3store "github.com/Dias221467/Wishlist_Manager/internal/storage/s3"
	"github.com/Dias221467/Wishlist_Manager/pkg/logger"
	"github.com/Dias221467/Wishlist_Manager/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const memoryBucketName = "wishlist-local"

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	if err := cfg.Validate(); err != nil {
		logger.Log.WithError(err).Fatal("Invalid configuration")
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Database connection error")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// --- Repositories ---
	wishlistRepo := repository.NewWishlistRepository(db)
	if err := wishlistRepo.EnsureIndexes(startupCtx); err != nil {
		logger.Log.WithError(err).Fatal("Failed to create wishlist indexes")
	}

	// --- Blob storage ---
	bucket, err := newBucket(startupCtx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Blob storage setup failed")
	}

	// --- Services ---
	wishlistService := services.NewWishlistService(wishlistRepo, bucket, cfg.ImageFolder)

	// --- Handlers ---
	wishlistHandler := handlers.NewWishlistHandler(wishlistService, cfg.MaxUploadBytes)

	router := mux.NewRouter()
	handlers.RegisterWishlistRoutes(router, wishlistHandler, cfg.JWTSecret)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// --- Background jobs ---
	if cfg.SweepEnabled {
		sweeper := jobs.NewOrphanSweeper(bucket, wishlistRepo, cfg.ImageFolder, cfg.SweepGracePeriod)
		sweepCron, err := cron.StartSweepCron(cfg.SweepSchedule, sweeper)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to schedule orphan sweep")
		}
		defer sweepCron.Stop()
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithField("port", cfg.Port).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("HTTP server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
	if err := db.Client().Disconnect(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Mongo disconnect failed")
	}
	logger.Log.Info("Server stopped")
}

// newBucket builds the blob store selected by STORAGE_DRIVER.
func newBucket(ctx context.Context, cfg *config.Config) (*storage.Bucket, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		driver, err := s3store.New(ctx, s3store.Config{
			Region:          cfg.StorageRegion,
			Bucket:          cfg.StorageBucket,
			Endpoint:        cfg.StorageEndpoint,
			AccessKeyID:     cfg.StorageAccessKey,
			SecretAccessKey: cfg.StorageSecretKey,
			PathStyle:       cfg.StoragePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewBucket(driver, cfg.StorageBucket, cfg.StoragePublicURL)

	case config.StorageDriverMinio:
		driver, err := miniostore.New(cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey, cfg.StorageBucket, cfg.StorageUseSSL)
		if err != nil {
			return nil, err
		}
		if err := driver.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return storage.NewBucket(driver, cfg.StorageBucket, cfg.StoragePublicURL)

	case config.StorageDriverMemory:
		name := cfg.StorageBucket
		if name == "" {
			name = memoryBucketName
		}
		logger.Log.Warn("Using in-memory blob storage; images are lost on restart")
		return storage.NewBucket(memory.New(), name, cfg.StoragePublicURL)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
