package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/photoalbum/server/internal/config"
	"github.com/photoalbum/server/internal/handlers"
	custommw "github.com/photoalbum/server/internal/middleware"
	"github.com/photoalbum/server/internal/observability"
	"github.com/photoalbum/server/internal/repository"
	"github.com/photoalbum/server/internal/services"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize telemetry
	ctx := context.Background()
	telemetry, err := observability.Initialize(ctx, observability.NewConfig("photoalbum-server", serviceVersion))
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			observability.Errorf("Telemetry shutdown error: %v", err)
		}
	}()

	// Initialize database and repositories
	var albumRepo repository.AlbumRepo
	var photoRepo repository.PhotoRepo
	if cfg.UsePostgres() {
		observability.Info("Using PostgreSQL database")
		db, err := repository.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
		}
		defer db.Close()

		tracedDB, err := observability.NewTraceDB(db, "postgresql")
		if err != nil {
			log.Fatalf("Failed to initialize database tracing: %v", err)
		}
		albumRepo = repository.NewAlbumRepositoryPostgres(tracedDB)
		photoRepo = repository.NewPhotoRepositoryPostgres(tracedDB)
	} else {
		observability.Info("Using SQLite database")
		db, err := repository.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite database: %v", err)
		}
		defer db.Close()

		tracedDB, err := observability.NewTraceDB(db, "sqlite")
		if err != nil {
			log.Fatalf("Failed to initialize database tracing: %v", err)
		}
		albumRepo = repository.NewAlbumRepository(tracedDB)
		photoRepo = repository.NewPhotoRepository(tracedDB)
	}

	// Initialize services
	storageService, err := services.NewStorageService(cfg.Storage.RootPath)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}
	thumbnailService := services.NewThumbnailService(cfg.Storage.ThumbSize)
	exifService := services.NewEXIFService()
	allocator := services.NewFilenameAllocator(photoRepo, cfg.Storage.MaxNameProbes)

	photoService := services.NewPhotoService(
		albumRepo,
		photoRepo,
		storageService,
		thumbnailService,
		exifService,
		allocator,
		cfg.Storage.MaxFileSizeMB,
	)
	albumService := services.NewAlbumService(albumRepo, photoRepo, storageService)

	// Initialize metrics
	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize HTTP metrics: %v", err)
	}
	businessMetrics, err := observability.NewBusinessMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize business metrics: %v", err)
	}

	// Initialize handlers
	albumHandler := handlers.NewAlbumHandler(albumService, businessMetrics)
	photoHandler := handlers.NewPhotoHandler(photoService, businessMetrics)
	healthHandler := handlers.NewHealthHandler()

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware("photoalbum-server"))
	r.Use(observability.MetricsMiddleware(httpMetrics))
	r.Use(custommw.APIKeyAuth(cfg.Security.APIKey, cfg.Security.APIKeyHeader))

	// Routes
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/api/health", healthHandler.HealthCheck)

	r.Route("/api/albums", func(r chi.Router) {
		r.Post("/", albumHandler.Create)
		r.Get("/", albumHandler.List)
		r.Get("/{albumId}", albumHandler.Get)

		r.Route("/{albumId}/photos", func(r chi.Router) {
			r.Post("/", photoHandler.Upload)
			r.Get("/", photoHandler.List)
			r.Get("/download", photoHandler.Download)
			r.Get("/{photoId}", photoHandler.Get)
			r.Put("/move", photoHandler.Move)
			r.Delete("/", photoHandler.Delete)
		})
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Longer for uploads and archives
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		observability.Infof("Photo Album Server starting on %s", cfg.ServerAddress)
		observability.Infof("Photo storage path: %s", cfg.Storage.RootPath)
		observability.Infof("Max file size: %dMB", cfg.Storage.MaxFileSizeMB)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	observability.Info("Server stopped")
}
