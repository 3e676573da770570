package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"galleryapi/docs"
	"galleryapi/internal/config"
	"galleryapi/internal/database"
	"galleryapi/internal/database/migration"
	handlers "galleryapi/internal/http/handler"
	"galleryapi/internal/http/middleware"
	"galleryapi/internal/notify"
	"galleryapi/internal/otel"
	"galleryapi/internal/repository/postgres"
	"galleryapi/internal/scheduler"
	"galleryapi/internal/service"
	"galleryapi/internal/storage"
)

// @title Gallery API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// OpenTelemetry tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Repositories and services
	imgRepo := postgres.NewImagePostgres(db)
	gallerySvc := service.NewGalleryService(objStore, imgRepo, cfg.Upload.MaxFileSizeBytes)
	cleanupJob := service.NewCleanupJob(objStore, imgRepo, cfg.Cleanup.BatchSize)

	// Insert change feed over a dedicated Postgres connection
	dsn, err := database.BuildPostgresDSN(cfg.Database)
	if err != nil {
		log.Fatalf("failed to build listener DSN: %v", err)
	}
	feed := notify.NewPGListener(dsn)
	listenerCtx, stopListener := context.WithCancel(ctx)
	defer stopListener()
	go func() {
		if err := feed.Run(listenerCtx); err != nil {
			log.Printf("change feed stopped: %v", err)
		}
	}()

	// Metrics registry shared by middleware, scheduler and the /metrics endpoint
	reg := prometheus.NewRegistry()
	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	// In-process daily cleanup trigger
	sched, err := scheduler.New(reg, time.UTC)
	if err != nil {
		log.Fatalf("failed to create scheduler: %v", err)
	}
	if _, err := sched.ScheduleCleanup(cfg.Cleanup.Schedule, cleanupJob); err != nil {
		log.Fatalf("failed to schedule cleanup: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Upload.MaxFileSizeBytes) * 4,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMw.Handler())

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, gallerySvc, cleanupJob, feed, reg, cfg)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
