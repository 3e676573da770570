package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"galleryapi/internal/config"
	"galleryapi/internal/http/middleware"
	"galleryapi/internal/notify"
	"galleryapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers stay
// free of business logic; everything is delegated to the injected services.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	svc service.GalleryService,
	cleanupJob service.CleanupRunner,
	feed notify.Listener,
	reg *prometheus.Registry,
	cfg *config.AppConfig,
) {
	timeout := time.Duration(cfg.StoreCallTimeoutSec) * time.Second

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Public gallery
	app.Get("/images", ListImages(svc, timeout))
	app.Post("/images", UploadImages(svc, timeout))
	app.Get("/images/events", ImageEvents(svc, feed, timeout))

	// Administrator-only operations; the token check happens server-side here,
	// not in the client.
	app.Delete("/images/:id", middleware.AdminAuth(cfg.AdminToken), DeleteImage(svc, timeout))
	app.Get("/images/:id/download", middleware.AdminAuth(cfg.AdminToken), DownloadImage(svc, timeout))
	app.Get("/images/:id/raw", middleware.AdminAuth(cfg.AdminToken), RawImage(svc))

	// Cleanup trigger for external schedulers. Permissive CORS with a no-op
	// pre-flight response; the POST itself requires the service token.
	app.Use("/internal/cleanup", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type, Authorization",
	}))
	app.Post("/internal/cleanup", middleware.BearerAuth(cfg.Cleanup.Token), RunCleanup(cleanupJob))
}
