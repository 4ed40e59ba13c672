package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/samirrijal/photomap/internal/pkg/metrics"
)

// SetupRoutes registers the REST, GraphQL, photo file and docs routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	app.Use(AccessLogMiddleware())

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Scans hit the disk on every call: 60 requests per minute per IP.
	// Image downloads are not limited, a map page loads all of them at once.
	scanLimiter := limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	})

	api := app.Group("/api", scanLimiter)
	api.Get("/photos", timeout.NewWithContext(PhotosHandler(deps), deps.scanTimeout()))
	api.Get("/photos/nearby", timeout.NewWithContext(NearbyPhotosHandler(deps), deps.scanTimeout()))

	app.Get("/photos/*", ServePhotoHandler(deps))

	app.Post("/graphql", scanLimiter, timeout.NewWithContext(GraphQLHandler(deps), deps.scanTimeout()))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// Map frontend
	if deps.StaticDir != "" {
		app.Static("/", deps.StaticDir)
	}
}
