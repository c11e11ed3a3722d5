package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/horizonmask/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP. Editor sessions are a
	// single long-lived request and are not counted.
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/ws/")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, codeRateLimited, "too many requests, please try again later")
		},
	}))

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

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/settings", timeout.NewWithContext(SettingsHandler(deps), requestTimeout))
	v1.Get("/horizon-limit", timeout.NewWithContext(GetHorizonLimitHandler(deps), requestTimeout))
	v1.Post("/horizon-limit", timeout.NewWithContext(SaveHorizonLimitHandler(deps), requestTimeout))
	v1.Get("/horizon-limit/check", timeout.NewWithContext(CheckHorizonLimitHandler(deps), requestTimeout))
	v1.Get("/horizon-limit/curve", timeout.NewWithContext(HorizonCurveHandler(deps), requestTimeout))
	v1.Get("/horizon-limit/mask.png", timeout.NewWithContext(MaskImageHandler(deps), requestTimeout))
	v1.Get("/pointing-model/points", timeout.NewWithContext(ModelPointsHandler(deps), requestTimeout))
	v1.Get("/mount/status", timeout.NewWithContext(MountStatusHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	// Editor sessions
	app.Get("/ws/mask/:kind", EditorUpgrade(deps), websocket.New(EditorHandler(deps)))
}
