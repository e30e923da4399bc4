// Package api builds the HTTP application.
package api

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/storefront/users-backend/restapi"
)

// DefaultCORSOrigins is the storefront SPA in development
const DefaultCORSOrigins = "http://localhost:5173"

// NewFiberApp creates and configures a Fiber app with REST, GraphQL and metrics routes
func NewFiberApp(deps restapi.Deps, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "users-backend API v1.0",
		BodyLimit:   1 * 1024 * 1024, // 1MB
		ReadTimeout: 30 * time.Second,
	})

	// Middleware
	app.Use(fiberrecover.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	origins := os.Getenv("CORS_ORIGINS")
	if origins == "" {
		origins = DefaultCORSOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		AllowMethods:     "GET, POST, HEAD, PUT, DELETE, PATCH, OPTIONS",
	}))
	app.Use(logger.New())

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	restapi.SetupRoutes(app, deps)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Kindly verify the endpoint."})
	})

	return app
}
