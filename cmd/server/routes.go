package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	h := deps.Handlers // Shorthand for handlers

	// Health check and metrics routes
	h.Health.RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	h.Runs.RegisterRoutes(api)
	h.Geometry.RegisterRoutes(api)

	var ingest []fiber.Handler
	if deps.RateLimit != nil {
		ingest = append(ingest, deps.RateLimit.Handler())
	}
	h.Events.RegisterRoutes(api, ingest...)
}
