package main

import (
	"fmt"
	"log"
	"time"

	"renovation-estimator/internal/common/config"
	"renovation-estimator/internal/common/middleware"
	"renovation-estimator/internal/gateway/handlers"
	"renovation-estimator/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    32 * 1024 * 1024,
		AppName:      "Renovation Estimator Gateway",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.CORS(cfg.CORSOrigins))
	app.Use(middleware.Logger())

	// ============================================================
	// Health Check Routes
	// ============================================================

	readiness := handlers.NewReadiness(map[string]string{
		"estimator": cfg.EstimatorURL,
	}, 2*time.Second)

	app.Get("/health/live", handlers.LivenessProbe)
	app.Get("/health/ready", readiness.Probe)

	app.Get("/docs", handlers.SwaggerUI)
	app.Get(handlers.SpecPath, handlers.SwaggerSpec)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Renovation Estimator API v1",
			"status":  "ok",
		})
	})

	// Estimator Service
	estimator := proxy.New(cfg.EstimatorURL, time.Duration(cfg.WriteTimeout)*time.Second)
	api.All("/projects", estimator.Mount("/api/v1"))
	api.All("/projects/*", estimator.Mount("/api/v1"))
	api.All("/room-types", estimator.Mount("/api/v1"))
	api.All("/catalog", estimator.Mount("/api/v1"))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying /api/v1/projects to %s", cfg.EstimatorURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
