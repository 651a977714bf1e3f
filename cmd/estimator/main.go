package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"renovation-estimator/internal/common/config"
	"renovation-estimator/internal/common/middleware"
	"renovation-estimator/internal/estimator/assembler"
	"renovation-estimator/internal/estimator/calibration"
	"renovation-estimator/internal/estimator/export"
	"renovation-estimator/internal/estimator/handlers"
	"renovation-estimator/internal/estimator/netting"
	"renovation-estimator/internal/estimator/pipeline"
	"renovation-estimator/internal/estimator/repository"
	"renovation-estimator/internal/estimator/rules"
	"renovation-estimator/internal/estimator/storage"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Estimator Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3003"
	}

	db, err := repository.OpenSQLite(cfg.EstimatorDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatalf("init db: %v", err)
	}

	estimatorHandler := handlers.NewEstimatorHandler(
		repo,
		calibration.NewRegistry(),
		pipelineConfig(cfg),
		export.PDFOptions{FontPath: cfg.PDFFontPath},
	).WithPlanStorage(storage.NewPlanStorage(cfg.PlansDir))

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Estimator Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Estimator Routes
	// ============================================================

	estimatorHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Estimator Service on %s (env: %s, db: %s)", addr, cfg.Environment, cfg.EstimatorDBPath)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		Factors: rules.Factors{WindowHeightFactor: cfg.WindowHeightFactor},
		Netting: netting.Options{LengthRoundingPx: cfg.OpeningLengthRoundingPx},
		Prices: assembler.Prices{
			Demolition:   cfg.Prices.Demolition,
			Installation: cfg.Prices.Installation,
			Screed:       cfg.Prices.Screed,
			Plaster:      cfg.Prices.Plaster,
			Putty:        cfg.Prices.Putty,
			Tiling:       cfg.Prices.Tiling,
			Baseboard:    cfg.Prices.Baseboard,
		},
	}
}
