package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/i474232898/weather-prediction-api/internal/api/http"
	"github.com/i474232898/weather-prediction-api/internal/config"
	"github.com/i474232898/weather-prediction-api/internal/meteo"
	"github.com/i474232898/weather-prediction-api/internal/model"
	"github.com/i474232898/weather-prediction-api/internal/predict"
	"github.com/i474232898/weather-prediction-api/internal/scheduler"
	"github.com/i474232898/weather-prediction-api/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Model registry is built exactly once before the server starts and is
	// read-only afterwards. Zero complete bundles is a hard startup failure.
	registry, err := model.Load(cfg.ModelsDir)
	if err != nil {
		log.Fatalf("failed to load model registry from %s: %v", cfg.ModelsDir, err)
	}

	// Prediction store: Postgres when configured, in-memory otherwise.
	var predictionStore store.Store
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		cancel()
		if err != nil {
			log.Fatalf("failed to open prediction store: %v", err)
		}
		predictionStore = pg
	} else {
		log.Println("INFO: DATABASE_URL not set, using in-memory prediction store")
		predictionStore = store.NewMemoryStore(cfg.StoreMaxHistory)
	}
	defer predictionStore.Close()

	// Shared HTTP client for outbound weather/AQI lookups.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	lookups := meteo.NewClient(httpClient)

	// Core service orchestrating resolution, inference and persistence.
	service := predict.NewService(registry, predictionStore, lookups, cfg.StoreTimeout)

	// Scheduler that periodically auto-predicts for tracked cities.
	sched := scheduler.New(cfg.TrackedCities, cfg.PredictInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-prediction-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// API routes.
	httpapi.RegisterRoutes(app, service, lookups)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	log.Printf("weather prediction API ready on port %s (%d cities with models)",
		cfg.Port, len(registry.Keys()))

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
