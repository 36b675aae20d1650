package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/weathersight/weathersight/internal/api/http"
	"github.com/weathersight/weathersight/internal/chat"
	"github.com/weathersight/weathersight/internal/config"
	"github.com/weathersight/weathersight/internal/forecast"
	"github.com/weathersight/weathersight/internal/geo"
	"github.com/weathersight/weathersight/internal/observability"
	"github.com/weathersight/weathersight/internal/pipeline"
	"github.com/weathersight/weathersight/internal/scheduler"
	"github.com/weathersight/weathersight/internal/session"
	"github.com/weathersight/weathersight/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	metrics := observability.NewMetrics()
	sessions := session.NewStore(cfg.SessionTTL)

	// Reverse geocoding is best-effort; without a key, place names stay blank.
	var resolver geo.Resolver
	if cfg.GeocoderAPIKey != "" {
		resolver = geo.NewGoogleResolver(cfg.GeocoderAPIKey)
	} else {
		log.Printf("INFO: GEOCODER_API_KEY not set; place-name resolution disabled")
	}

	provider := providers.NewOpenMeteoArchive(httpClient)
	engine := forecast.NewEngine(cfg.ForecastHorizon)
	chatClient := chat.NewOpenAIClient(httpClient, cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatModel)
	responder := chat.NewResponder(chatClient, cfg.ChatMaxTokens)

	// Core pipeline orchestrating resolve -> fetch -> forecast -> chat.
	p := pipeline.New(resolver, provider, engine, responder, sessions, metrics, cfg.HTTPTimeout)

	// Periodic sweep of idle sessions.
	sweeper := scheduler.New(sessions, cfg.SessionSweepInterval, metrics)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("failed to start session sweeper: %v", err)
	}
	defer sweeper.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weathersight",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
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

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weathersight",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, p)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

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
