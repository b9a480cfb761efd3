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
	"go.uber.org/zap"

	httpapi "github.com/i474232898/water-quality-monitor/internal/api/http"
	"github.com/i474232898/water-quality-monitor/internal/config"
	"github.com/i474232898/water-quality-monitor/internal/dashboard"
	"github.com/i474232898/water-quality-monitor/internal/logging"
	"github.com/i474232898/water-quality-monitor/internal/metrics"
	"github.com/i474232898/water-quality-monitor/internal/poller"
	"github.com/i474232898/water-quality-monitor/internal/source"
	"github.com/i474232898/water-quality-monitor/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	rec := metrics.New()

	// Upstream items endpoint with resilience (backoff + circuit breaker).
	client := source.NewClient(source.Options{
		URL:        cfg.SourceURL,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Backoff: source.BackoffConfig{
			MaxRetries:      cfg.FetchMaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		Strict:  cfg.StrictValidation,
		TZ:      cfg.Location(),
		Logger:  logr,
		Metrics: rec,
	})

	// Last known good dataset plus selection and projections.
	service := dashboard.NewService(store.NewMemoryStore(), dashboard.Options{
		TZ:                  cfg.Location(),
		PreserveSourceOrder: cfg.PreserveSourceOrder,
	}, logr, rec)

	// Poller that refreshes the dataset on a fixed interval.
	p := poller.New(client, cfg.HTTPTimeout, logr, rec)
	handle, err := p.Start(cfg.PollInterval(), service.HandleResult)
	if err != nil {
		logr.Fatal("failed to start poller", zap.Error(err))
	}
	defer handle.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "water-quality-monitor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(rec.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "water-quality-monitor",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(rec.Handler()))

	httpapi.RegisterRoutes(app, service, cfg.Location())

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logr.Error("fiber server stopped", zap.Error(err))
		}
	}()
	logr.Info("listening", zap.String("port", cfg.Port), zap.String("source", client.Name()), zap.String("url", cfg.SourceURL))

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	handle.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Error("error during shutdown", zap.Error(err))
	}
}
