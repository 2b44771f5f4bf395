package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-forecast-aggregation/internal/api/http"
	"github.com/i474232898/weather-forecast-aggregation/internal/config"
	"github.com/i474232898/weather-forecast-aggregation/internal/scheduler"
	"github.com/i474232898/weather-forecast-aggregation/internal/store"
	"github.com/i474232898/weather-forecast-aggregation/internal/timezone"
	"github.com/i474232898/weather-forecast-aggregation/internal/weather"
	"github.com/i474232898/weather-forecast-aggregation/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.Transport.Timeout,
	}

	// Transport chain: rate limit -> circuit breaker -> HTTP.
	var transport providers.Transport = providers.NewHTTPTransport(httpClient)
	if cfg.Transport.CircuitBreaker {
		transport = providers.NewBreakerTransport(transport, "openweather", zlog)
	}
	transport = providers.NewRateLimitedTransport(transport, cfg.Transport.RateLimitRPS, cfg.Transport.RateLimitBurst)

	refZone, err := cfg.ReferenceLocation()
	if err != nil {
		zlog.Fatal("invalid reference calendar", zap.Error(err))
	}

	opts := []providers.Option{
		providers.WithBaseURL(cfg.OpenWeather.BaseURL),
		providers.WithCalendar(refZone),
		providers.WithLogger(zlog),
	}
	if cfg.Calendar.Mode == config.CalendarLocal {
		tz, err := timezone.NewService()
		if err != nil {
			zlog.Fatal("failed to initialize timezone finder", zap.Error(err))
		}
		opts = append(opts, providers.WithZoneResolver(tz))
	}
	client := providers.NewOpenWeatherClient(transport, cfg.OpenWeather.APIKey, opts...)

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.Store.MaxHistory, cfg.Store.MaxAge)

	service := weather.NewService(memStore, client, client, zlog)

	// Scheduler that periodically refreshes tracked locations.
	sched := scheduler.New(cfg.Locations, cfg.Scheduler.Interval, service, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-forecast-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-forecast-aggregation",
		})
	})

	httpapi.RegisterRoutes(app, service, zlog)

	go func() {
		addr := cfg.GetServerAddr()
		zlog.Info("http server listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}
