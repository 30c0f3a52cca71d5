package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	httpapi "github.com/antonkvm/transit-display/internal/api/http"
	"github.com/antonkvm/transit-display/internal/config"
	"github.com/antonkvm/transit-display/internal/connectivity"
	"github.com/antonkvm/transit-display/internal/refresh"
	"github.com/antonkvm/transit-display/internal/render"
	"github.com/antonkvm/transit-display/internal/store"
	"github.com/antonkvm/transit-display/internal/transit"
	"github.com/antonkvm/transit-display/internal/weather"
)

func main() {
	// Missing .env is the normal case on the deployed box.
	_ = godotenv.Load()

	logger, err := buildLogger(os.Getenv("LOG_FORMAT"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.Load(logger.Named("config"))

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warnw("Unknown timezone, using local time", "timezone", cfg.Timezone, "error", err)
		loc = time.Local
	}

	stations := config.LoadStations(cfg.StationsFile, logger.Named("config"))
	logger.Infow("Loaded station config", "stations", len(stations))

	// Shared HTTP client for outbound feed calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	bvg := transit.NewClient(httpClient, cfg.BVGBaseURL, logger.Named("transit"))
	meteo := weather.NewClient(httpClient, cfg.WeatherBaseURL, cfg.Latitude, cfg.Longitude, loc, logger.Named("weather"))

	cells := store.New()
	stats := &refresh.Stats{}

	sig := refresh.NewSignal()
	sig.Raise() // render once at startup, before any feed publishes

	renderer := &render.TextRenderer{Out: os.Stdout}

	// Fatal conditions get a best-effort error screen before the process dies.
	fatal := func(err error) {
		renderer.RenderError(err.Error())
		logger.Fatalw("Unrecoverable failure", "error", err)
	}

	cron := gocron.NewScheduler(loc)
	if err := refresh.StartMinuteTick(cron, sig); err != nil {
		logger.Errorw("Failed to schedule minute tick", "error", err)
	}

	var watchdog *connectivity.Watchdog
	wifiConn := cfg.WifiConnection
	if wifiConn == "" {
		wifiConn, err = connectivity.DetectWifiConnection(logger.Named("connectivity"))
		if err != nil {
			logger.Warnw("No wifi connection detected, watchdog disabled", "error", err)
			wifiConn = ""
		}
	}
	if wifiConn != "" {
		watchdog = &connectivity.Watchdog{
			Prober:   connectivity.NewNMCLI(wifiConn, logger.Named("connectivity")),
			Interval: cfg.ProbeInterval,
			Log:      logger.Named("connectivity"),
		}
		if err := watchdog.Start(cron, fatal); err != nil {
			logger.Errorw("Failed to schedule connectivity probe", "error", err)
		}
	}

	cron.StartAsync()
	defer cron.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trips := &refresh.TripsProducer{
		FetchStation: bvg.FetchDepartures,
		Stations:     stations,
		Cells:        cells,
		Signal:       sig,
		Schedule:     refresh.FixedInterval{Every: cfg.TripsInterval},
		RetryDelay:   cfg.TripsRetryDelay,
		Stats:        &stats.Trips,
		Log:          logger.Named("trips"),
	}
	weatherLoop := &refresh.WeatherProducer{
		Fetch:  meteo.Fetch,
		Cells:  cells,
		Signal: sig,
		Schedule: refresh.AnchoredInterval{
			Period:   cfg.WeatherPeriod,
			Offset:   cfg.WeatherOffset,
			Fallback: cfg.WeatherFallback,
		},
		RetryDelay: cfg.WeatherRetryDelay,
		Stats:      &stats.Weather,
		Log:        logger.Named("weather"),
	}
	go trips.Run(ctx)
	go weatherLoop.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:               "transit-display",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
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
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "transit-display",
		})
	})
	httpapi.RegisterRoutes(app, cells, watchdog, stats)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Errorw("Status API stopped", "error", err)
		}
	}()

	consumer := &refresh.Consumer{
		Cells:    cells,
		Signal:   sig,
		Renderer: renderer,
		MaxWait:  cfg.RenderMaxWait,
		Log:      logger.Named("render"),
	}
	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- consumer.Run(ctx)
	}()

	select {
	case err := <-consumerErr:
		if err != nil {
			fatal(err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorw("Error during shutdown", "error", err)
	}
}

func buildLogger(format string) (*zap.SugaredLogger, error) {
	var base *zap.Logger
	var err error

	if format == "json" {
		base, err = zap.NewProduction()
	} else {
		base, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return base.Sugar(), nil
}
