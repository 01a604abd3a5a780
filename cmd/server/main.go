package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/urjalabs/solatlas/internal/adapter/cache"
	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/adapter/http/fiber/handlers"
	"github.com/urjalabs/solatlas/internal/adapter/http/fiber/middleware"
	"github.com/urjalabs/solatlas/internal/adapter/queue"
	"github.com/urjalabs/solatlas/internal/adapter/storage/postgres"
	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/observability/telemetry"
	"github.com/urjalabs/solatlas/internal/pipeline"
	"github.com/urjalabs/solatlas/internal/ports"
	"github.com/urjalabs/solatlas/internal/service/health"
	"github.com/urjalabs/solatlas/internal/service/home"
	"github.com/urjalabs/solatlas/pkg/config"
)

const serviceName = "solatlas-api"

func main() {
	// 1. Parse flags and load configuration
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize logger
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting solatlas API server",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Initialize OpenTelemetry tracing (optional)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version, cfg.OpenTelemetry.JaegerEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Load the scored artifact into the estimate service. A missing
	// artifact is not fatal: the pipeline may simply not have run yet.
	artifact := file.NewArtifact(cfg.Paths.ArtifactFile, logger)
	homeService := home.NewService(artifact, cfg.Home.CoverageMarginKM, logger)
	if err := homeService.Reload(context.Background()); err != nil {
		logger.Warn("No scored artifact loaded, estimates unavailable until a pipeline run completes", zap.Error(err))
	}

	// 5. Scored table reader: Postgres mirror when enabled, artifact file otherwise
	var results ports.ZoneResultReader = file.NewZoneResults(artifact, logger)
	var sqlDB *sql.DB
	if cfg.Database.Enabled {
		db, err := postgres.NewConnection(cfg.Database, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		sqlDB, err = db.DB()
		if err != nil {
			logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
		}
		defer sqlDB.Close()

		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				logger.Fatal("Failed to run migrations", zap.Error(err))
			}
		}
		results = postgres.NewZoneResultRepository(db, logger)
	}

	// 6. Load the zone partition for label and centroid joins
	var zones []domain.Zone
	if loaded, err := file.NewZonesGeoJSON(cfg.Paths.ZonesFile, logger).Load(context.Background()); err != nil {
		logger.Warn("Failed to load zone partition, scored rows will carry no labels", zap.Error(err))
	} else {
		zones = loaded
	}

	// 7. Initialize the estimate cache
	estimateCache, err := cache.New(cfg.Cache, cfg.Redis.URL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer estimateCache.Close()

	// 8. Subscribe to artifact updates (optional). A reload bumps the
	// snapshot version, which retires every cached estimate key.
	messageQueue, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	queueURL := ""
	if messageQueue != nil {
		defer messageQueue.Close()
		queueURL = cfg.Queue.URL

		err := messageQueue.Subscribe(ports.SubjectArtifactUpdated, func(data []byte) error {
			var event pipeline.ArtifactEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return fmt.Errorf("decoding artifact event: %w", err)
			}
			logger.Info("Artifact updated, reloading snapshot", zap.String("run_id", event.RunID))
			return homeService.Reload(context.Background())
		})
		if err != nil {
			logger.Fatal("Failed to subscribe to artifact updates", zap.Error(err))
		}
	}

	// 9. Health service
	healthService := health.NewService(&health.Config{
		Version:  cfg.App.Version,
		DB:       sqlDB,
		Cache:    estimateCache,
		QueueURL: queueURL,
		Home:     homeService,
	}, logger)

	// 10. Initialize Fiber HTTP server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}

	health.NewFiberHandler(healthService).RegisterRoutes(app)

	if cfg.Prometheus.Enabled {
		metricsPath := cfg.Prometheus.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		app.Get(metricsPath, func(c *fiber.Ctx) error {
			handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
			handler(c.Context())
			return nil
		})
	}

	// 11. API v1 routes
	v1 := app.Group("/api/v1")
	if cfg.CircuitBreaker.Enabled {
		v1.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, logger))
	}

	zonesHandler := handlers.NewZonesHandler(zones, results, logger)
	v1.Get("/zones", zonesHandler.List)
	v1.Get("/zones/:id", zonesHandler.Get)

	estimateHandler := handlers.NewEstimateHandler(
		homeService,
		estimateCache,
		cfg.Home.ReferenceCapacityKW,
		cfg.Cache.EstimateTTL,
		logger,
	)
	v1.Get("/estimate", estimateHandler.Estimate)

	reportHandler := handlers.NewReportHandler(file.NewReportStore(cfg.Paths.ReportsDir, logger), logger)
	v1.Get("/report", reportHandler.Get)

	// 12. Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 13. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}
