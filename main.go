package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"orderconsole/internal/config"
	"orderconsole/internal/handlers"
	"orderconsole/internal/middleware"
	"orderconsole/internal/repositories"
	"orderconsole/internal/services"
	"orderconsole/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	v, err := config.New(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg, err := config.Server(v)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	baseLogger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	appLogger := baseLogger.WithField("component", "orders-api")

	// --- Storage ---
	orderRepo, closeRepo, err := openRepository(cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("failed to open order storage")
	}
	defer closeRepo()

	// --- RabbitMQ (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqLogger := baseLogger.WithField("component", "rabbitmq")
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Logger: mqLogger})
		if err != nil {
			appLogger.WithError(err).Warn("RabbitMQ unavailable, order events disabled")
		} else {
			defer mqClient.Close()
			publisher = mqClient
			if err := mqClient.ConsumeOrderEvents(rabbitmq.LogOrderEvent(mqLogger)); err != nil {
				appLogger.WithError(err).Warn("failed to start order event consumer")
			}
		}
	} else {
		appLogger.Info("RABBITMQ_URL not set, order events disabled")
	}

	// --- Services and HTTP ---
	orderService := services.NewOrderService(orderRepo, publisher, appLogger)
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app := NewApp(orderService, registry, appLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLogger.WithField("addr", cfg.Port).Info("starting server")
		if err := app.Listen(cfg.Port); err != nil {
			appLogger.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	appLogger.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.WithError(err).Error("error during Fiber shutdown")
	}
	appLogger.Info("server gracefully stopped")
}

// NewApp wires the order routes, health check and metrics into a Fiber app.
func NewApp(orderService *services.OrderService, registry *prometheus.Registry, appLogger *log.Entry) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "orders-api",
		ErrorHandler: jsonErrorHandler,
	})

	httpMetrics := middleware.NewHTTPMetrics(registry)
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:request_id} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(httpMetrics.Handler())

	app.Get("/healthcheck", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  fiber.StatusOK,
			"message": "Healthy",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	handlers.NewOrderHandler(orderService, appLogger).RegisterRoutes(app)
	return app
}

// jsonErrorHandler answers unhandled errors, such as unknown routes, with a
// {"message": ...} body.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"message": err.Error(),
	})
}

// openRepository returns the order repository selected by cfg and a function
// releasing it.
func openRepository(cfg config.ServerConfig, appLogger *log.Entry) (repositories.OrderRepository, func(), error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		appLogger.Info("using in-memory order storage")
		return repositories.NewMockOrderRepository(), func() {}, nil
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access database handle: %w", err)
	}

	repo := repositories.NewGORMOrderRepository(db)
	if err := repo.Migrate(); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	appLogger.WithField("driver", cfg.DatabaseDriver).Info("order storage ready")
	return repo, func() {
		if err := sqlDB.Close(); err != nil {
			appLogger.WithError(err).Warn("error closing database")
		}
	}, nil
}
