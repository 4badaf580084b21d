package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/jonboulle/clockwork"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/config"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/database"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/eventbus"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/logging"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/observability"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/repository"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/routes"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/services"
	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/triage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	stdout := logging.Setup(cfg.LogLevel)

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))
	logger := slog.Default()

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Triage pipeline
	reportRepo := repository.NewReports(database.DB)
	analysisRepo := repository.NewAnalyses(database.DB)
	notificationRepo := repository.NewNotifications(database.DB)
	adminDirectory := repository.NewAdmins(database.DB, config.ParseCSV(cfg.AdminUserIDs), config.ParseCSV(cfg.AdminEmails))

	states := triage.NewStateMachine(reportRepo, clock, logger)
	notifier := triage.NewNotifier(adminDirectory, notificationRepo, triage.NotifierConfig{
		Parallelism:  cfg.FanoutParallelism,
		WriteTimeout: cfg.NotificationWriteTimeout,
	}, clock, logger, metrics)
	trigger := triage.NewTrigger(reportRepo, analysisRepo, states, notifier, cfg.NotifyMinScore, clock, logger, metrics)
	triageService := triage.NewService(reportRepo, analysisRepo, adminDirectory, states, clock, logger, metrics)

	// Event delivery: Kafka when enabled, otherwise the in-process queue.
	runCtx, stopRun := context.WithCancel(context.Background())
	var (
		publisher   services.EventPublisher
		shutdownBus func(ctx context.Context)
		eventsMode  string
	)
	if cfg.KafkaEnabled {
		eventsMode = "kafka"
		kafkaPublisher := eventbus.NewPublisher(cfg, logger)
		consumer := eventbus.NewConsumer(cfg, trigger, logger, metrics)
		consumerDone := make(chan struct{})
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(runCtx); err != nil {
				slog.Error("report consumer stopped", "error", err)
			}
		}()
		publisher = kafkaPublisher
		shutdownBus = func(ctx context.Context) {
			stopRun()
			select {
			case <-consumerDone:
			case <-ctx.Done():
				slog.Warn("report consumer did not stop in time")
			}
			if err := consumer.Close(); err != nil {
				slog.Error("kafka reader close error", "error", err)
			}
			if err := kafkaPublisher.Close(); err != nil {
				slog.Error("kafka writer close error", "error", err)
			}
		}
	} else {
		eventsMode = "in-process"
		queue := triage.NewQueue(trigger, triage.QueueConfig{
			Workers: cfg.TriageWorkers,
			Size:    cfg.TriageQueueSize,
			Timeout: cfg.TriageTimeout,
		}, logger, metrics)
		queue.Start(runCtx)
		publisher = queue
		shutdownBus = func(ctx context.Context) {
			if err := queue.Stop(ctx); err != nil {
				slog.Error("triage queue did not drain", "error", err)
			}
			stopRun()
		}
	}
	slog.Info("event delivery configured", "mode", eventsMode)

	reportService := services.NewReportService(reportRepo, publisher, logger)

	// Handlers
	healthHandler := handlers.NewHealthHandler(database.Ping, eventsMode)
	reportHandler := handlers.NewReportHandler(reportService, triageService)
	analysisHandler := handlers.NewAnalysisHandler(triageService)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogContext())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, adminDirectory, healthHandler, reportHandler, analysisHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Stop accepting reports first, then let in-flight triage finish.
	if err := app.ShutdownWithContext(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	shutdownBus(ctx)

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
