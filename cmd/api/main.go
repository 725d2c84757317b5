package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/vintnerlabs/bop-tracker/internal/config"
	"github.com/vintnerlabs/bop-tracker/internal/handler"
	"github.com/vintnerlabs/bop-tracker/internal/infra/postgresql"
	"github.com/vintnerlabs/bop-tracker/internal/infra/postgresql/migrations"
	infraredis "github.com/vintnerlabs/bop-tracker/internal/infra/redis"
	"github.com/vintnerlabs/bop-tracker/internal/observability"
	"github.com/vintnerlabs/bop-tracker/internal/provider"
	"github.com/vintnerlabs/bop-tracker/internal/queue"
	"github.com/vintnerlabs/bop-tracker/internal/repository"
	"github.com/vintnerlabs/bop-tracker/internal/schedule"
	"github.com/vintnerlabs/bop-tracker/internal/service"
	"github.com/vintnerlabs/bop-tracker/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("bop-tracker api exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	calendar, err := schedule.NewCalendar(cfg.BusinessTimezone)
	if err != nil {
		return fmt.Errorf("calendar initialization failed: %w", err)
	}

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	rmq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer rmq.Close()

	metrics := observability.NewMetrics()

	batchRepo := repository.NewGormBatchRepo(db)
	wineryRepo := repository.NewGormWineryRepo(db)
	reminderRepo := repository.NewGormReminderRepo(db)
	attemptRepo := repository.NewGormReminderAttemptRepo(db)

	publisher := queue.NewRabbitMQPublisher(rmq)
	consumer := queue.NewRabbitMQConsumer(rmq, cfg.WorkerConcurrency, logger)

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	emailProvider, err := provider.NewWebhookEmailProvider(cfg.ReminderWebhookURL)
	if err != nil {
		return fmt.Errorf("webhook provider initialization failed: %w", err)
	}

	batchService, err := service.NewBatchService(batchRepo, wineryRepo, calendar, logger)
	if err != nil {
		return fmt.Errorf("batch service initialization failed: %w", err)
	}
	batchService.SetMetrics(metrics)

	wineryService, err := service.NewWineryService(wineryRepo, logger)
	if err != nil {
		return fmt.Errorf("winery service initialization failed: %w", err)
	}

	taskService, err := service.NewTaskService(batchRepo, calendar, logger)
	if err != nil {
		return fmt.Errorf("task service initialization failed: %w", err)
	}
	taskService.SetMetrics(metrics)

	scanInterval := time.Duration(cfg.ReminderScanIntervalSec) * time.Second
	reminderScanner, err := service.NewReminderScanner(
		batchRepo, reminderRepo, publisher, calendar, scanInterval, cfg.ReminderScanLimit, logger,
	)
	if err != nil {
		return fmt.Errorf("reminder scanner initialization failed: %w", err)
	}

	retryScanner, err := service.NewRetryScanner(reminderRepo, publisher, 0, cfg.ReminderScanLimit, logger)
	if err != nil {
		return fmt.Errorf("retry scanner initialization failed: %w", err)
	}

	reminderWorker, err := service.NewReminderWorker(
		reminderRepo, attemptRepo, batchRepo, wineryRepo,
		consumer, emailProvider, rateLimiter, cfg.WorkerConcurrency, logger,
	)
	if err != nil {
		return fmt.Errorf("reminder worker initialization failed: %w", err)
	}
	reminderWorker.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		AppName:      "bop-tracker",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterWineryRoutes(app, wineryService); err != nil {
		return fmt.Errorf("winery routes registration failed: %w", err)
	}
	if err := handler.RegisterBatchRoutes(app, batchService, calendar); err != nil {
		return fmt.Errorf("batch routes registration failed: %w", err)
	}
	if err := handler.RegisterTaskRoutes(app, taskService, calendar); err != nil {
		return fmt.Errorf("task routes registration failed: %w", err)
	}

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("bop-tracker api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down http server")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	g.Go(func() error {
		return reminderScanner.Start(groupCtx)
	})

	g.Go(func() error {
		return retryScanner.Start(groupCtx)
	})

	g.Go(func() error {
		return reminderWorker.Start(groupCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("bop-tracker api stopped")
	return nil
}
