/**
 * @description
 * This is the main entry point for the reconciliation service. It is
 * responsible for initializing all components: configuration, the database
 * pool, the Redis rate limiter, the provider API client, the RabbitMQ
 * producer, the repository, the core reconciliation service, the scheduled
 * jobs, and the HTTP server. It wires everything together, starts the
 * monitoring loop, and handles graceful shutdown.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Distributed provider rate limiting.
 * - internal/api, internal/app, internal/config, internal/notify,
 *   internal/store: Internal packages for the service.
 * - pkg/logging, pkg/monobank, pkg/rabbitmq: Shared infrastructure clients.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/api"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/app"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/config"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/notify"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/store"
	"github.com/mykolasolodukha/vilnyypay-bot/pkg/logging"
	"github.com/mykolasolodukha/vilnyypay-bot/pkg/monobank"
	"github.com/mykolasolodukha/vilnyypay-bot/pkg/rabbitmq"
)

func main() {
	logger := logging.Setup()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if cfg.InternalJWTSecret == "" {
		logger.Error("internal jwt secret must be configured", "env", "INTERNAL_JWT_SECRET")
		os.Exit(1)
	}

	logger.Info("starting reconciliation service", "port", cfg.ServerPort)

	// Establish the PostgreSQL connection pool.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database url parse failed", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connected")

	if err := store.EnsureSchema(context.Background(), dbpool); err != nil {
		logger.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	// The provider allows one statement request per interval globally. With
	// Redis the reservation survives restarts and is shared across replicas;
	// without it a process-local limiter still paces a single instance.
	providerInterval := time.Duration(cfg.ProviderRequestIntervalSeconds) * time.Second
	var limiter app.ProviderRateLimiter
	if cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			logger.Error("redis url parse failed", "error", parseErr)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOptions)
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr := redisClient.Ping(pingCtx).Err()
		cancelPing()
		if pingErr != nil {
			logger.Warn("redis ping failed; falling back to local rate limiting", "error", pingErr)
			redisClient.Close()
			limiter = app.NewLocalRateLimiter(providerInterval)
		} else {
			defer redisClient.Close()
			logger.Info("redis connected")
			limiter = app.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix, providerInterval)
		}
	} else {
		logger.Warn("redis url missing; provider pacing is process-local", "env", "REDIS_URL")
		limiter = app.NewLocalRateLimiter(providerInterval)
	}

	// Initialize the RabbitMQ producer for paycheck events.
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("rabbitmq producer init failed", "error", err)
		os.Exit(1)
	}
	defer producer.Close()
	logger.Info("rabbitmq producer connected", "exchange", cfg.PaycheckEventExchange)

	bankClient := monobank.NewClient(cfg.MonobankAPIBaseURL)
	repository := store.NewPostgresRepository(dbpool)
	notifier := notify.NewAMQPNotifier(producer, cfg.PaycheckEventExchange)

	service := app.NewService(repository, bankClient, notifier, limiter, logger, app.Options{
		StatementWindowMonths: cfg.StatementWindowMonths,
		MonitorSleepMin:       time.Duration(cfg.MonitorSleepMinSeconds) * time.Second,
		MonitorSleepMax:       time.Duration(cfg.MonitorSleepMaxSeconds) * time.Second,
	})

	jobs := app.NewJobs(service, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg.BackfillSchedule, cfg.DueReminderSchedule)
	scheduler.Start()
	defer scheduler.Stop()

	handlers := api.NewHandlers(service, logger)
	router := api.NewRouter(handlers, cfg.InternalJWTSecret)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	// Run the reconciliation loop until shutdown. A persistence failure
	// returned by the loop is fatal: exiting loudly beats silently missing
	// incoming payments.
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	loopErr := make(chan error, 1)
	go func() {
		loopErr <- service.MonitorPaychecks(loopCtx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutdown started")
	case err := <-loopErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("reconciliation loop failed", "error", err)
			cancelLoop()
			os.Exit(1)
		}
	}

	cancelLoop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	// Let the loop finish its in-flight statement before exiting.
	select {
	case <-loopErr:
	case <-shutdownCtx.Done():
	}

	logger.Info("shutdown complete")
}
