package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/expensetracker/internal/adapter/http"
	"github.com/iho/expensetracker/internal/adapter/http/handler"
	"github.com/iho/expensetracker/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/expensetracker/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/expensetracker/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/expensetracker/internal/adapter/repository/redis"
	sqliteRepo "github.com/iho/expensetracker/internal/adapter/repository/sqlite"
	"github.com/iho/expensetracker/internal/infrastructure/config"
	"github.com/iho/expensetracker/internal/infrastructure/eventpublisher"
	"github.com/iho/expensetracker/internal/infrastructure/logger"
	"github.com/iho/expensetracker/internal/infrastructure/metrics"
	"github.com/iho/expensetracker/internal/infrastructure/postgres"
	"github.com/iho/expensetracker/internal/infrastructure/redis"
	"github.com/iho/expensetracker/internal/infrastructure/sqlite"
	"github.com/iho/expensetracker/internal/usecase"
)

const limiterIdleTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	repo, closeRepo, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	m := metrics.New(prometheus.DefaultRegisterer)
	checks := map[string]handler.Pinger{"storage": repo}

	opts := []usecase.LedgerOption{
		usecase.WithMetrics(m),
		usecase.WithLogger(logger),
	}

	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		opts = append(opts, usecase.WithCache(redisRepo.NewCache(redisClient), cfg.CacheTTL))
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	sink, closeSink, err := openEventSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	dispatcher := eventpublisher.NewDispatcher(eventpublisher.Config{
		Sink:       sink,
		Logger:     logger,
		BufferSize: cfg.EventBufferSize,
		MaxRetries: 3,
	})
	opts = append(opts, usecase.WithPublisher(dispatcher, eventpublisher.NewULIDGenerator()))

	ledger := usecase.NewLedger(repo, opts...)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ExpenseHandler:     handler.NewExpenseHandler(ledger),
		HealthHandler:      handler.NewHealthHandler(checks),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Metrics:            m,
		MetricsHandler:     promhttp.Handler(),
		Logger:             logger,
		RateLimiter:        rateLimiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Start(gctx)
	})

	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if rateLimiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(limiterIdleTimeout)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					rateLimiter.CleanupLimiters(limiterIdleTimeout)
				}
			}
		})
	}

	return g.Wait()
}

// openStorage builds the expense repository selected by STORAGE_BACKEND.
func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (usecase.ExpenseRepository, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		logger.Warn().Msg("using in-memory storage, expenses are lost on restart")
		return memoryRepo.NewExpenseRepository(), func() {}, nil

	case config.StoragePostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			return nil, nil, err
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL: cfg.DatabaseURL,
			MaxConns:    cfg.DatabaseMaxConns,
			MinConns:    cfg.DatabaseMinConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		logger.Info().Msg("connected to postgres")

		return postgresRepo.NewExpenseRepository(pool, postgresRepo.NewRetrier(logger)), pool.Close, nil

	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite database")

		repo := sqliteRepo.NewExpenseRepository(db)
		return repo, func() { closeQuietly(logger, repo) }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, cfg.StorageBackend)
	}
}

// openEventSink returns the AMQP publisher when AMQP_URL is set and a log sink otherwise.
func openEventSink(cfg *config.Config, logger zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return eventpublisher.NewLogPublisher(logger), func() {}, nil
	}

	publisher, err := eventpublisher.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to amqp: %w", err)
	}
	logger.Info().Str("exchange", cfg.AMQPExchange).Msg("connected to amqp")

	return publisher, func() { closeQuietly(logger, publisher) }, nil
}

func closeQuietly(logger zerolog.Logger, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn().Err(err).Msg("close failed")
	}
}
