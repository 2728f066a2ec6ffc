package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/gowallet/internal/adapter/http"
	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gowallet/internal/adapter/repository/redis"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/eventpublisher"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = appLogger.WithContext(ctx)

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Redis backs the balance cache, idempotency keys and the event stream.
	// The service runs without it.
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL, redis.WithPoolSize(cfg.RedisPoolSize))
		if err != nil {
			appLogger.Warn().Err(err).Msg("redis unavailable, continuing without cache and idempotency")
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLogger.Info().Msg("connected to redis")
		}
	}

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	var outboxRepo usecase.OutboxRepository = postgresRepo.NewNullOutboxRepository()
	if cfg.OutboxEnabled {
		outboxRepo = postgresRepo.NewOutboxRepository(pool)
	}
	retrier := postgresRepo.NewRetrier().
		WithLimits(cfg.RetryMaxAttempts, cfg.RetryInitialInterval, cfg.RetryMaxInterval).
		WithMetrics(m)
	idGen := postgresRepo.NewUUIDGenerator()
	refGen := postgresRepo.NewULIDGenerator()

	var balanceCache usecase.BalanceCache
	var idempotencyStore usecase.IdempotencyStore
	if redisClient != nil {
		balanceCache = redisRepo.NewBalanceCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	jwtManager := auth.NewJWTManager(tokenSecret(cfg), cfg.JWTExpiration)

	// Initialize use cases
	transferUC := usecase.NewTransferUseCase(txManager, walletRepo, transactionRepo, outboxRepo, retrier, idGen, refGen, balanceCache, m)
	balanceUC := usecase.NewBalanceUseCase(txManager, walletRepo, transactionRepo, outboxRepo, retrier, idGen, balanceCache, cfg.BalanceCacheTTL, m)
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, userRepo, outboxRepo, idGen, balanceCache, m)
	userUC := usecase.NewUserUseCase(txManager, userRepo, walletRepo, outboxRepo, idGen, jwtManager, m).
		WithPasswordCost(cfg.BcryptCost)
	transactionUC := usecase.NewTransactionQueryUseCase(transactionRepo, walletRepo, userRepo)
	reconciliationUC := usecase.NewReconciliationUseCase(walletRepo, transactionRepo)

	validator, err := validation.New()
	if err != nil {
		return err
	}
	pipelines := usecase.NewPipelines(validator, transferUC, balanceUC, walletUC, userUC, transactionUC, reconciliationUC)

	routerCfg := httpAdapter.RouterConfig{
		TransferHandler:  handler.NewTransferHandler(pipelines),
		WalletHandler:    handler.NewWalletHandler(pipelines),
		UserHandler:      handler.NewUserHandler(pipelines),
		AuthHandler:      handler.NewAuthHandler(pipelines),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		Logger:           appLogger,
		Metrics:          m,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		AllowedOrigins:   cfg.CORSAllowedOrigins,
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = jwtManager
	}
	if cfg.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
		go limiter.RunCleanup(ctx, 10*time.Minute, 30*time.Minute)
		routerCfg.RateLimiter = limiter
	}

	// Outbox publisher
	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  newEventSink(cfg, redisClient, appLogger),
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		go publisher.Start(ctx)
	}

	server := &http.Server{
		Addr:         listenAddr(cfg),
		Handler:      httpAdapter.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", server.Addr).Bool("auth", cfg.AuthEnabled).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	appLogger.Info().Msg("server stopped")
	return nil
}

func listenAddr(cfg *config.Config) string {
	return ":" + cfg.HTTPPort
}

// tokenSecret returns the configured signing key. With auth disabled a
// random per-process key still lets login issue tokens.
func tokenSecret(cfg *config.Config) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	return postgresRepo.NewUUIDGenerator().Generate()
}

// newEventSink picks the Redis stream when one is configured and reachable,
// otherwise events are logged.
func newEventSink(cfg *config.Config, client *goredis.Client, l zerolog.Logger) eventpublisher.Publisher {
	if cfg.EventStream != "" && client != nil {
		return eventpublisher.NewRedisStreamPublisher(client, cfg.EventStream, cfg.EventStreamMaxLen)
	}
	return eventpublisher.NewLogPublisher(l)
}
