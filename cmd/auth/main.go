// Package main реализует точку входа службы аутентификации.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	authhttp "estatehub/internal/auth/adapters/http"
	"estatehub/internal/auth/adapters/http/auth"
	"estatehub/internal/auth/adapters/memory"
	"estatehub/internal/auth/adapters/postgres"
	"estatehub/internal/auth/adapters/ratelimit"
	"estatehub/internal/auth/adapters/services"
	"estatehub/internal/auth/app"
	"estatehub/internal/auth/config"
	"estatehub/internal/auth/db"
	"estatehub/internal/auth/ports/repositories"
	portservices "estatehub/internal/auth/ports/services"
	"estatehub/pkg/db/redis"
	"estatehub/pkg/logger"
	"estatehub/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "AUTH_LOGGER_MODE"
	EnvLoggerLevel = "AUTH_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitStore            = "failed to initialize account store"
	ErrInitLimiter          = "failed to initialize rate limiter"
	ErrStartHTTPServer      = "failed to start HTTP server"
	ErrShutdown             = "graceful shutdown finished with errors"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "authentication service started"
	LogServiceShutdownDone = "authentication service shutdown complete"
	LogClosingDB           = "closing database connections"
	LogClosingRedis        = "closing redis connection"
	LogStoppingHTTP        = "stopping HTTP server"
	LogInitRepo            = "initializing repositories"
	LogInitServices        = "initializing services"
	LogInitUseCases        = "initializing use cases"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogMemoryStore         = "using in-memory account store, data is lost on restart"
	LogRateLimitDisabled   = "rate limiting disabled"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == string(logger.Production) {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		if err := run(ctx); err != nil {
			logger.Log(ctx).Error(ctx, "authentication service failed", zap.Error(err))
			exitCode = 1
		}
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrLoadConfig, err)
	}

	finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrInitLoggerWithConfig, err)
	}
	logger.SetGlobalLogger(finalLogger)
	log := finalLogger

	log.Info(ctx, LogServiceStarted,
		zap.String("environment", string(cfg.Logging.GetEnvironment())),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("startup_time", time.Now().Format(time.RFC3339)))

	var hooks []shutdown.Hook

	log.Info(ctx, LogInitRepo)
	accounts, health, closeStore, err := newAccountStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrInitStore, err)
	}
	if closeStore != nil {
		hooks = append(hooks, closeStore)
	}

	limiter, closeLimiter, err := newRateLimiter(ctx, cfg)
	if err != nil {
		runHooks(ctx, cfg.Shutdown.Timeout, hooks)
		return fmt.Errorf("%s: %w", ErrInitLimiter, err)
	}
	if closeLimiter != nil {
		hooks = append(hooks, closeLimiter)
	}

	log.Info(ctx, LogInitServices)
	serviceFactory := services.NewServiceFactory(services.JWTConfig{
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTokenTTL,
		RefreshTTL:    cfg.JWT.RefreshTokenTTL,
		Leeway:        cfg.JWT.Leeway,
		Issuer:        cfg.JWT.Issuer,
	}, cfg.JWT.BCryptCost)
	tokenService := serviceFactory.TokenService()

	log.Info(ctx, LogInitUseCases)
	authUseCase := app.NewAuthUseCase(accounts, serviceFactory.PasswordService(), tokenService)
	accountUseCase := app.NewAccountUseCase(accounts)

	log.Info(ctx, LogInitHTTPServer)
	server := authhttp.NewApp(authhttp.ServerConfig{
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	})
	authhttp.SetupRouter(server, authhttp.Dependencies{
		Auth:     authUseCase,
		Accounts: accountUseCase,
		Tokens:   tokenService,
		Limiter:  limiter,
		Cookie: auth.CookieConfig{
			Secure: cfg.HTTP.CookieSecure,
			Domain: cfg.HTTP.CookieDomain,
		},
		Health: health,
	})

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
	go func() {
		if err := server.Listen(cfg.HTTP.GetAddress(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			stop()
		}
	}()

	hooks = append(hooks, func(ctx context.Context) error {
		log.Info(ctx, LogStoppingHTTP)
		return server.ShutdownWithContext(ctx)
	})

	if err := shutdown.Wait(serveCtx, cfg.Shutdown.Timeout, hooks...); err != nil {
		log.Error(ctx, ErrShutdown, zap.Error(err))
	}

	log.Info(ctx, LogServiceShutdownDone)
	return nil
}

func newAccountStore(ctx context.Context, cfg *config.Config) (repositories.AccountRepository, func(context.Context) error, shutdown.Hook, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Log(ctx).Warn(ctx, LogMemoryStore)
		return memory.NewAccountRepository(), nil, nil, nil
	}

	database, err := db.New(ctx, &cfg.Postgres)
	if err != nil {
		return nil, nil, nil, err
	}

	closeDB := func(ctx context.Context) error {
		logger.Log(ctx).Info(ctx, LogClosingDB)
		database.Close(ctx)
		return nil
	}
	return postgres.NewRepositoryFactory(database.Pool()).AccountRepository(), database.Ping, closeDB, nil
}

func newRateLimiter(ctx context.Context, cfg *config.Config) (portservices.RateLimiter, shutdown.Hook, error) {
	rl := cfg.RateLimit
	if !rl.Enabled {
		logger.Log(ctx).Info(ctx, LogRateLimitDisabled)
		return nil, nil, nil
	}
	if rl.Driver == config.RateLimitDriverMemory {
		return ratelimit.NewMemoryLimiter(rl.Limit, rl.Window), nil, nil
	}

	client, err := redis.NewClient(ctx, cfg.Redis.Client())
	if err != nil {
		return nil, nil, err
	}

	closeRedis := func(ctx context.Context) error {
		logger.Log(ctx).Info(ctx, LogClosingRedis)
		return client.Close(ctx)
	}
	breaker := ratelimit.NewBreaker(ratelimit.BreakerConfig{
		FailureThreshold: rl.BreakerThreshold,
		Cooldown:         rl.BreakerCooldown,
		SuccessThreshold: 2,
	})
	limiter := ratelimit.NewFallbackLimiter(
		ratelimit.NewRedisLimiter(client.Raw(), rl.Limit, rl.Window, rl.Prefix),
		ratelimit.NewMemoryLimiter(rl.Limit, rl.Window),
		breaker,
	)
	return limiter, closeRedis, nil
}

func runHooks(ctx context.Context, timeout time.Duration, hooks []shutdown.Hook) {
	if err := shutdown.Run(timeout, hooks...); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log(ctx).Error(ctx, ErrShutdown, zap.Error(err))
	}
}
