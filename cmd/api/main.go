// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

// Command api is the entry point for the Tasknest HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tasknest/tasknest/internal/api"
	"github.com/tasknest/tasknest/internal/platform/config"
	"github.com/tasknest/tasknest/internal/platform/constants"
	"github.com/tasknest/tasknest/internal/platform/migration"
	pgstore "github.com/tasknest/tasknest/internal/platform/postgres"
	redisstore "github.com/tasknest/tasknest/internal/platform/redis"
	"github.com/tasknest/tasknest/internal/platform/sec"
	"github.com/tasknest/tasknest/internal/tasks"
	"github.com/tasknest/tasknest/internal/users/account"
	"github.com/tasknest/tasknest/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security Primitives ────────────────────────────────────────────
	tokenCodec := sec.NewTokenCodec(
		cfg.JWTAccessSecret, cfg.JWTRefreshSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
		constants.AuthIssuer,
	)
	passwordHasher := sec.NewPasswordHasher(cfg.BcryptCost)

	// ── 7. Health Handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(log,
		api.DependencyCheck{Name: "postgres", Check: func() error {
			return pgstore.Ping(context.Background(), pool)
		}},
		api.DependencyCheck{Name: "redis", Check: func() error {
			return redisstore.Ping(context.Background(), rdb)
		}},
	)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)
	blacklist := auth.NewBlacklistStore(rdb)
	authService := auth.NewService(
		userRepository, sessionRepository, blacklist,
		tokenCodec, passwordHasher, cfg.TokenPepper, log,
	)
	authHandler := auth.NewHandler(authService)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	auth.StartSessionJanitor(appCtx, sessionRepository, time.Hour, log)

	accountRepository := account.NewAccountRepository(pool)
	accountService := account.NewService(
		accountRepository, sessionRepository,
		account.NewProfileCache(rdb), cfg.CacheTTL, log,
	)
	accountHandler := account.NewHandler(accountService)

	var notifier tasks.Notifier = tasks.NoopNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := tasks.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if cerr := kafkaNotifier.Close(); cerr != nil {
				log.Error("kafka close error", slog.Any("error", cerr))
			}
		}()
		notifier = kafkaNotifier
		log.Info("task_notifications_enabled", slog.String("topic", cfg.KafkaTopic))
	}

	taskRepository := tasks.NewPostgresTaskRepository(pool)
	taskService := tasks.NewService(
		taskRepository, tasks.NewListCache(rdb), notifier, cfg.CacheTTL, log,
	)
	taskHandler := tasks.NewHandler(taskService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Account:   accountHandler,
		Tasks:     taskHandler,
	}
	guards := api.Guards{
		Verifier:   tokenCodec,
		Blacklist:  blacklist,
		Principals: accountService,
	}

	server := api.NewServer(appCtx, cfg, log, guards, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
