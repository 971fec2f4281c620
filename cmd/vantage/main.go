package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vantage-hq/vantage/internal/app"
	"github.com/vantage-hq/vantage/internal/auth"
	"github.com/vantage-hq/vantage/internal/authz"
	"github.com/vantage-hq/vantage/internal/dashboard"
	"github.com/vantage-hq/vantage/internal/observability"
	"github.com/vantage-hq/vantage/internal/permissions"
	"github.com/vantage-hq/vantage/internal/platform/cache"
	"github.com/vantage-hq/vantage/internal/platform/db"
	"github.com/vantage-hq/vantage/internal/platform/httpx"
	"github.com/vantage-hq/vantage/internal/roles"
	"github.com/vantage-hq/vantage/internal/shared"
	"github.com/vantage-hq/vantage/internal/users"
	"github.com/vantage-hq/vantage/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "vantage_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	validator := httpx.NewValidator()
	if err := validator.RegisterSlugValidation(); err != nil {
		logger.Error("register validations", slog.Any("error", err))
		os.Exit(1)
	}

	gateStore := authz.NewPGStore(dbpool, logger)
	evaluator := authz.NewEvaluator(gateStore)
	gate := authz.Middleware{Evaluator: evaluator, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, validator, gate)

	queue, err := jobs.NewClient(asynqRedisOpt(cfg), logger)
	if err != nil {
		logger.Error("connect queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo, evaluator)
	rolesHandler := roles.NewHandler(logger, rolesService, validator, gate)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, queue, users.PasswordPolicy{Production: cfg.IsProduction()}, logger)
	usersHandler := users.NewHandler(logger, usersService, validator, gate)

	permissionsRepo := permissions.NewRepository(dbpool)
	permissionsHandler := permissions.NewHandler(logger, permissionsRepo, gate)

	dashboardHandler := dashboard.NewHandler(logger, dbpool, gate)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		AuthHandler:        authHandler,
		DashboardHandler:   dashboardHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func asynqRedisOpt(cfg *app.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr}
}

