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

	"github.com/hibiken/asynq"

	"github.com/clubhouse/clubhouse/internal/app"
	"github.com/clubhouse/clubhouse/internal/auth"
	"github.com/clubhouse/clubhouse/internal/messages"
	"github.com/clubhouse/clubhouse/internal/observability"
	"github.com/clubhouse/clubhouse/internal/platform/cache"
	"github.com/clubhouse/clubhouse/internal/platform/db"
	"github.com/clubhouse/clubhouse/internal/shared"
	"github.com/clubhouse/clubhouse/internal/users"
	"github.com/clubhouse/clubhouse/internal/view"
	"github.com/clubhouse/clubhouse/jobs"
)

const sessionCookieName = "clubhouse_session"

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
	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("clubhouse", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer dbpool.Close()

	if err := db.Migrate(ctx, dbpool); err != nil {
		return err
	}

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, sessionCookieName, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	templates, err := view.NewEngine()
	if err != nil {
		return err
	}

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo, cfg.MembershipSecret)
	usersHandler := users.NewHandler(logger, userService, templates, csrfManager).WithMetrics(metrics)

	authService := auth.NewService(userRepo, auth.NewRepository(dbpool), auth.NewBcryptHasher(0))
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager).WithMetrics(metrics)

	messageService := messages.NewService(messages.NewRepository(dbpool))
	messagesHandler := messages.NewHandler(logger, messageService, templates, csrfManager).WithMetrics(metrics)

	inspector := asynq.NewInspector(cfg.Redis().AsynqOpt())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	// Sweep login records that expired while the process was down.
	jobClient, err := jobs.NewClient(cfg.Redis().AsynqOpt())
	if err != nil {
		return err
	}
	if _, err := jobClient.EnqueueSessionsPrune(ctx, 0); err != nil {
		logger.Warn("enqueue startup prune", slog.Any("error", err))
	}
	if err := jobClient.Close(); err != nil {
		logger.Warn("job client close", slog.Any("error", err))
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		UserFinder:      userRepo,
		AuthHandler:     authHandler,
		MessagesHandler: messagesHandler,
		UsersHandler:    usersHandler,
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return nil
}
