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
	"golang.org/x/sync/errgroup"

	"github.com/plenario/plenario/internal/app"
	"github.com/plenario/plenario/internal/auth"
	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/billing"
	"github.com/plenario/plenario/internal/councils"
	"github.com/plenario/plenario/internal/matters"
	"github.com/plenario/plenario/internal/notifications"
	"github.com/plenario/plenario/internal/observability"
	"github.com/plenario/plenario/internal/platform/cache"
	"github.com/plenario/plenario/internal/platform/db"
	"github.com/plenario/plenario/internal/sessions"
	"github.com/plenario/plenario/internal/shared"
	"github.com/plenario/plenario/internal/users"
	"github.com/plenario/plenario/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "plenario_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)
	identityResolver := &auth.IdentityResolver{Service: authService, Sessions: sessionManager, Logger: logger}

	guard := authz.Guard{Logger: logger, Metrics: metrics}
	auditLogger := shared.NewAuditLogger(dbpool)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	notifyRepo := notifications.NewRepository(dbpool)
	notifyHub := notifications.NewHub(redisClient)
	notifyService := notifications.NewService(logger, notifyRepo, notifyHub, jobClient)
	notifyHandler := notifications.NewHandler(logger, notifyService)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, guard)

	councilsRepo := councils.NewRepository(dbpool)
	councilsService := councils.NewService(councilsRepo, auditLogger)
	councilsHandler := councils.NewHandler(logger, councilsService, guard)

	sessionsRepo := sessions.NewRepository(dbpool)
	sessionsService := sessions.NewService(sessionsRepo, notifyService)
	sessionsHandler := sessions.NewHandler(logger, sessionsService)

	mattersRepo := matters.NewRepository(dbpool)
	mattersService := matters.NewService(mattersRepo)
	mattersHandler := matters.NewHandler(logger, mattersService)

	billingRepo := billing.NewRepository(dbpool)
	billingCache := billing.NewCheckCache(redisClient, cfg.SubscriptionCacheTTL)
	processor := billing.NewProcessorClient(cfg.ProcessorURL, cfg.ProcessorToken)
	billingService := billing.NewService(logger, billingRepo, billingCache, processor)
	billingHandler := billing.NewHandler(logger, billingService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Guard:                guard,
		Identity:             identityResolver,
		Checker:              billingService,
		Processor:            processor,
		AuthHandler:          authHandler,
		UsersHandler:         usersHandler,
		CouncilsHandler:      councilsHandler,
		SessionsHandler:      sessionsHandler,
		MattersHandler:       mattersHandler,
		BillingHandler:       billingHandler,
		NotificationsHandler: notifyHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
