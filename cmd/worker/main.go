package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/plenario/plenario/internal/app"
	"github.com/plenario/plenario/internal/billing"
	"github.com/plenario/plenario/internal/notifications"
	"github.com/plenario/plenario/internal/platform/cache"
	"github.com/plenario/plenario/internal/platform/db"
	"github.com/plenario/plenario/internal/sessions"
	"github.com/plenario/plenario/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	mailer := jobs.NewSMTPMailer(jobs.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
	}, logger)

	billingRepo := billing.NewRepository(pool)
	billingCache := billing.NewCheckCache(redisClient, cfg.SubscriptionCacheTTL)
	processor := billing.NewProcessorClient(cfg.ProcessorURL, cfg.ProcessorToken)
	billingService := billing.NewService(logger, billingRepo, billingCache, processor)

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

	notifyRepo := notifications.NewRepository(pool)
	notifyHub := notifications.NewHub(redisClient)
	notifyService := notifications.NewService(logger, notifyRepo, notifyHub, jobClient)

	sessionsRepo := sessions.NewRepository(pool)

	reminderTask, err := jobs.NewSessionReminderTask(24)
	if err != nil {
		logger.Error("build reminder task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: jobs.SendEmailHandler(mailer, logger)},
			{Type: jobs.TaskTypeBillingSync, Handler: jobs.BillingSyncHandler(billingService, logger)},
			{Type: jobs.TaskTypeSessionReminder, Handler: jobs.SessionReminderHandler(sessionsRepo, notifyService, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: jobs.NewBillingSyncTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 7 * * *", Task: reminderTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
