package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/plenario/plenario/internal/jobs"
	"github.com/plenario/plenario/internal/notifications"
	"github.com/plenario/plenario/internal/sessions"
)

var metrics = jobmetrics.NewMetrics(nil)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeBillingSync refreshes subscription mirrors from the processor.
	TaskTypeBillingSync = "billing:sync"
	// TaskTypeSessionReminder fans out reminders for upcoming sessions.
	TaskTypeSessionReminder = "session:reminder"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// EmailSender delivers a single message. Implemented by SMTPMailer.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SendEmailHandler processes TaskTypeSendEmail tasks.
func SendEmailHandler(mailer EmailSender, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		track := metrics.Track("mail_send")
		if err := track.End(mailer.Send(ctx, payload.To, payload.Subject, payload.Body)); err != nil {
			logger.Warn("email delivery failed", "to", payload.To, "error", err)
			return err
		}
		return nil
	}
}

// NewBillingSyncTask constructs the periodic subscription sync task.
func NewBillingSyncTask() *asynq.Task {
	return asynq.NewTask(TaskTypeBillingSync, nil, asynq.Queue(QueueDefault))
}

// SubscriptionSyncer refreshes subscription mirrors. Implemented by the
// billing service.
type SubscriptionSyncer interface {
	SyncSubscriptions(ctx context.Context) (int, error)
}

// BillingSyncHandler processes TaskTypeBillingSync tasks.
func BillingSyncHandler(syncer SubscriptionSyncer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		track := metrics.Track("billing_sync")
		updated, err := syncer.SyncSubscriptions(ctx)
		_ = track.End(err)
		if err != nil {
			logger.Warn("subscription sync failed", "error", err)
			return err
		}
		logger.Info("subscription sync finished", "updated", updated)
		return nil
	}
}

// SessionReminderPayload carries the reminder window.
type SessionReminderPayload struct {
	WithinHours int `json:"within_hours"`
}

// NewSessionReminderTask constructs the periodic reminder task.
func NewSessionReminderTask(withinHours int) (*asynq.Task, error) {
	data, err := json.Marshal(SessionReminderPayload{WithinHours: withinHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSessionReminder, data, asynq.Queue(QueueDefault)), nil
}

// SessionReminderHandler processes TaskTypeSessionReminder tasks.
func SessionReminderHandler(repo sessions.RepositoryPort, notifier *notifications.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SessionReminderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.WithinHours <= 0 {
			payload.WithinHours = 24
		}
		track := metrics.Track("session_reminder")
		upcoming, err := repo.ListUpcoming(ctx, payload.WithinHours)
		_ = track.End(err)
		if err != nil {
			logger.Warn("session reminder lookup failed", "error", err)
			return err
		}
		for _, sess := range upcoming {
			notifier.SessionReminder(ctx, sess)
		}
		logger.Info("session reminders dispatched", "count", len(upcoming))
		return nil
	}
}
