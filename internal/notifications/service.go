package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/sessions"
	"github.com/plenario/plenario/internal/shared"
)

// Mailer hands transactional email off to the job queue. Implemented by the
// jobs client; nil disables email fanout.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Service handles the notification feed and fanout.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	hub    *Hub
	mailer Mailer
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, hub *Hub, mailer Mailer) *Service {
	return &Service{logger: logger, repo: repo, hub: hub, mailer: mailer}
}

// ListForUser returns the subject's own feed.
func (s *Service) ListForUser(ctx context.Context, subject authz.Identity, page, perPage int) ([]Notification, shared.Pagination, error) {
	pagination := shared.NewPagination(page, perPage, 0)
	list, total, err := s.repo.ListForUser(ctx, subject.ID, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

// MarkRead stamps one entry of the subject's feed.
func (s *Service) MarkRead(ctx context.Context, subject authz.Identity, id string) error {
	ok, err := authz.IsAllowed(subject, authz.ActionUpdate, authz.ResourceNotification, &authz.Instance{ID: subject.ID})
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrForbidden
	}
	return s.repo.MarkRead(ctx, subject.ID, id)
}

// StreamEvents subscribes the subject to their council's live channel and
// invokes fn per event until ctx is cancelled. Admins have no single council
// to stream.
func (s *Service) StreamEvents(ctx context.Context, subject authz.Identity, fn func(Event)) error {
	councilID := subject.CouncilID()
	if councilID == "" {
		return authz.ErrMissingAffiliation
	}
	return s.hub.Listen(ctx, councilID, fn)
}

// MarkAllRead stamps the subject's entire feed.
func (s *Service) MarkAllRead(ctx context.Context, subject authz.Identity) error {
	return s.repo.MarkAllRead(ctx, subject.ID)
}

// SessionScheduled fans out a new sitting to the council's members.
func (s *Service) SessionScheduled(ctx context.Context, sess sessions.Session) {
	title := fmt.Sprintf("Session #%d scheduled", sess.Number)
	body := fmt.Sprintf("A %s session was scheduled for %s.",
		sess.Kind, sess.ScheduledAt.Format("02 Jan 2006 15:04"))
	s.fanout(ctx, sess.CouncilID, KindSessionScheduled, title, body)
}

// SessionStatusChanged fans out a lifecycle move to the council's members.
func (s *Service) SessionStatusChanged(ctx context.Context, sess sessions.Session) {
	title := fmt.Sprintf("Session #%d is now %s", sess.Number, sess.Status)
	body := fmt.Sprintf("Session #%d changed status to %s.", sess.Number, sess.Status)
	s.fanout(ctx, sess.CouncilID, KindSessionStatus, title, body)
}

// SessionReminder fans out an upcoming-sitting reminder. Called by the cron
// worker shortly before the scheduled time.
func (s *Service) SessionReminder(ctx context.Context, sess sessions.Session) {
	title := fmt.Sprintf("Session #%d starts soon", sess.Number)
	body := fmt.Sprintf("Session #%d is scheduled for %s.",
		sess.Number, sess.ScheduledAt.Format("02 Jan 2006 15:04"))
	s.fanout(ctx, sess.CouncilID, KindSessionReminder, title, body)
}

// fanout persists the feed entries, pings the live channel, and queues email
// for members who opted in. Failures are logged, never surfaced to the caller:
// notification delivery must not fail the triggering operation.
func (s *Service) fanout(ctx context.Context, councilID string, kind Kind, title, body string) {
	recipients, err := s.repo.CouncilRecipients(ctx, councilID)
	if err != nil {
		s.logger.Warn("notification fanout failed to resolve recipients",
			"council_id", councilID, "error", err)
		return
	}
	items := make([]Notification, 0, len(recipients))
	for _, rec := range recipients {
		items = append(items, Notification{
			UserID:    rec.ID,
			CouncilID: councilID,
			Kind:      kind,
			Title:     title,
			Body:      body,
		})
	}
	if err := s.repo.InsertBatch(ctx, items); err != nil {
		s.logger.Warn("notification fanout failed to persist",
			"council_id", councilID, "error", err)
		return
	}
	if err := s.hub.Publish(ctx, councilID, Event{Kind: kind, Title: title}); err != nil {
		s.logger.Warn("notification fanout failed to publish", "error", err)
	}
	if s.mailer == nil {
		return
	}
	for _, rec := range recipients {
		if !rec.AcceptNotifications {
			continue
		}
		if err := s.mailer.SendEmail(ctx, rec.Email, title, body); err != nil {
			s.logger.Warn("notification email enqueue failed",
				"user_id", rec.ID, "error", err)
		}
	}
}

var _ sessions.Notifier = (*Service)(nil)
