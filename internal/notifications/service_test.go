package notifications_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/notifications"
	"github.com/plenario/plenario/internal/sessions"
)

type stubRepo struct {
	recipients []notifications.Recipient
	inserted   []notifications.Notification
	read       []string
}

func (s *stubRepo) InsertBatch(ctx context.Context, items []notifications.Notification) error {
	s.inserted = append(s.inserted, items...)
	return nil
}

func (s *stubRepo) ListForUser(ctx context.Context, userID string, limit, offset int) ([]notifications.Notification, int, error) {
	var out []notifications.Notification
	for _, n := range s.inserted {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (s *stubRepo) MarkRead(ctx context.Context, userID, id string) error {
	s.read = append(s.read, id)
	return nil
}

func (s *stubRepo) MarkAllRead(ctx context.Context, userID string) error { return nil }

func (s *stubRepo) CouncilRecipients(ctx context.Context, councilID string) ([]notifications.Recipient, error) {
	return s.recipients, nil
}

type stubMailer struct {
	sent []string
}

func (s *stubMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	s.sent = append(s.sent, to)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionScheduledFansOutToCouncil(t *testing.T) {
	repo := &stubRepo{recipients: []notifications.Recipient{
		{ID: "u1", Email: "p@c.gov", AcceptNotifications: true},
		{ID: "u2", Email: "s@c.gov", AcceptNotifications: false},
		{ID: "u3", Email: "c@c.gov", AcceptNotifications: true},
	}}
	mailer := &stubMailer{}
	svc := notifications.NewService(testLogger(), repo, nil, mailer)

	svc.SessionScheduled(context.Background(), sessions.Session{
		ID:          "s1",
		CouncilID:   "c1",
		Number:      7,
		Kind:        sessions.KindOrdinary,
		ScheduledAt: time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC),
	})

	require.Len(t, repo.inserted, 3, "every member gets a feed entry")
	assert.Equal(t, notifications.KindSessionScheduled, repo.inserted[0].Kind)
	assert.Equal(t, "c1", repo.inserted[0].CouncilID)

	assert.Equal(t, []string{"p@c.gov", "c@c.gov"}, mailer.sent, "opted-out members get no email")
}

func TestSessionStatusChangedUsesStatusKind(t *testing.T) {
	repo := &stubRepo{recipients: []notifications.Recipient{{ID: "u1", Email: "p@c.gov"}}}
	svc := notifications.NewService(testLogger(), repo, nil, nil)

	svc.SessionStatusChanged(context.Background(), sessions.Session{
		CouncilID: "c1", Number: 7, Status: sessions.StatusOpen,
	})

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, notifications.KindSessionStatus, repo.inserted[0].Kind)
	assert.Contains(t, repo.inserted[0].Title, "OPEN")
}

func TestListForUserReturnsOwnFeedOnly(t *testing.T) {
	repo := &stubRepo{}
	svc := notifications.NewService(testLogger(), repo, nil, nil)
	repo.inserted = []notifications.Notification{
		{ID: "n1", UserID: "u1"},
		{ID: "n2", UserID: "u2"},
	}

	subject := authz.Identity{ID: "u1", Role: authz.RoleCouncilor, Council: &authz.Council{ID: "c1"}}
	list, pagination, err := svc.ListForUser(context.Background(), subject, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)
	assert.Equal(t, 1, pagination.Total)
}

func TestStreamEventsRequiresCouncil(t *testing.T) {
	svc := notifications.NewService(testLogger(), &stubRepo{}, nil, nil)

	admin := authz.Identity{ID: "adm", Role: authz.RoleAdmin}
	err := svc.StreamEvents(context.Background(), admin, func(notifications.Event) {})
	assert.ErrorIs(t, err, authz.ErrMissingAffiliation)

	member := authz.Identity{ID: "u1", Role: authz.RoleCouncilor, Council: &authz.Council{ID: "c1"}}
	assert.NoError(t, svc.StreamEvents(context.Background(), member, func(notifications.Event) {}),
		"nil hub subscribes as a no-op")
}

func TestMarkReadChecksCapability(t *testing.T) {
	repo := &stubRepo{}
	svc := notifications.NewService(testLogger(), repo, nil, nil)

	subject := authz.Identity{ID: "u1", Role: authz.RoleAssistant, Council: &authz.Council{ID: "c1"}}
	require.NoError(t, svc.MarkRead(context.Background(), subject, "n1"))
	assert.Equal(t, []string{"n1"}, repo.read)

	invalid := authz.Identity{ID: "u9", Role: authz.Role("GHOST")}
	err := svc.MarkRead(context.Background(), invalid, "n1")
	assert.ErrorIs(t, err, authz.ErrInvalidRole)
}
