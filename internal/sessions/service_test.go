package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/sessions"
	"github.com/plenario/plenario/internal/shared"
)

type stubRepo struct {
	sessions.RepositoryPort
	byID    map[string]*sessions.Session
	created *sessions.Session
	status  sessions.Status
}

func (s *stubRepo) Get(ctx context.Context, id string) (*sessions.Session, error) {
	if sess, ok := s.byID[id]; ok {
		return sess, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, councilID string, input sessions.SessionInput) (*sessions.Session, error) {
	s.created = &sessions.Session{
		ID:          "s-new",
		CouncilID:   councilID,
		Number:      input.Number,
		Kind:        input.Kind,
		Status:      sessions.StatusScheduled,
		ScheduledAt: input.ScheduledAt,
	}
	return s.created, nil
}

func (s *stubRepo) SetStatus(ctx context.Context, id string, status sessions.Status) (*sessions.Session, error) {
	sess := *s.byID[id]
	sess.Status = status
	s.status = status
	return &sess, nil
}

type recordingNotifier struct {
	scheduled []sessions.Session
	changed   []sessions.Session
}

func (n *recordingNotifier) SessionScheduled(ctx context.Context, sess sessions.Session) {
	n.scheduled = append(n.scheduled, sess)
}

func (n *recordingNotifier) SessionStatusChanged(ctx context.Context, sess sessions.Session) {
	n.changed = append(n.changed, sess)
}

var (
	president = authz.Identity{ID: "pres", Role: authz.RolePresident, Council: &authz.Council{ID: "c1"}}
	councilor = authz.Identity{ID: "coun", Role: authz.RoleCouncilor, Council: &authz.Council{ID: "c1"}}
)

func validInput() sessions.SessionInput {
	return sessions.SessionInput{
		Number:      12,
		Kind:        sessions.KindOrdinary,
		ScheduledAt: time.Date(2026, 9, 15, 19, 0, 0, 0, time.UTC),
	}
}

func TestCreateNotifiesCouncil(t *testing.T) {
	repo := &stubRepo{}
	notifier := &recordingNotifier{}
	svc := sessions.NewService(repo, notifier)

	sess, err := svc.Create(context.Background(), president, "c1", validInput())
	require.NoError(t, err)
	assert.Equal(t, sessions.StatusScheduled, sess.Status)
	require.Len(t, notifier.scheduled, 1)
	assert.Equal(t, "s-new", notifier.scheduled[0].ID)
}

func TestCreatePinnedToOwnCouncil(t *testing.T) {
	svc := sessions.NewService(&stubRepo{}, nil)

	_, err := svc.Create(context.Background(), president, "c-other", validInput())
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreateCouncilorForbidden(t *testing.T) {
	svc := sessions.NewService(&stubRepo{}, nil)

	_, err := svc.Create(context.Background(), councilor, "c1", validInput())
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := sessions.NewService(&stubRepo{}, nil)

	input := validInput()
	input.Kind = "PLENARY"
	_, err := svc.Create(context.Background(), president, "c1", input)
	assert.Error(t, err)
}

func TestTransitionLifecycle(t *testing.T) {
	cases := []struct {
		name string
		from sessions.Status
		to   sessions.Status
		ok   bool
	}{
		{"open a scheduled session", sessions.StatusScheduled, sessions.StatusOpen, true},
		{"cancel a scheduled session", sessions.StatusScheduled, sessions.StatusCancelled, true},
		{"close an open session", sessions.StatusOpen, sessions.StatusClosed, true},
		{"close a scheduled session", sessions.StatusScheduled, sessions.StatusClosed, false},
		{"reopen a closed session", sessions.StatusClosed, sessions.StatusOpen, false},
		{"cancel an open session", sessions.StatusOpen, sessions.StatusCancelled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubRepo{byID: map[string]*sessions.Session{
				"s1": {ID: "s1", CouncilID: "c1", Number: 3, Status: tc.from},
			}}
			svc := sessions.NewService(repo, nil)

			sess, err := svc.Transition(context.Background(), president, "s1", tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, sess.Status)
			} else {
				assert.ErrorIs(t, err, sessions.ErrBadTransition)
			}
		})
	}
}

func TestTransitionNotifies(t *testing.T) {
	repo := &stubRepo{byID: map[string]*sessions.Session{
		"s1": {ID: "s1", CouncilID: "c1", Number: 3, Status: sessions.StatusScheduled},
	}}
	notifier := &recordingNotifier{}
	svc := sessions.NewService(repo, notifier)

	_, err := svc.Transition(context.Background(), president, "s1", sessions.StatusOpen)
	require.NoError(t, err)
	require.Len(t, notifier.changed, 1)
	assert.Equal(t, sessions.StatusOpen, notifier.changed[0].Status)
}

func TestUpdateOnlyWhileScheduled(t *testing.T) {
	repo := &stubRepo{byID: map[string]*sessions.Session{
		"s1": {ID: "s1", CouncilID: "c1", Status: sessions.StatusOpen},
	}}
	svc := sessions.NewService(repo, nil)

	_, err := svc.Update(context.Background(), president, "s1", validInput())
	assert.ErrorIs(t, err, sessions.ErrBadTransition)
}

func TestGetScopedToCouncil(t *testing.T) {
	repo := &stubRepo{byID: map[string]*sessions.Session{
		"s1": {ID: "s1", CouncilID: "c-other", Status: sessions.StatusScheduled},
	}}
	svc := sessions.NewService(repo, nil)

	_, err := svc.Get(context.Background(), councilor, "s1")
	assert.ErrorIs(t, err, shared.ErrForbidden)
}
