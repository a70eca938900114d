package sessions

import (
	"context"
	"fmt"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// ErrBadTransition indicates a lifecycle move the state machine forbids.
var ErrBadTransition = fmt.Errorf("invalid session status transition")

// Notifier fans out session lifecycle events. Implemented by the
// notifications service; nil disables fanout.
type Notifier interface {
	SessionScheduled(ctx context.Context, sess Session)
	SessionStatusChanged(ctx context.Context, sess Session)
}

// Service handles legislative session rules.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// List returns the sessions of a council visible to the subject.
func (s *Service) List(ctx context.Context, subject authz.Identity, filter ListFilter, page, perPage int) ([]Session, shared.Pagination, error) {
	ok, err := authz.IsAllowed(subject, authz.ActionRead, authz.ResourceSession, &authz.Instance{CouncilID: filter.CouncilID})
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if !ok {
		return nil, shared.Pagination{}, shared.ErrForbidden
	}
	pagination := shared.NewPagination(page, perPage, 0)
	filter.Limit = pagination.PerPage
	filter.Offset = pagination.Offset()
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

// Get fetches a session the subject may read.
func (s *Service) Get(ctx context.Context, subject authz.Identity, id string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := authz.IsAllowed(subject, authz.ActionRead, authz.ResourceSession, &authz.Instance{ID: sess.ID, CouncilID: sess.CouncilID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	return sess, nil
}

// Create schedules a new session for a council.
func (s *Service) Create(ctx context.Context, subject authz.Identity, councilID string, input SessionInput) (*Session, error) {
	if err := s.authorizeWrite(subject, authz.ActionCreate, councilID, ""); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	sess, err := s.repo.Create(ctx, councilID, input)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.SessionScheduled(ctx, *sess)
	}
	return sess, nil
}

// Update reschedules a session that has not started yet.
func (s *Service) Update(ctx context.Context, subject authz.Identity, id string, input SessionInput) (*Session, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(subject, authz.ActionUpdate, current.CouncilID, current.ID); err != nil {
		return nil, err
	}
	if current.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: only scheduled sessions can be edited", ErrBadTransition)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, input)
}

// Transition moves a session through its lifecycle.
func (s *Service) Transition(ctx context.Context, subject authz.Identity, id string, next Status) (*Session, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWrite(subject, authz.ActionUpdate, current.CouncilID, current.ID); err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, current.Status, next)
	}
	sess, err := s.repo.SetStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.SessionStatusChanged(ctx, *sess)
	}
	return sess, nil
}

func (s *Service) authorizeWrite(subject authz.Identity, action authz.Action, councilID, sessionID string) error {
	var instance *authz.Instance
	if action != authz.ActionCreate {
		instance = &authz.Instance{ID: sessionID, CouncilID: councilID}
	}
	ok, err := authz.IsAllowed(subject, action, authz.ResourceSession, instance)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrForbidden
	}
	// Create carries no row to filter, so pin non-admin writers to their
	// own council here.
	if action == authz.ActionCreate && !subject.IsAdmin() && subject.CouncilID() != councilID {
		return shared.ErrForbidden
	}
	return nil
}
