package councils

import (
	"context"
	"strings"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Service handles council management rules.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns the global councils listing. Admin only; this is the admin
// landing page data source.
func (s *Service) List(ctx context.Context, subject authz.Identity, page, perPage int) ([]Council, shared.Pagination, error) {
	if !subject.IsAdmin() {
		return nil, shared.Pagination{}, shared.ErrForbidden
	}
	pagination := shared.NewPagination(page, perPage, 0)
	list, total, err := s.repo.List(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

// Get fetches a council the subject may read: admins read any, members read
// their own.
func (s *Service) Get(ctx context.Context, subject authz.Identity, id string) (*Council, error) {
	ok, err := authz.IsAllowed(subject, authz.ActionRead, authz.ResourceCouncil, &authz.Instance{ID: id, CouncilID: id})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new council. Admin only.
func (s *Service) Create(ctx context.Context, subject authz.Identity, input CouncilInput) (*Council, error) {
	if !subject.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	input = normalize(input)
	council, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.record(ctx, subject, "council.create", council.ID)
	return council, nil
}

// Update modifies a council. Admin only.
func (s *Service) Update(ctx context.Context, subject authz.Identity, id string, input CouncilInput) (*Council, error) {
	if !subject.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	council, err := s.repo.Update(ctx, id, normalize(input))
	if err != nil {
		return nil, err
	}
	s.record(ctx, subject, "council.update", council.ID)
	return council, nil
}

// Deactivate disables a council. Admin only.
func (s *Service) Deactivate(ctx context.Context, subject authz.Identity, id string) error {
	if !subject.IsAdmin() {
		return shared.ErrForbidden
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.record(ctx, subject, "council.deactivate", id)
	return nil
}

func (s *Service) record(ctx context.Context, subject authz.Identity, action, entityID string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: subject.ID, Action: action, Entity: "council", EntityID: entityID})
}

func normalize(input CouncilInput) CouncilInput {
	input.Name = strings.TrimSpace(input.Name)
	input.City = strings.TrimSpace(input.City)
	input.State = strings.ToUpper(strings.TrimSpace(input.State))
	return input
}
