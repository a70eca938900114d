package matters

import (
	"context"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Service handles legislative matter rules.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the matters of a council visible to the subject.
func (s *Service) List(ctx context.Context, subject authz.Identity, filter ListFilter, page, perPage int) ([]Matter, shared.Pagination, error) {
	ok, err := authz.IsAllowed(subject, authz.ActionRead, authz.ResourceMatter, &authz.Instance{CouncilID: filter.CouncilID})
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

// Get fetches a matter the subject may read.
func (s *Service) Get(ctx context.Context, subject authz.Identity, id string) (*Matter, error) {
	matter, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := authz.IsAllowed(subject, authz.ActionRead, authz.ResourceMatter, &authz.Instance{ID: matter.ID, CouncilID: matter.CouncilID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	return matter, nil
}

// Create files a new matter for a council.
func (s *Service) Create(ctx context.Context, subject authz.Identity, councilID string, input MatterInput) (*Matter, error) {
	ok, err := authz.IsAllowed(subject, authz.ActionCreate, authz.ResourceMatter, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	if !subject.IsAdmin() && subject.CouncilID() != councilID {
		return nil, shared.ErrForbidden
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, councilID, input)
}

// Update rewrites a matter the subject may edit.
func (s *Service) Update(ctx context.Context, subject authz.Identity, id string, input MatterInput) (*Matter, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := authz.IsAllowed(subject, authz.ActionUpdate, authz.ResourceMatter, &authz.Instance{ID: current.ID, CouncilID: current.CouncilID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, input)
}
