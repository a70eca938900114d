package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Service handles user management rules. Every operation receives the
// acting identity explicitly and consults the capability table; the route
// guard narrows who reaches the handlers, the service is the last word.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns users visible to the subject. Admins see every account and
// may filter by council; everyone else is pinned to their own council.
func (s *Service) List(ctx context.Context, subject authz.Identity, councilID string, page, perPage int) ([]User, shared.Pagination, error) {
	if !subject.IsAdmin() {
		councilID = subject.CouncilID()
		ok, err := authz.IsAllowed(subject, authz.ActionRead, authz.ResourceUser, &authz.Instance{ID: subject.ID, CouncilID: councilID})
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		if !ok {
			return nil, shared.Pagination{}, shared.ErrForbidden
		}
	}
	pagination := shared.NewPagination(page, perPage, 0)
	list, total, err := s.repo.List(ctx, councilID, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page, perPage, total), nil
}

// Get fetches a user the subject is allowed to read.
func (s *Service) Get(ctx context.Context, subject authz.Identity, id string) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := authz.IsAllowed(subject, authz.ActionRead, authz.ResourceUser, &authz.Instance{ID: user.ID, CouncilID: user.CouncilID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	return user, nil
}

// Create registers a new account. Only admins hold the create grant.
func (s *Service) Create(ctx context.Context, subject authz.Identity, input CreateUserInput) (*User, error) {
	ok, err := authz.IsAllowed(subject, authz.ActionCreate, authz.ResourceUser, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	role, err := authz.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	if role != authz.RoleAdmin && input.CouncilID == "" {
		return nil, fmt.Errorf("%w: non-admin accounts need a council", authz.ErrMissingAffiliation)
	}
	if role == authz.RoleAdmin {
		input.CouncilID = ""
	}
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	input.Role = string(role)
	return s.repo.Create(ctx, input, string(hash))
}

// UpdateProfile changes profile fields. The capability row filter limits
// non-admins to their own record.
func (s *Service) UpdateProfile(ctx context.Context, subject authz.Identity, id string, input UpdateUserInput) (*User, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := authz.IsAllowed(subject, authz.ActionUpdate, authz.ResourceUser, &authz.Instance{ID: current.ID, CouncilID: current.CouncilID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrForbidden
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	return s.repo.UpdateProfile(ctx, id, input)
}

// AssignRole moves a user to a new role/council pair. Admin only.
func (s *Service) AssignRole(ctx context.Context, subject authz.Identity, id, roleValue, councilID string) (*User, error) {
	if !subject.IsAdmin() {
		return nil, shared.ErrForbidden
	}
	role, err := authz.ParseRole(roleValue)
	if err != nil {
		return nil, err
	}
	if role != authz.RoleAdmin && councilID == "" {
		return nil, fmt.Errorf("%w: non-admin accounts need a council", authz.ErrMissingAffiliation)
	}
	if role == authz.RoleAdmin {
		councilID = ""
	}
	return s.repo.AssignRole(ctx, id, string(role), councilID)
}

// Deactivate soft-deletes an account. The delete grant is self-scoped for
// non-admins, so members can close their own account and nothing else.
func (s *Service) Deactivate(ctx context.Context, subject authz.Identity, id string) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := authz.IsAllowed(subject, authz.ActionDelete, authz.ResourceUser, &authz.Instance{ID: current.ID, CouncilID: current.CouncilID})
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrForbidden
	}
	return s.repo.Deactivate(ctx, id)
}
