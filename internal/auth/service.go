package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// IdentityByID resolves the identity for a stored session user id. An
// unknown role in the row propagates ErrInvalidRole rather than a deny.
func (s *Service) IdentityByID(ctx context.Context, id string) (authz.Identity, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return authz.Identity{}, err
	}
	return identityOf(user)
}

// IdentityByEmail resolves an identity record by email, backing the
// console's by-email lookup.
func (s *Service) IdentityByEmail(ctx context.Context, email string) (authz.Identity, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return authz.Identity{}, err
	}
	return identityOf(user)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

func identityOf(user *User) (authz.Identity, error) {
	role, err := authz.ParseRole(user.Role)
	if err != nil {
		return authz.Identity{}, err
	}
	identity := authz.Identity{
		ID:                  user.ID,
		Name:                user.Name,
		Email:               user.Email,
		Role:                role,
		AvatarURL:           user.AvatarURL,
		AcceptNotifications: user.AcceptNotifications,
	}
	if user.CouncilID != "" {
		identity.Council = &authz.Council{ID: user.CouncilID, Name: user.CouncilName}
	}
	return identity, nil
}
