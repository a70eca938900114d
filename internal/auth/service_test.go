package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/plenario/plenario/internal/auth"
	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

type stubRepo struct {
	byEmail map[string]*auth.User
	byID    map[string]*auth.User
	findErr error
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error { return nil }

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthenticate(t *testing.T) {
	repo := &stubRepo{byEmail: map[string]*auth.User{
		"ana@council.gov": {
			ID:           "u1",
			Email:        "ana@council.gov",
			PasswordHash: hash(t, "correct-horse"),
			Role:         "PRESIDENT",
			IsActive:     true,
		},
		"off@council.gov": {
			ID:           "u2",
			Email:        "off@council.gov",
			PasswordHash: hash(t, "correct-horse"),
			Role:         "COUNCILOR",
			IsActive:     false,
		},
	}}
	svc := auth.NewService(repo)

	user, err := svc.Authenticate(context.Background(), "ana@council.gov", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = svc.Authenticate(context.Background(), "ana@council.gov", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@council.gov", "correct-horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// Deactivated accounts fail the same way as bad passwords.
	_, err = svc.Authenticate(context.Background(), "off@council.gov", "correct-horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestIdentityByIDMapsCouncil(t *testing.T) {
	repo := &stubRepo{byID: map[string]*auth.User{
		"u1": {
			ID:          "u1",
			Name:        "Ana Prestes",
			Email:       "ana@council.gov",
			Role:        "SECRETARY",
			CouncilID:   "c1",
			CouncilName: "Câmara de Vista Alegre",
			IsActive:    true,
		},
		"adm": {ID: "adm", Role: "ADMIN", IsActive: true},
	}}
	svc := auth.NewService(repo)

	identity, err := svc.IdentityByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleSecretary, identity.Role)
	require.NotNil(t, identity.Council)
	assert.Equal(t, "c1", identity.Council.ID)
	assert.Equal(t, "Câmara de Vista Alegre", identity.Council.Name)

	admin, err := svc.IdentityByID(context.Background(), "adm")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.Nil(t, admin.Council)
}

func TestIdentityByIDUnknownRoleFailsLoudly(t *testing.T) {
	repo := &stubRepo{byID: map[string]*auth.User{
		"u1": {ID: "u1", Role: "SUPERVISOR", IsActive: true},
	}}
	svc := auth.NewService(repo)

	_, err := svc.IdentityByID(context.Background(), "u1")
	assert.ErrorIs(t, err, authz.ErrInvalidRole)
}
