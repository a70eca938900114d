package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
	"github.com/plenario/plenario/internal/users"
)

type stubRepo struct {
	users.RepositoryPort
	byID         map[string]*users.User
	created      *users.CreateUserInput
	createdHash  string
	assignedRole string
	deactivated  []string
	listCouncil  string
	updated      *users.UpdateUserInput
}

func (s *stubRepo) List(ctx context.Context, councilID string, limit, offset int) ([]users.User, int, error) {
	s.listCouncil = councilID
	return nil, 0, nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (*users.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, input users.CreateUserInput, passwordHash string) (*users.User, error) {
	s.created = &input
	s.createdHash = passwordHash
	return &users.User{ID: "new", Name: input.Name, Email: input.Email, Role: input.Role, CouncilID: input.CouncilID}, nil
}

func (s *stubRepo) AssignRole(ctx context.Context, id, role, councilID string) (*users.User, error) {
	s.assignedRole = role
	return &users.User{ID: id, Role: role, CouncilID: councilID}, nil
}

func (s *stubRepo) UpdateProfile(ctx context.Context, id string, input users.UpdateUserInput) (*users.User, error) {
	s.updated = &input
	return s.byID[id], nil
}

func (s *stubRepo) Deactivate(ctx context.Context, id string) error {
	s.deactivated = append(s.deactivated, id)
	return nil
}

var (
	admin     = authz.Identity{ID: "adm", Role: authz.RoleAdmin}
	secretary = authz.Identity{ID: "sec", Role: authz.RoleSecretary, Council: &authz.Council{ID: "c1"}}
)

func TestCreateHashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := &stubRepo{}
	svc := users.NewService(repo)

	_, err := svc.Create(context.Background(), admin, users.CreateUserInput{
		Name:      "  Ana Prestes ",
		Email:     " Ana@Council.GOV ",
		Password:  "long-enough-pass",
		Role:      "president",
		CouncilID: "c1",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "ana@council.gov", repo.created.Email)
	assert.Equal(t, "Ana Prestes", repo.created.Name)
	assert.Equal(t, "PRESIDENT", repo.created.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.createdHash), []byte("long-enough-pass")))
}

func TestCreateRejectsNonAdmins(t *testing.T) {
	svc := users.NewService(&stubRepo{})

	_, err := svc.Create(context.Background(), secretary, users.CreateUserInput{
		Name: "X", Email: "x@c.gov", Password: "password", Role: "COUNCILOR", CouncilID: "c1",
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreateNonAdminRoleNeedsCouncil(t *testing.T) {
	svc := users.NewService(&stubRepo{})

	_, err := svc.Create(context.Background(), admin, users.CreateUserInput{
		Name: "X", Email: "x@c.gov", Password: "password", Role: "COUNCILOR",
	})
	assert.ErrorIs(t, err, authz.ErrMissingAffiliation)
}

func TestCreateUnknownRoleFailsLoudly(t *testing.T) {
	svc := users.NewService(&stubRepo{})

	_, err := svc.Create(context.Background(), admin, users.CreateUserInput{
		Name: "X", Email: "x@c.gov", Password: "password", Role: "SUPERVISOR", CouncilID: "c1",
	})
	assert.ErrorIs(t, err, authz.ErrInvalidRole)
}

func TestListPinsMembersToOwnCouncil(t *testing.T) {
	repo := &stubRepo{}
	svc := users.NewService(repo)

	_, _, err := svc.List(context.Background(), secretary, "c-other", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "c1", repo.listCouncil, "non-admin listing ignores the council filter")

	_, _, err = svc.List(context.Background(), admin, "c-other", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "c-other", repo.listCouncil)
}

func TestUpdateProfileSelfOnly(t *testing.T) {
	repo := &stubRepo{byID: map[string]*users.User{
		"sec":   {ID: "sec", CouncilID: "c1"},
		"other": {ID: "other", CouncilID: "c1"},
	}}
	svc := users.NewService(repo)

	name := "New Name"
	_, err := svc.UpdateProfile(context.Background(), secretary, "other", users.UpdateUserInput{Name: &name})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.UpdateProfile(context.Background(), secretary, "sec", users.UpdateUserInput{Name: &name})
	assert.NoError(t, err)
}

func TestDeactivateSelfScopedForMembers(t *testing.T) {
	repo := &stubRepo{byID: map[string]*users.User{
		"sec":   {ID: "sec", CouncilID: "c1"},
		"other": {ID: "other", CouncilID: "c1"},
	}}
	svc := users.NewService(repo)

	assert.ErrorIs(t, svc.Deactivate(context.Background(), secretary, "other"), shared.ErrForbidden)
	assert.NoError(t, svc.Deactivate(context.Background(), secretary, "sec"))
	assert.NoError(t, svc.Deactivate(context.Background(), admin, "other"))
	assert.Equal(t, []string{"sec", "other"}, repo.deactivated)
}

func TestAssignRoleAdminOnly(t *testing.T) {
	repo := &stubRepo{}
	svc := users.NewService(repo)

	_, err := svc.AssignRole(context.Background(), secretary, "other", "PRESIDENT", "c1")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	user, err := svc.AssignRole(context.Background(), admin, "other", "PRESIDENT", "c1")
	require.NoError(t, err)
	assert.Equal(t, "PRESIDENT", user.Role)

	_, err = svc.AssignRole(context.Background(), admin, "other", "PRESIDENT", "")
	assert.ErrorIs(t, err, authz.ErrMissingAffiliation)
}

func TestUpdateProfileTrimsName(t *testing.T) {
	repo := &stubRepo{byID: map[string]*users.User{"sec": {ID: "sec", CouncilID: "c1"}}}
	svc := users.NewService(repo)

	name := "  Trimmed  "
	_, err := svc.UpdateProfile(context.Background(), secretary, "sec", users.UpdateUserInput{Name: &name})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, "Trimmed", *repo.updated.Name)
}
