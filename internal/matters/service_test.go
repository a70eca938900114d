package matters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/matters"
	"github.com/plenario/plenario/internal/shared"
)

type stubRepo struct {
	matters.RepositoryPort
	byID    map[string]*matters.Matter
	filter  matters.ListFilter
	created *matters.MatterInput
}

func (s *stubRepo) List(ctx context.Context, filter matters.ListFilter) ([]matters.Matter, int, error) {
	s.filter = filter
	return nil, 0, nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (*matters.Matter, error) {
	if m, ok := s.byID[id]; ok {
		return m, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) Create(ctx context.Context, councilID string, input matters.MatterInput) (*matters.Matter, error) {
	s.created = &input
	return &matters.Matter{ID: "m-new", CouncilID: councilID, Code: input.Code, Title: input.Title}, nil
}

func (s *stubRepo) Update(ctx context.Context, id string, input matters.MatterInput) (*matters.Matter, error) {
	m := *s.byID[id]
	m.Title = input.Title
	return &m, nil
}

var (
	secretary = authz.Identity{ID: "sec", Role: authz.RoleSecretary, Council: &authz.Council{ID: "c1"}}
	assistant = authz.Identity{ID: "ast", Role: authz.RoleAssistant, Council: &authz.Council{ID: "c1"}}
)

func TestListScopedToCouncil(t *testing.T) {
	repo := &stubRepo{}
	svc := matters.NewService(repo)

	_, _, err := svc.List(context.Background(), secretary, matters.ListFilter{CouncilID: "c1"}, 1, 20)
	require.NoError(t, err)

	_, _, err = svc.List(context.Background(), secretary, matters.ListFilter{CouncilID: "c-other"}, 1, 20)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreatePinnedToOwnCouncil(t *testing.T) {
	repo := &stubRepo{}
	svc := matters.NewService(repo)
	input := matters.MatterInput{Code: "PL-002/2026", Title: "Public transport fares"}

	matter, err := svc.Create(context.Background(), secretary, "c1", input)
	require.NoError(t, err)
	assert.Equal(t, "c1", matter.CouncilID)

	_, err = svc.Create(context.Background(), secretary, "c-other", input)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreateAssistantForbidden(t *testing.T) {
	svc := matters.NewService(&stubRepo{})

	_, err := svc.Create(context.Background(), assistant, "c1", matters.MatterInput{Code: "PL-003/2026", Title: "X"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateCrossCouncilForbidden(t *testing.T) {
	repo := &stubRepo{byID: map[string]*matters.Matter{
		"m1": {ID: "m1", CouncilID: "c-other", Code: "PL-004/2026", Title: "Old"},
	}}
	svc := matters.NewService(repo)

	_, err := svc.Update(context.Background(), secretary, "m1", matters.MatterInput{Code: "PL-004/2026", Title: "New"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateValidatesInput(t *testing.T) {
	repo := &stubRepo{byID: map[string]*matters.Matter{
		"m1": {ID: "m1", CouncilID: "c1", Code: "PL-004/2026", Title: "Old"},
	}}
	svc := matters.NewService(repo)

	_, err := svc.Update(context.Background(), secretary, "m1", matters.MatterInput{Code: "", Title: "New"})
	assert.Error(t, err)

	matter, err := svc.Update(context.Background(), secretary, "m1", matters.MatterInput{Code: "PL-004/2026", Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", matter.Title)
}
