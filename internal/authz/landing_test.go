package authz_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenario/plenario/internal/authz"
)

func TestLandingPathAdminIgnoresCouncil(t *testing.T) {
	path, err := authz.LandingPath(authz.RoleAdmin, "")
	require.NoError(t, err)
	assert.Equal(t, "/councils", path)

	// A stray council id on an admin identity changes nothing.
	path, err = authz.LandingPath(authz.RoleAdmin, "org-123")
	require.NoError(t, err)
	assert.Equal(t, "/councils", path)
}

func TestLandingPathScopedToCouncil(t *testing.T) {
	path, err := authz.LandingPath(authz.RoleCouncilor, "org-123")
	require.NoError(t, err)
	assert.Equal(t, "/councils/org-123/sessions", path)
	assert.Contains(t, path, "org-123")
}

func TestLandingPathMissingAffiliation(t *testing.T) {
	for _, role := range []authz.Role{authz.RolePresident, authz.RoleSecretary, authz.RoleCouncilor, authz.RoleAssistant} {
		path, err := authz.LandingPath(role, "")
		require.ErrorIs(t, err, authz.ErrMissingAffiliation, "role %s", role)
		assert.Empty(t, path)
		assert.False(t, strings.Contains(path, "undefined"))
	}
}

func TestLandingPathInvalidRole(t *testing.T) {
	_, err := authz.LandingPath(authz.Role("INTERN"), "c1")
	require.ErrorIs(t, err, authz.ErrInvalidRole)
}
