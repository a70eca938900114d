package shared_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenario/plenario/internal/shared"
)

func TestCSRFTokenRoundTrip(t *testing.T) {
	csrf := shared.NewCSRFManager("test-secret")
	sess := &shared.Session{ID: "sess-1"}

	token, err := csrf.EnsureToken(sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Issuing again returns the same token for the session lifetime.
	again, err := csrf.EnsureToken(sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(sess, "forged"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(sess, ""), shared.ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(nil, token), shared.ErrCSRFTokenMissing)
}

func TestPageFromRequestClampsInput(t *testing.T) {
	r := httptest.NewRequest("GET", "/users?page=-3&perPage=9999", nil)
	page, perPage := shared.PageFromRequest(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, perPage)

	r = httptest.NewRequest("GET", "/users", nil)
	page, perPage = shared.PageFromRequest(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, perPage)
}

func TestPaginationOffset(t *testing.T) {
	p := shared.NewPagination(3, 20, 45)
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 3, p.TotalPages)
}
