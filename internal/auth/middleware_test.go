package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenario/plenario/internal/auth"
	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

func testResolver(t *testing.T, repo auth.Repository) (*auth.IdentityResolver, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := shared.NewSessionManager(client, "plenario_session", time.Hour, false)
	resolver := &auth.IdentityResolver{
		Service:  auth.NewService(repo),
		Sessions: sessions,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return resolver, sessions
}

// requestWithSession builds a session the way the session middleware would
// and returns a request carrying it in context.
func requestWithSession(t *testing.T, sessions *shared.SessionManager, userID string) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/councils", nil))
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
	}
	r := httptest.NewRequest(http.MethodGet, "/councils", nil)
	return r.WithContext(shared.ContextWithSession(r.Context(), sess)), sess
}

func TestMiddlewarePassesThroughWithoutSessionUser(t *testing.T) {
	resolver, sessions := testResolver(t, &stubRepo{})

	var sawIdentity bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawIdentity = authz.IdentityFromContext(r.Context())
	})

	// No session at all.
	w := httptest.NewRecorder()
	resolver.Middleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/councils", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sawIdentity)

	// Session without a signed-in user.
	r, _ := requestWithSession(t, sessions, "")
	w = httptest.NewRecorder()
	resolver.Middleware(next).ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sawIdentity)
}

func TestMiddlewareResolvesIdentity(t *testing.T) {
	repo := &stubRepo{byID: map[string]*auth.User{
		"u1": {ID: "u1", Name: "Ana", Role: "PRESIDENT", CouncilID: "c1", IsActive: true},
	}}
	resolver, sessions := testResolver(t, repo)

	var got authz.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authz.IdentityFromContext(r.Context())
		require.True(t, ok)
		got = identity
	})

	r, _ := requestWithSession(t, sessions, "u1")
	w := httptest.NewRecorder()
	resolver.Middleware(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, authz.RolePresident, got.Role)
	assert.Equal(t, "c1", got.CouncilID())
}

func TestMiddlewareSignsOutOnLookupFailure(t *testing.T) {
	resolver, sessions := testResolver(t, &stubRepo{findErr: errors.New("connection refused")})

	var sawIdentity bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawIdentity = authz.IdentityFromContext(r.Context())
	})

	r, sess := requestWithSession(t, sessions, "gone")
	w := httptest.NewRecorder()
	resolver.Middleware(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code, "request proceeds unauthenticated")
	assert.False(t, sawIdentity)

	// The destroyed session clears its cookie on commit.
	require.NoError(t, sessions.Commit(context.Background(), w, sess))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "plenario_session", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestMiddlewareInvalidRoleIsServerError(t *testing.T) {
	repo := &stubRepo{byID: map[string]*auth.User{
		"u1": {ID: "u1", Role: "SUPERVISOR", IsActive: true},
	}}
	resolver, sessions := testResolver(t, repo)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a corrupt identity")
	})

	r, _ := requestWithSession(t, sessions, "u1")
	w := httptest.NewRecorder()
	resolver.Middleware(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
