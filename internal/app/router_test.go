package app_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/plenario/plenario/internal/app"
	"github.com/plenario/plenario/internal/auth"
	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/billing"
	"github.com/plenario/plenario/internal/councils"
	"github.com/plenario/plenario/internal/matters"
	"github.com/plenario/plenario/internal/notifications"
	"github.com/plenario/plenario/internal/observability"
	"github.com/plenario/plenario/internal/sessions"
	"github.com/plenario/plenario/internal/shared"
	"github.com/plenario/plenario/internal/users"
)

type authRepoStub struct {
	byEmail map[string]*auth.User
	byID    map[string]*auth.User
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*auth.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *authRepoStub) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *authRepoStub) DeleteSession(ctx context.Context, id string) error { return nil }

func newTestRouter(t *testing.T, repo auth.Repository, processor *billing.ProcessorClient) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &app.Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second}
	sessionManager := shared.NewSessionManager(client, "plenario_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("router-test-secret")
	guard := authz.Guard{Logger: logger}

	authService := auth.NewService(repo)
	notifyService := notifications.NewService(logger, nil, nil, nil)

	return app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Guard:                guard,
		Identity:             &auth.IdentityResolver{Service: authService, Sessions: sessionManager, Logger: logger},
		Checker:              billing.NewService(logger, nil, nil, nil),
		Processor:            processor,
		AuthHandler:          auth.NewHandler(logger, authService, sessionManager, csrfManager),
		UsersHandler:         users.NewHandler(logger, users.NewService(nil), guard),
		CouncilsHandler:      councils.NewHandler(logger, councils.NewService(nil, nil), guard),
		SessionsHandler:      sessions.NewHandler(logger, sessions.NewService(nil, nil)),
		MattersHandler:       matters.NewHandler(logger, matters.NewService(nil)),
		BillingHandler:       billing.NewHandler(logger, billing.NewService(logger, nil, nil, nil)),
		NotificationsHandler: notifications.NewHandler(logger, notifyService),
		Metrics:              observability.NewMetrics(),
	})
}

// fetchCSRF primes a session the way the console does and returns the
// cookie plus the CSRF token for subsequent mutating requests.
func fetchCSRF(t *testing.T, router http.Handler) (*http.Cookie, string) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/csrf", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0], body.CSRFToken
}

func TestLookupByEmailRejectsAnonymousCallers(t *testing.T) {
	repo := &authRepoStub{byEmail: map[string]*auth.User{
		"ana@council.gov": {
			ID: "u1", Name: "Ana Prestes", Email: "ana@council.gov",
			Role: "PRESIDENT", CouncilID: "c1", IsActive: true,
		},
	}}
	router := newTestRouter(t, repo, nil)

	// A visitor can obtain a CSRF token without ever logging in; that must
	// not be enough to read identity records.
	cookie, token := fetchCSRF(t, router)

	r := httptest.NewRequest(http.MethodPost, "/users/by-email", strings.NewReader(`{"email":"ana@council.gov"}`))
	r.AddCookie(cookie)
	r.Header.Set(shared.CSRFHeader, token)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, authz.LoginPath, w.Header().Get("Location"))
	assert.NotContains(t, w.Body.String(), "PRESIDENT")
	assert.NotContains(t, w.Body.String(), "u1")
}

func TestLookupByEmailServesSignedInCallers(t *testing.T) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	ana := &auth.User{
		ID: "u1", Name: "Ana Prestes", Email: "ana@council.gov",
		PasswordHash: string(passwordHash), Role: "PRESIDENT", CouncilID: "c1", IsActive: true,
	}
	repo := &authRepoStub{
		byEmail: map[string]*auth.User{"ana@council.gov": ana},
		byID:    map[string]*auth.User{"u1": ana},
	}
	router := newTestRouter(t, repo, nil)
	cookie, token := fetchCSRF(t, router)

	login := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ana@council.gov","password":"correct-horse"}`))
	login.AddCookie(cookie)
	login.Header.Set(shared.CSRFHeader, token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, login)
	require.Equal(t, http.StatusOK, w.Code)

	r := httptest.NewRequest(http.MethodPost, "/users/by-email", strings.NewReader(`{"email":"ana@council.gov"}`))
	r.AddCookie(cookie)
	r.Header.Set(shared.CSRFHeader, token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var identity authz.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &identity))
	assert.Equal(t, authz.RolePresident, identity.Role)
	assert.Equal(t, "c1", identity.CouncilID())
}

func TestReadyzReportsProcessorHealth(t *testing.T) {
	router := newTestRouter(t, &authRepoStub{}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	router = newTestRouter(t, &authRepoStub{}, billing.NewProcessorClient(down.URL, ""))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}
