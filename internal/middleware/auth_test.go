package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-api/internal/model"
	"hospital-api/internal/token"
)

type fakeAccounts struct {
	users map[string]model.User
}

func (f *fakeAccounts) FindByID(_ context.Context, id string) (model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func newTestIssuer(t *testing.T, ttl time.Duration) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer("test-secret", ttl)
	require.NoError(t, err)
	return issuer
}

func okHandler(t *testing.T, sawIdentity **model.Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := IdentityFromContext(r.Context()); ok {
			*sawIdentity = identity
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_NoToken(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	mw := NewAuthMiddleware(issuer, &fakeAccounts{users: map[string]model.User{}})

	var saw *model.Identity
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(t, &saw)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, saw)
}

func TestRequireAuth_MalformedToken(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	mw := NewAuthMiddleware(issuer, &fakeAccounts{users: map[string]model.User{}})

	var saw *model.Identity
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(t, &saw)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	shortIssuer := newTestIssuer(t, time.Millisecond)
	signed, err := shortIssuer.Mint("u1", "jdoe", model.RoleDoctor)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	mw := NewAuthMiddleware(shortIssuer, &fakeAccounts{users: map[string]model.User{}})

	var saw *model.Identity
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(t, &saw)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestRequireAuth_AccountDeleted(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	signed, err := issuer.Mint("gone", "ghost", model.RoleAdmin)
	require.NoError(t, err)

	mw := NewAuthMiddleware(issuer, &fakeAccounts{users: map[string]model.User{}})

	var saw *model.Identity
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(t, &saw)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_DeactivatedAccount(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	signed, err := issuer.Mint("u1", "jdoe", model.RoleDoctor)
	require.NoError(t, err)

	// Token is still valid but the account was deactivated after issuance;
	// the per-request store re-check must reject it.
	accounts := &fakeAccounts{users: map[string]model.User{
		"u1": {ID: "u1", Username: "jdoe", Email: "j@x.com", Role: model.RoleDoctor, IsActive: false},
	}}
	mw := NewAuthMiddleware(issuer, accounts)

	var saw *model.Identity
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(t, &saw)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, saw)
}

func TestRequireAuth_AttachesFreshIdentity(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	signed, err := issuer.Mint("u1", "jdoe", model.RoleReceptionist)
	require.NoError(t, err)

	// The role changed after the token was minted; the resolved identity must
	// carry the store's current role, not the token's.
	accounts := &fakeAccounts{users: map[string]model.User{
		"u1": {ID: "u1", Username: "jdoe", Email: "j@x.com", Role: model.RoleAdmin, IsActive: true},
	}}
	mw := NewAuthMiddleware(issuer, accounts)

	var saw *model.Identity
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(t, &saw)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, saw)
	assert.Equal(t, "u1", saw.ID)
	assert.Equal(t, "jdoe", saw.Username)
	assert.Equal(t, "j@x.com", saw.Email)
	assert.Equal(t, model.RoleAdmin, saw.Role)
}

func TestExtractToken_Priority(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	cookieToken, err := issuer.Mint("cookie-user", "cookie", model.RoleAdmin)
	require.NoError(t, err)

	accounts := &fakeAccounts{users: map[string]model.User{
		"cookie-user": {ID: "cookie-user", Username: "cookie", Email: "c@x.com", Role: model.RoleAdmin, IsActive: true},
	}}
	mw := NewAuthMiddleware(issuer, accounts)

	var saw *model.Identity
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer some-other-token")
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(t, &saw)).ServeHTTP(rec, req)

	// Cookie wins over the Authorization header.
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, saw)
	assert.Equal(t, "cookie-user", saw.ID)
}

func TestExtractToken_CustomHeaderFallback(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	signed, err := issuer.Mint("u1", "jdoe", model.RoleDoctor)
	require.NoError(t, err)

	accounts := &fakeAccounts{users: map[string]model.User{
		"u1": {ID: "u1", Username: "jdoe", Email: "j@x.com", Role: model.RoleDoctor, IsActive: true},
	}}
	mw := NewAuthMiddleware(issuer, accounts)

	var saw *model.Identity
	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.Header.Set(accessTokenHeader, signed)
	rec := httptest.NewRecorder()
	mw.RequireAuth(okHandler(t, &saw)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoles(t *testing.T) {
	issuer := newTestIssuer(t, time.Hour)
	mw := NewAuthMiddleware(issuer, &fakeAccounts{users: map[string]model.User{}})

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guard := mw.RequireRoles(model.RoleAdmin, model.RoleReceptionist)(next)

	t.Run("no identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/patients", nil)
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("role not allowed", func(t *testing.T) {
		identity := &model.Identity{ID: "u1", Role: model.RoleDoctor}
		ctx := context.WithValue(context.Background(), identityContextKey, identity)
		req := httptest.NewRequest(http.MethodPost, "/api/patients", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "admin")
		assert.Contains(t, rec.Body.String(), "receptionist")
	})

	t.Run("role allowed", func(t *testing.T) {
		identity := &model.Identity{ID: "u1", Role: model.RoleReceptionist}
		ctx := context.WithValue(context.Background(), identityContextKey, identity)
		req := httptest.NewRequest(http.MethodPost, "/api/patients", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		guard.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
