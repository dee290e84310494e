package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"hospital-api/internal/model"
	"hospital-api/internal/token"
)

// SessionCookieName is the HTTP-only cookie carrying the session token.
const SessionCookieName = "token"

// accessTokenHeader is the legacy fallback header, kept for API clients that
// cannot set Authorization.
const accessTokenHeader = "X-Access-Token"

type tokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

type accountSource interface {
	FindByID(ctx context.Context, id string) (model.User, error)
}

type contextKey string

const identityContextKey contextKey = "identity"

type AuthMiddleware struct {
	verifier tokenVerifier
	accounts accountSource
}

func NewAuthMiddleware(verifier tokenVerifier, accounts accountSource) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, accounts: accounts}
}

// RequireAuth resolves the caller's identity. The token alone is never
// trusted for role or active status: the account is re-fetched from the store
// on every request so deactivation and role changes take effect immediately,
// at the cost of one lookup. This trade-off is deliberate; do not cache the
// claims past this point.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractToken(r)
		if raw == "" {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication token required")
			return
		}

		claims, err := m.verifier.Verify(raw)
		if err != nil {
			if errors.Is(err, model.ErrTokenExpired) {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "token has expired")
			} else {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			}
			return
		}

		user, err := m.accounts.FindByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "account no longer exists")
				return
			}
			writeAuthError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		if !user.IsActive {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "account is deactivated")
			return
		}

		identity := &model.Identity{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles gates a route to the given role set. It must run after
// RequireAuth and short-circuits the chain on failure.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...model.Role) func(http.Handler) http.Handler {
	roleSet := map[model.Role]struct{}{}
	names := make([]string, 0, len(allowedRoles))
	for _, role := range allowedRoles {
		roleSet[role] = struct{}{}
		names = append(names, role.String())
	}
	denied := fmt.Sprintf("access denied, required roles: %s", strings.Join(names, ", "))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}

			if _, exists := roleSet[identity.Role]; !exists {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", denied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	return identity, ok
}

// extractToken locates the candidate token: session cookie first, then the
// Authorization bearer header, then the legacy custom header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" && strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return strings.TrimSpace(r.Header.Get(accessTokenHeader))
}

func writeAuthError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
