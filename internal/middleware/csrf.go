package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"

	"hospital-api/internal/model"
)

const (
	// csrfCookieName holds the double-submit token. Not HTTP-only: the
	// frontend reads it back and echoes it in the header.
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

// CSRF implements the double-submit cookie scheme. Safe methods pass through
// and get a token cookie; state-changing methods must echo the cookie value
// in the X-CSRF-Token header.
type CSRF struct {
	cookieSecure bool
}

func NewCSRF(cookieSecure bool) *CSRF {
	return &CSRF{cookieSecure: cookieSecure}
}

func (c *CSRF) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if _, err := r.Cookie(csrfCookieName); err != nil {
				if _, err := c.issueCookie(w); err != nil {
					writeAuthError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
					return
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "CSRF token validation failed")
			return
		}

		header := r.Header.Get(csrfHeaderName)
		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
			writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "CSRF token validation failed")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// TokenHandler serves GET /api/csrf-token so the frontend can bootstrap the
// cookie before its first mutating request.
func (c *CSRF) TokenHandler(w http.ResponseWriter, r *http.Request) {
	var tokenValue string

	if cookie, err := r.Cookie(csrfCookieName); err == nil && cookie.Value != "" {
		tokenValue = cookie.Value
	} else {
		issued, err := c.issueCookie(w)
		if err != nil {
			writeAuthError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}
		tokenValue = issued
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = jsonEncode(w, model.APIResponse{
		Success: true,
		Data:    map[string]string{"csrf_token": tokenValue},
	})
}

func (c *CSRF) issueCookie(w http.ResponseWriter) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate CSRF token: %w", err)
	}
	tokenValue := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    tokenValue,
		Path:     "/",
		Secure:   c.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	return tokenValue, nil
}
