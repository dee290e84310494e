// Package token mints and verifies the stateless session tokens. A token is
// valid when its signature checks out and it has not expired; whether the
// account behind it still exists and is active is the session middleware's
// job, re-checked against the store on every request.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hospital-api/internal/model"
)

type Claims struct {
	UserID    string
	Username  string
	Role      model.Role
	TokenID   string
	ExpiresAt time.Time
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token signing secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token TTL must be positive")
	}

	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Mint signs a token embedding the account's identity and role. No side
// effects; the token is never persisted.
func (i *Issuer) Mint(userID string, username string, role model.Role) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"role":     role.String(),
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(i.ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates signature and expiry. It returns model.ErrTokenExpired for
// a well-signed token past its exp claim and model.ErrTokenMalformed for
// everything else, so callers can report the two distinctly.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenMalformed
	}
	if !parsed.Valid {
		return nil, model.ErrTokenMalformed
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrTokenMalformed
	}

	claims := &Claims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)
	if roleStr, ok := claimsMap["role"].(string); ok {
		claims.Role = model.Role(roleStr)
	}
	if exp, ok := claimsMap["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}

	if claims.UserID == "" {
		return nil, model.ErrTokenMalformed
	}

	return claims, nil
}
