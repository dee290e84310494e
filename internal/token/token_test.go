package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-api/internal/model"
)

func TestNewIssuer_RequiresSecret(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.Error(t, err)

	_, err = NewIssuer("   ", time.Hour)
	assert.Error(t, err)

	_, err = NewIssuer("secret", 0)
	assert.Error(t, err)
}

func TestIssuer_MintVerifyRoundtrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	raw, err := issuer.Mint("user-1", "jdoe", model.RoleReceptionist)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := issuer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, model.RoleReceptionist, claims.Role)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestIssuer_VerifyExpired(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Millisecond)
	require.NoError(t, err)

	raw, err := issuer.Mint("user-1", "jdoe", model.RoleDoctor)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, model.ErrTokenExpired)
}

func TestIssuer_VerifyMalformed(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, model.ErrTokenMalformed)
}

func TestIssuer_VerifyWrongSecret(t *testing.T) {
	minter, err := NewIssuer("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewIssuer("secret-b", time.Hour)
	require.NoError(t, err)

	raw, err := minter.Mint("user-1", "jdoe", model.RoleAdmin)
	require.NoError(t, err)

	// A signature mismatch is malformed, not expired.
	_, err = verifier.Verify(raw)
	assert.ErrorIs(t, err, model.ErrTokenMalformed)
}
