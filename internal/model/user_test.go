package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUsername(t *testing.T) {
	valid := []string{"jdoe", "j_doe", "User123", "abc"}
	invalid := []string{"", "jd", "has space", "has-dash", "way_too_long_username_over_thirty_chars"}

	for _, username := range valid {
		assert.True(t, ValidUsername(username), username)
	}
	for _, username := range invalid {
		assert.False(t, ValidUsername(username), username)
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"j@x.com", "john.doe@example.co.uk", "a_b@sub.domain.org"}
	invalid := []string{"", "no-at-sign", "j@", "@x.com", "j@x", "j@x.c"}

	for _, email := range valid {
		assert.True(t, ValidEmail(email), email)
	}
	for _, email := range invalid {
		assert.False(t, ValidEmail(email), email)
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleDoctor.Valid())
	assert.True(t, RoleReceptionist.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestPublicStripsPasswordHash(t *testing.T) {
	user := User{ID: "u1", Username: "jdoe", Email: "j@x.com", PasswordHash: "hash", Role: RoleDoctor}
	public := user.Public()

	assert.Equal(t, "jdoe", public.Username)
	// PublicUser has no hash field at all; this guards the mapping staying
	// complete as fields are added.
	assert.Equal(t, user.ID, public.ID)
	assert.Equal(t, user.Role, public.Role)
}
