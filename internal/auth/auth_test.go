package auth

import (
	"errors"
	"testing"
	"time"

	"medeasy-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	m := NewManager("secret", time.Hour, bcrypt.MinCost)

	hash, err := m.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, m.CheckPasswordHash("s3cret", hash))
	assert.False(t, m.CheckPasswordHash("wrong", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour, bcrypt.MinCost)
	u := &models.User{ID: "u1", Email: "r@example.com", Role: models.RoleRetailer, PartyID: "p1"}

	token, err := m.GenerateJWT(u)
	require.NoError(t, err)

	claims, err := m.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, models.RoleRetailer, claims.Role)
	assert.Equal(t, "p1", claims.PartyID)
}

func TestParseJWTRejects(t *testing.T) {
	m := NewManager("secret", time.Hour, bcrypt.MinCost)
	u := &models.User{ID: "u1", Role: models.RoleCustomer}

	other := NewManager("other-secret", time.Hour, bcrypt.MinCost)
	forged, err := other.GenerateJWT(u)
	require.NoError(t, err)

	expired := NewManager("secret", time.Hour, bcrypt.MinCost)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.GenerateJWT(u)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": forged,
		"expired":      old,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.ParseJWT(token)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
