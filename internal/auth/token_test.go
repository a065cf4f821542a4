package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-io/vitrine/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    "user-1",
		Name:  "Ana",
		Email: "ana@x.com",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := tm.GenerateAccessToken(testUser())
	require.NoError(t, err)

	claims, err := tm.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "ana@x.com", claims.Email)
}

func TestAccessTokenExpiry(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tm.SetClock(func() time.Time { return issued })

	token, err := tm.GenerateAccessToken(testUser())
	require.NoError(t, err)

	// Valid just before expiry.
	tm.SetClock(func() time.Time { return issued.Add(14 * time.Minute) })
	_, err = tm.ValidateAccessToken(token)
	require.NoError(t, err)

	// Rejected just after.
	tm.SetClock(func() time.Time { return issued.Add(16 * time.Minute) })
	_, err = tm.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshTokenTypeDiscriminator(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)

	refresh, err := tm.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := tm.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.NotEmpty(t, claims.ID, "refresh token must carry a jti")

	// An access token is not accepted where a refresh token is expected.
	access, err := tm.GenerateAccessToken(testUser())
	require.NoError(t, err)
	_, err = tm.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tm.SetClock(func() time.Time { return now })

	// Same user, same instant: the jti keeps the tokens distinct.
	a, err := tm.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	b, err := tm.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidateTokenBadSignature(t *testing.T) {
	tm := NewTokenManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	other := NewTokenManager("other-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := other.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.ValidateAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
