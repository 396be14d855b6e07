package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "learning-center-api",
	})
}

func TestGenerateTokenPair_RoundTrip(t *testing.T) {
	m := testManager()
	id := Identity{UserID: 7, Login: "center1", Role: "learning_center", LearningCenterID: 3, TokenVersion: 2}

	pair, err := m.GenerateTokenPair(id)
	require.NoError(t, err)

	access, err := m.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.Equal(t, id, access.Identity())
	assert.NotEmpty(t, access.ID)

	refresh, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, access.ID, refresh.ID)

	_, err = m.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Rejects(t *testing.T) {
	m := testManager()

	other := NewJWTManager(JWTConfig{Secret: "other", Expiry: time.Hour, Issuer: "learning-center-api"})
	token, _, err := other.GenerateAccessToken(Identity{UserID: 1, Role: "admin"})
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager(JWTConfig{Secret: "test-secret", Expiry: -time.Minute, Issuer: "learning-center-api"})
	token, _, err = expired.GenerateAccessToken(Identity{UserID: 1, Role: "admin"})
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPasswordWithCost("secret123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword(hash, "secret123"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong-pass1"), ErrPasswordMismatch)
	assert.True(t, NeedsRehash(hash))

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
