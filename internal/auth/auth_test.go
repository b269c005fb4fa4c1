package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cure-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cure-pass", hash)

	assert.True(t, CheckPassword(hash, "s3cure-pass"))
	assert.False(t, CheckPassword(hash, "wrong-pass"))
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	token, err := GenerateAccessToken(1, "adv@example.com", "advertiser", testSecret)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, 1, claims.UserID)
	assert.Equal(t, "adv@example.com", claims.Email)
	assert.Equal(t, "advertiser", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "adv@example.com", "advertiser", testSecret)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestEmptySecretRejected(t *testing.T) {
	_, err := GenerateAccessToken(1, "adv@example.com", "advertiser", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)

	_, err = ValidateToken("whatever", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)
}

func TestRefreshAccessToken(t *testing.T) {
	_, refreshToken, err := GenerateTokens(7, "adv@example.com", "admin", testSecret, testSecret)
	require.NoError(t, err)

	newAccess, claims, err := RefreshAccessToken(refreshToken, testSecret, testSecret)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.Equal(t, 7, claims.UserID)

	newClaims, err := ValidateToken(newAccess, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "access", newClaims.TokenType)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	accessToken, err := GenerateAccessToken(7, "adv@example.com", "admin", testSecret)
	require.NoError(t, err)

	_, _, err = RefreshAccessToken(accessToken, testSecret, testSecret)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}
