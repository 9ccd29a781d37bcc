package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saccolink/internal/pkg/jwt"
)

const (
	testSecret        = "test-secret"
	testRefreshSecret = "test-refresh-secret"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := jwt.GenerateAccessToken(42, "jdoe", "sacco_admin", 7, 0, testSecret, 15)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwt.ValidateAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, "sacco_admin", claims.Role)
	assert.Equal(t, uint(7), claims.SaccoID)
	assert.Equal(t, uint(0), claims.RegionID)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := jwt.GenerateAccessToken(1, "jdoe", "member", 0, 0, testSecret, 15)
	require.NoError(t, err)

	_, err = jwt.ValidateAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenInvalid)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := jwt.GenerateAccessToken(1, "jdoe", "member", 0, 0, testSecret, -1)
	require.NoError(t, err)

	_, err = jwt.ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := jwt.ValidateAccessToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalid)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := jwt.GenerateRefreshToken(42, "token-id-1", testRefreshSecret, 7)
	require.NoError(t, err)

	claims, err := jwt.ValidateRefreshToken(token, testRefreshSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "token-id-1", claims.TokenID)
}

func TestRefreshTokenNotAcceptedAsAccessSecret(t *testing.T) {
	token, err := jwt.GenerateRefreshToken(42, "token-id-1", testRefreshSecret, 7)
	require.NoError(t, err)

	_, err = jwt.ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalid)
}
