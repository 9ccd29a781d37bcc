package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saccolink/internal/pkg/password"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := password.Hash("Secret!2024")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, password.Verify("Secret!2024", hash))
	assert.False(t, password.Verify("wrong-password", hash))
	assert.False(t, password.Verify("Secret!2024", "not-a-bcrypt-hash"))
}

func TestHashToken(t *testing.T) {
	a := password.HashToken("refresh-token-a")
	b := password.HashToken("refresh-token-b")

	// SHA-256 hex digests, deterministic
	assert.Len(t, a, 64)
	assert.Equal(t, a, password.HashToken("refresh-token-a"))
	assert.NotEqual(t, a, b)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, password.Validate("longenough"))
	assert.Error(t, password.Validate("short"))
	assert.Error(t, password.Validate(""))
}
