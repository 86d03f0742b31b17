package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	hasher := NewBcryptHasher(4) // low cost for test speed

	hash, err := hasher.Hash("correct-horse-battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct-horse-battery", hash)

	assert.True(t, hasher.Verify(hash, "correct-horse-battery"))
	assert.False(t, hasher.Verify(hash, "wrong-password"))
	assert.False(t, hasher.Verify("not-a-hash", "correct-horse-battery"))
}

func TestBcryptHasher_RejectsShortPassword(t *testing.T) {
	hasher := NewBcryptHasher(4)

	_, err := hasher.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestBcryptHasher_DefaultCost(t *testing.T) {
	hasher := NewBcryptHasher(0)
	hash, err := hasher.Hash("long-enough-password")
	require.NoError(t, err)
	assert.True(t, hasher.Verify(hash, "long-enough-password"))
}
