package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSecret(t *testing.T) {
	secret, err := RandomToken(32)
	require.NoError(t, err)

	hash, err := HashSecret(secret)
	require.NoError(t, err)
	assert.NotEqual(t, secret, hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
}

func TestVerifySecret(t *testing.T) {
	secret := "s3cr3t-link-part"
	hash, err := HashSecret(secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		hash   string
		secret string
		want   bool
	}{
		{"Correct secret", hash, secret, true},
		{"Wrong secret", hash, "other", false},
		{"Empty secret", hash, "", false},
		{"Malformed hash", "not-a-hash", secret, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySecret(tt.hash, tt.secret))
		})
	}
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(24)
	require.NoError(t, err)
	b, err := RandomToken(24)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}
