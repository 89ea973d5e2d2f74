package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("pa55")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("pa55"), hash)

	ok, err := h.Verify(hash, "pa55")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_InvalidHash(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost).Verify([]byte("not-a-hash"), "pa55")
	assert.Error(t, err)
}

func TestNewHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
	assert.Equal(t, 6, NewHasher(6).cost)
}
