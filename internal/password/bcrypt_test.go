package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("p1")
	require.NoError(t, err)
	second, err := h.Hash("p1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "salt must differ per call")
	assert.True(t, h.Verify("p1", first))
	assert.True(t, h.Verify("p1", second))
	assert.False(t, h.Verify("p2", first))
}

func TestHasher_VerifyMalformed(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"plaintext", "p1"},
		{"argon2 format", "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
		{"truncated bcrypt", "$2a$04$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("p1", tt.hash))
			})
		})
	}
}

func TestNewHasher_CostBounds(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}

func TestHasher_LengthLimit(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	tests := []struct {
		name    string
		length  int
		wantErr error
	}{
		{name: "at the limit", length: MaxLength},
		{name: "one byte over", length: MaxLength + 1, wantErr: ErrTooLong},
		{name: "far over", length: 200, wantErr: ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext := strings.Repeat("p", tt.length)
			hash, err := h.Hash(plaintext)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.True(t, h.Verify(plaintext, hash))
		})
	}
}
