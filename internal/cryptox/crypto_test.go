package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	k1 := DeriveKey([]byte("secret"), []byte("salt"))
	k2 := DeriveKey([]byte("secret"), []byte("salt"))
	k3 := DeriveKey([]byte("secret"), []byte("other"))

	assert.Len(t, k1, 32)
	assert.True(t, bytes.Equal(k1, k2))
	assert.False(t, bytes.Equal(k1, k3))
}

type tokens struct {
	Token   string `json:"t"`
	Refresh string `json:"r"`
}

func TestSealOpen(t *testing.T) {
	s, err := NewSealer(DeriveKey([]byte("secret"), []byte("salt")))
	require.NoError(t, err)

	in := tokens{Token: "access", Refresh: "refresh"}
	sealed, err := s.Seal(in)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "access")

	again, err := s.Seal(in)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	var out tokens
	require.NoError(t, s.Open(sealed, &out))
	assert.Equal(t, in, out)
}

func TestOpen_Rejects(t *testing.T) {
	s, err := NewSealer(DeriveKey([]byte("secret"), []byte("salt")))
	require.NoError(t, err)
	other, err := NewSealer(DeriveKey([]byte("different"), []byte("salt")))
	require.NoError(t, err)

	sealed, err := s.Seal(tokens{Token: "x"})
	require.NoError(t, err)

	var out tokens
	assert.ErrorIs(t, other.Open(sealed, &out), ErrMalformed)
	assert.ErrorIs(t, s.Open("!!!", &out), ErrMalformed)
	assert.ErrorIs(t, s.Open("YQ", &out), ErrMalformed)
	assert.ErrorIs(t, s.Open(sealed[:len(sealed)-2], &out), ErrMalformed)
}

func TestNewSealer_BadKey(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	require.Error(t, err)
}
