package common

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandBytes(t *testing.T) {
	a, err := RandBytes(32)
	require.NoError(t, err)
	b, err := RandBytes(32)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	empty, err := RandBytes(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMustRandHex(t *testing.T) {
	s := MustRandHex(8)

	assert.Len(t, s, 16)
	_, err := hex.DecodeString(s)
	assert.NoError(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"Bearer  padded ", "padded"},
		{"Bearer ", ""},
		{"Basic Zm9vOmJhcg==", ""},
		{"", ""},
		{"bearer abc", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BearerToken(tt.header), tt.header)
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{
		ErrorNotFound, ErrorUnauthorized, ErrorForbidden, ErrorValidation,
		ErrVersionConflict, ErrMissingAck, ErrNoCredential, ErrInvalidToken,
		ErrTokenExpired, ErrorInternal,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v is %v", a, b)
			}
		}
	}
}
