// Package cryptox seals small JSON values with AES-GCM under a key derived
// from a configured secret.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/todoboard/internal/common"
	"golang.org/x/crypto/argon2"
)

// ErrMalformed is returned by Open for values that were not produced by Seal
// with the same key.
var ErrMalformed = errors.New("malformed sealed value")

// DeriveKey stretches secret into a 32-byte AES-256 key.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Sealer encrypts values into URL-safe strings and back.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal serializes v to JSON and encrypts it. The result is
// base64url(nonce || ciphertext).
func (s *Sealer) Seal(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	nonce, err := common.RandBytes(s.aead.NonceSize())
	if err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal and unmarshals the plaintext into v.
func (s *Sealer) Open(sealed string, v any) error {
	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return ErrMalformed
	}
	ns := s.aead.NonceSize()
	if len(data) < ns {
		return ErrMalformed
	}
	plaintext, err := s.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return ErrMalformed
	}
	return json.Unmarshal(plaintext, v)
}
