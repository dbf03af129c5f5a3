package common

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// RandBytes returns n bytes from crypto/rand.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// MustRandHex returns n random bytes hex encoded. It panics if the system
// random source fails.
func MustRandHex(n int) string {
	b, err := RandBytes(n)
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" when the value is not a bearer credential.
func BearerToken(header string) string {
	token, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
