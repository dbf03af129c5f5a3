// Package common defines shared constants and sentinel errors used across
// the client, the server and the platform adapters. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Lookup errors.
	ErrorNotFound = errors.New("not found")

	// Access errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Input errors.
	ErrorValidation = errors.New("validation error")

	// Storage errors.
	ErrVersionConflict = errors.New("version conflict")
	ErrMissingAck      = errors.New("acknowledgement missing")

	// Credential errors.
	ErrNoCredential = errors.New("no credential")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	ErrorInternal = errors.New("internal error")
)
