// Package httpx is the JSON-over-HTTP plumbing shared by the platform client,
// the client API and the server: credential providers, a bearer transport and
// the uniform error envelope.
package httpx

import (
	"context"

	"github.com/dmitrijs2005/todoboard/internal/common"
)

// CredentialProvider supplies the bearer token for an outgoing call.
// Implementations return common.ErrNoCredential when nothing is available.
type CredentialProvider interface {
	Credential(ctx context.Context) (string, error)
}

// StaticCredential always returns the same token.
type StaticCredential string

func (s StaticCredential) Credential(context.Context) (string, error) {
	if s == "" {
		return "", common.ErrNoCredential
	}
	return string(s), nil
}

type credentialKey struct{}

// WithCredential returns a context carrying token for ContextCredential.
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey{}, token)
}

// CredentialFrom returns the token stored by WithCredential, or "".
func CredentialFrom(ctx context.Context) string {
	token, _ := ctx.Value(credentialKey{}).(string)
	return token
}

// ContextCredential reads the token a request handler attached to the context.
// The server uses it to act on behalf of whoever called it.
type ContextCredential struct{}

func (ContextCredential) Credential(ctx context.Context) (string, error) {
	if token := CredentialFrom(ctx); token != "" {
		return token, nil
	}
	return "", common.ErrNoCredential
}
