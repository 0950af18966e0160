// Package identity signs the user in from a Google credential. Credentials are
// verified by a Verifier before any claim is trusted.
package identity

import (
	"context"
	"errors"
)

// ErrInvalidCredential is returned when a credential cannot be verified.
var ErrInvalidCredential = errors.New("identity: invalid credential")

// ErrDisabled is returned when sign-in is not configured.
var ErrDisabled = errors.New("identity: sign-in is not configured")

// Claims are the verified fields of a credential.
type Claims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Verifier checks a credential with its issuer.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Claims, error)
}
