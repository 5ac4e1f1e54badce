// Package auth validates client credentials against an identity backend.
// Credential format and verification live in that backend; this package
// only classifies the outcome.
package auth

import (
	"context"
	"errors"
)

// Identity is the authenticated principal bound to a connection or
// request. It carries a display name only — holding one grants exactly
// "may issue commands", nothing more.
type Identity struct {
	Username string
}

// ErrInvalidCredential reports a credential the backend rejected.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrUnavailable reports that the identity backend could not be reached.
// Distinct from ErrInvalidCredential so callers can answer 401 vs 502.
var ErrUnavailable = errors.New("identity backend unavailable")

// Validator checks a presented credential.
type Validator interface {
	Validate(ctx context.Context, credential string) (Identity, error)
}
