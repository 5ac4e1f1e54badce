package auth

import "context"

// StaticValidator accepts a fixed token-to-username table. Meant for
// single-user deployments without an identity service.
type StaticValidator struct {
	tokens map[string]string
}

// NewStaticValidator creates a validator for the given token table.
func NewStaticValidator(tokens map[string]string) *StaticValidator {
	copied := make(map[string]string, len(tokens))
	for token, username := range tokens {
		copied[token] = username
	}
	return &StaticValidator{tokens: copied}
}

// Validate looks the credential up in the table.
func (v *StaticValidator) Validate(_ context.Context, credential string) (Identity, error) {
	username, ok := v.tokens[credential]
	if !ok || credential == "" {
		return Identity{}, ErrInvalidCredential
	}
	return Identity{Username: username}, nil
}
