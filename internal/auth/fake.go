package auth

import "context"

// FakeValidator is a Validator for tests.
type FakeValidator struct {
	// Accept maps credentials to usernames.
	Accept map[string]string

	// Err, if set, will be returned by Validate regardless of Accept.
	Err error

	// Credentials records every credential presented.
	Credentials []string
}

// NewFakeValidator creates a FakeValidator accepting the given credentials.
func NewFakeValidator(accept map[string]string) *FakeValidator {
	return &FakeValidator{Accept: accept}
}

// Validate records the credential and checks it against Accept.
func (f *FakeValidator) Validate(_ context.Context, credential string) (Identity, error) {
	f.Credentials = append(f.Credentials, credential)
	if f.Err != nil {
		return Identity{}, f.Err
	}
	if username, ok := f.Accept[credential]; ok {
		return Identity{Username: username}, nil
	}
	return Identity{}, ErrInvalidCredential
}
