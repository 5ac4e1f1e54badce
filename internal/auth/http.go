package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPValidator delegates validation to an identity service over HTTP. The
// credential is presented as a bearer token; 2xx with a username means
// valid, 401/403 means invalid, anything else means the backend is down.
type HTTPValidator struct {
	endpoint string
	client   *http.Client
}

// NewHTTPValidator creates a validator calling the given verification
// endpoint.
func NewHTTPValidator(endpoint string) *HTTPValidator {
	return &HTTPValidator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Validate presents the credential to the identity service.
func (v *HTTPValidator) Validate(ctx context.Context, credential string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Identity{}, ErrInvalidCredential
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Identity{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Identity{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if body.Username == "" {
		return Identity{}, ErrInvalidCredential
	}
	return Identity{Username: body.Username}, nil
}
