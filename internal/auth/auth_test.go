package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticValidator(t *testing.T) {
	v := NewStaticValidator(map[string]string{"secret-token": "gardener"})

	id, err := v.Validate(context.Background(), "secret-token")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if id.Username != "gardener" {
		t.Errorf("username: got %q, want gardener", id.Username)
	}

	if _, err := v.Validate(context.Background(), "wrong"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("wrong token: got %v, want ErrInvalidCredential", err)
	}
	if _, err := v.Validate(context.Background(), ""); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("empty token: got %v, want ErrInvalidCredential", err)
	}
}

func TestHTTPValidatorAccepts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"username": "gardener"}`))
	}))
	defer ts.Close()

	v := NewHTTPValidator(ts.URL)

	id, err := v.Validate(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if id.Username != "gardener" {
		t.Errorf("username: got %q, want gardener", id.Username)
	}

	if _, err := v.Validate(context.Background(), "bad-token"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("rejected token: got %v, want ErrInvalidCredential", err)
	}
}

func TestHTTPValidatorBackendFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	v := NewHTTPValidator(ts.URL)
	if _, err := v.Validate(context.Background(), "any"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("500 backend: got %v, want ErrUnavailable", err)
	}

	// Unreachable backend.
	ts.Close()
	if _, err := v.Validate(context.Background(), "any"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("dead backend: got %v, want ErrUnavailable", err)
	}
}

func TestHTTPValidatorEmptyUsernameIsInvalid(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	v := NewHTTPValidator(ts.URL)
	if _, err := v.Validate(context.Background(), "any"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("empty identity: got %v, want ErrInvalidCredential", err)
	}
}

func TestFakeValidatorRecordsCredentials(t *testing.T) {
	f := NewFakeValidator(map[string]string{"tok": "u"})
	f.Validate(context.Background(), "tok")
	f.Validate(context.Background(), "nope")

	if len(f.Credentials) != 2 || f.Credentials[0] != "tok" || f.Credentials[1] != "nope" {
		t.Errorf("recorded credentials: %v", f.Credentials)
	}
}
