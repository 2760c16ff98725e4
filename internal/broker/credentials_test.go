package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type stubSecrets struct {
	values map[string]string
	err    error
	reads  int
}

func (s *stubSecrets) GetSecret(_ context.Context, key string) (string, bool, error) {
	s.reads++
	if s.err != nil {
		return "", false, s.err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *stubSecrets) SetSecret(_ context.Context, key, value string) error {
	s.values[key] = value
	return nil
}

func TestParseCredentials(t *testing.T) {
	c, err := ParseCredentials(`{"token":"abc","secret":"xyz"}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if c.Get("token") != "abc" || c.Get("secret") != "xyz" {
		t.Fatalf("unexpected credentials")
	}
}

func TestParseCredentialsMalformed(t *testing.T) {
	_, err := ParseCredentials(`{"token": broken`)
	if !errors.Is(err, ErrMalformedCredentials) {
		t.Fatalf("expected ErrMalformedCredentials, got %v", err)
	}
}

func TestParseCredentialsEmpty(t *testing.T) {
	_, err := ParseCredentials(`{}`)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestCredentialsRedactedFormatting(t *testing.T) {
	c := Credentials{"token": "super-secret"}
	for _, s := range []string{fmt.Sprintf("%v", c), fmt.Sprintf("%s", c), fmt.Sprintf("%#v", c)} {
		if strings.Contains(s, "super-secret") {
			t.Fatalf("formatted credentials leak the payload: %s", s)
		}
	}
}

func TestResolverMissingSecret(t *testing.T) {
	r := NewCredentialResolver(&stubSecrets{values: map[string]string{}}, 0)
	_, err := r.Resolve(context.Background(), "ibkr")
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestResolverStoreUnavailable(t *testing.T) {
	r := NewCredentialResolver(&stubSecrets{err: errors.New("connection refused")}, 0)
	_, err := r.Resolve(context.Background(), "ibkr")
	if !errors.Is(err, ErrSecretStoreUnavailable) {
		t.Fatalf("expected ErrSecretStoreUnavailable, got %v", err)
	}
}

func TestResolverCachesBundle(t *testing.T) {
	store := &stubSecrets{values: map[string]string{
		SecretKey("ibkr"): `{"token":"abc"}`,
	}}
	r := NewCredentialResolver(store, time.Minute)

	for i := 0; i < 3; i++ {
		c, err := r.Resolve(context.Background(), "ibkr")
		if err != nil {
			t.Fatalf("resolve %d failed: %v", i, err)
		}
		if c.Get("token") != "abc" {
			t.Fatalf("unexpected token")
		}
	}
	if store.reads != 1 {
		t.Fatalf("expected 1 store read, got %d", store.reads)
	}
}
