package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
)

type nilProvider struct{}

func (nilProvider) FetchActivities(context.Context, *time.Time) ([]models.ExternalActivity, error) {
	return nil, nil
}

func testFactory(t *testing.T, secrets map[string]string) (*Factory, *models.Platform) {
	t.Helper()
	var seen models.Platform

	registry := NewRegistry()
	registry.Register("ibkr", func(p models.Platform, _ Credentials) (repository.BrokerProvider, error) {
		seen = p
		return nilProvider{}, nil
	})

	resolver := NewCredentialResolver(&stubSecrets{values: secrets}, 0)
	f := NewFactory(registry, resolver, []models.Platform{
		{ID: "ibkr", Name: "Interactive Brokers", URL: "https://api.ibkr.test"},
	})
	return f, &seen
}

func TestFactoryForAccount(t *testing.T) {
	f, seen := testFactory(t, map[string]string{
		SecretKey("ibkr"): `{"token":"abc"}`,
	})

	p, err := f.ForAccount(context.Background(), &models.Account{ID: "acc-1", PlatformID: "ibkr"})
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	if p == nil {
		t.Fatalf("expected provider")
	}
	if seen.URL != "https://api.ibkr.test" {
		t.Fatalf("builder must receive the declared platform, got %+v", seen)
	}
}

func TestFactoryUnlinkedAccount(t *testing.T) {
	f, _ := testFactory(t, map[string]string{})

	_, err := f.ForAccount(context.Background(), &models.Account{ID: "acc-1"})
	if !errors.Is(err, ErrNoLinkedPlatform) {
		t.Fatalf("expected ErrNoLinkedPlatform, got %v", err)
	}
}

func TestFactoryUnsupportedPlatform(t *testing.T) {
	f, _ := testFactory(t, map[string]string{
		SecretKey("etrade"): `{"token":"abc"}`,
	})

	_, err := f.ForAccount(context.Background(), &models.Account{ID: "acc-1", PlatformID: "etrade"})
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestFactoryMissingCredentials(t *testing.T) {
	f, _ := testFactory(t, map[string]string{})

	_, err := f.ForAccount(context.Background(), &models.Account{ID: "acc-1", PlatformID: "ibkr"})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestRegistryPlatforms(t *testing.T) {
	r := NewRegistry()
	r.Register("a", func(models.Platform, Credentials) (repository.BrokerProvider, error) { return nilProvider{}, nil })
	r.Register("b", func(models.Platform, Credentials) (repository.BrokerProvider, error) { return nilProvider{}, nil })

	if _, ok := r.Lookup("a"); !ok {
		t.Fatalf("expected a registered")
	}
	if _, ok := r.Lookup("c"); ok {
		t.Fatalf("c must not be registered")
	}
	if got := len(r.Platforms()); got != 2 {
		t.Fatalf("expected 2 platforms, got %d", got)
	}
}
