package ibkr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"BrokerSync/internal/broker"
	"BrokerSync/internal/domain/models"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(
		models.Platform{ID: PlatformID, Name: "IBKR", URL: srv.URL},
		broker.Credentials{"token": "tk-123"},
	)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p.(*Provider)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(models.Platform{ID: PlatformID, URL: "https://x"}, broker.Credentials{"key": "v"})
	if !errors.Is(err, broker.ErrMalformedCredentials) {
		t.Fatalf("expected ErrMalformedCredentials, got %v", err)
	}
}

func TestFetchActivitiesPaginates(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tk-123" {
			t.Errorf("unexpected auth header %q", got)
		}
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"activities":[{"symbol":"AAPL","type":"BUY","date":"2025-03-01","amount":"100","currency":"USD"}],"nextPage":2}`)
		case "2":
			fmt.Fprint(w, `{"activities":[{"symbol":"MSFT","type":"SELL","date":"2025-03-02","amount":"200","currency":"USD"}],"nextPage":0}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	got, err := p.FetchActivities(context.Background(), nil)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(got))
	}
	if got[0].Symbol != "AAPL" || got[1].Symbol != "MSFT" {
		t.Fatalf("unexpected symbols %s/%s", got[0].Symbol, got[1].Symbol)
	}
}

func TestFetchActivitiesSinceFilter(t *testing.T) {
	var sinceParam string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		sinceParam = r.URL.Query().Get("since")
		// the gateway over-fetches at the boundary on purpose
		fmt.Fprint(w, `{"activities":[
			{"symbol":"AAPL","type":"BUY","date":"2025-03-01T00:00:00Z","amount":"100","currency":"USD"},
			{"symbol":"MSFT","type":"BUY","date":"2025-03-05T00:00:00Z","amount":"200","currency":"USD"}
		],"nextPage":0}`)
	})

	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := p.FetchActivities(context.Background(), &since)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if sinceParam == "" {
		t.Fatalf("expected since query param")
	}
	if len(got) != 1 || got[0].Symbol != "MSFT" {
		t.Fatalf("records at or before the watermark must be dropped, got %+v", got)
	}
}

func TestFetchActivitiesAuthFailure(t *testing.T) {
	var calls int
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := p.FetchActivities(context.Background(), nil)
	if !broker.IsAuthFailed(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("auth rejection must not be retried, got %d calls", calls)
	}
}

func TestFetchActivitiesMalformedBody(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"activities": oops`)
	})

	_, err := p.FetchActivities(context.Background(), nil)
	pe, ok := broker.AsProviderError(err)
	if !ok || pe.Kind != broker.ProviderMalformedResponse {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}
