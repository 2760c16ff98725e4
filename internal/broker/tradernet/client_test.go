package tradernet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"BrokerSync/internal/broker"
	"BrokerSync/internal/domain/models"
)

var upgrader = websocket.Upgrader{}

func newTestProvider(t *testing.T, respond func(req historyRequest) historyResponse) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var req historyRequest
		if err := conn.ReadJSON(&req); err != nil {
			t.Errorf("read request: %v", err)
			return
		}
		if err := conn.WriteJSON(respond(req)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	p, err := New(
		models.Platform{ID: PlatformID, Name: "Tradernet", URL: wsURL},
		broker.Credentials{"api_key": "key-123"},
	)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p.(*Provider)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(models.Platform{ID: PlatformID, URL: "wss://x"}, broker.Credentials{"token": "v"})
	if !errors.Is(err, broker.ErrMalformedCredentials) {
		t.Fatalf("expected ErrMalformedCredentials, got %v", err)
	}
}

func TestFetchActivities(t *testing.T) {
	p := newTestProvider(t, func(req historyRequest) historyResponse {
		if req.Cmd != "getActivitiesHistory" {
			t.Errorf("unexpected cmd %q", req.Cmd)
		}
		if req.APIKey != "key-123" {
			t.Errorf("unexpected api key")
		}
		return historyResponse{
			Status: "ok",
			Activities: []wireActivity{
				{Symbol: "AAPL", Type: "BUY", Date: "2025-03-01", Currency: "USD"},
				{Symbol: "MSFT", Type: "SELL", Date: "2025-03-02", Currency: "USD"},
			},
		}
	})

	got, err := p.FetchActivities(context.Background(), nil)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(got))
	}
}

func TestFetchActivitiesSinceFilter(t *testing.T) {
	var gotSince string
	p := newTestProvider(t, func(req historyRequest) historyResponse {
		gotSince = req.Since
		return historyResponse{
			Status: "ok",
			Activities: []wireActivity{
				{Symbol: "AAPL", Type: "BUY", Date: "2025-03-01", Currency: "USD"},
				{Symbol: "MSFT", Type: "BUY", Date: "2025-03-05", Currency: "USD"},
			},
		}
	})

	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := p.FetchActivities(context.Background(), &since)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if gotSince == "" {
		t.Fatalf("expected since in the request")
	}
	if len(got) != 1 || got[0].Symbol != "MSFT" {
		t.Fatalf("records at or before the watermark must be dropped, got %+v", got)
	}
}

func TestFetchActivitiesAuthError(t *testing.T) {
	p := newTestProvider(t, func(historyRequest) historyResponse {
		return historyResponse{Status: "auth_error", Message: "bad key"}
	})

	_, err := p.FetchActivities(context.Background(), nil)
	if !broker.IsAuthFailed(err) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

func TestFetchActivitiesUnknownStatus(t *testing.T) {
	p := newTestProvider(t, func(historyRequest) historyResponse {
		return historyResponse{Status: "wat"}
	})

	_, err := p.FetchActivities(context.Background(), nil)
	pe, ok := broker.AsProviderError(err)
	if !ok || pe.Kind != broker.ProviderMalformedResponse {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}
