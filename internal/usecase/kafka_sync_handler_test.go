package usecase

import (
	"context"
	"testing"

	"BrokerSync/internal/domain/models"
)

func newHandlerFixture(t *testing.T) (*KafkaSyncHandler, *fixture) {
	t.Helper()
	f := newFixture(t, map[string]models.Account{
		"acc-1": {ID: "acc-1", PlatformID: "testbroker"},
	})
	f.provider.activities = []models.ExternalActivity{extActivity("AAPL", 1, "1000")}
	h := NewKafkaSyncHandler("broker.sync.requests", f.svc, noopMetrics{}, testLogger(t))
	return h, f
}

func TestKafkaHandlerSyncsRequestedAccount(t *testing.T) {
	h, f := newHandlerFixture(t)

	if err := h.Handle(context.Background(), []byte(`{"accountId":"acc-1"}`)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if f.store.count("acc-1") != 1 {
		t.Fatalf("expected 1 stored, got %d", f.store.count("acc-1"))
	}
}

func TestKafkaHandlerEmptyPayloadRunsFullPass(t *testing.T) {
	h, f := newHandlerFixture(t)

	if err := h.Handle(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if f.store.count("acc-1") != 1 {
		t.Fatalf("expected full pass to sync the account")
	}
}

func TestKafkaHandlerRejectsMalformedPayload(t *testing.T) {
	h, _ := newHandlerFixture(t)

	if err := h.Handle(context.Background(), []byte(`not json`)); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestKafkaHandlerAccountFailureNotRedelivered(t *testing.T) {
	h, _ := newHandlerFixture(t)

	// unknown account fails the sync, but the message must still be consumed
	if err := h.Handle(context.Background(), []byte(`{"accountId":"nope"}`)); err != nil {
		t.Fatalf("per-account failure must not trigger redelivery: %v", err)
	}
}
