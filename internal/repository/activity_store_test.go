package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"BrokerSync/internal/domain/models"
)

func TestParseStoredAmountCanonicalizes(t *testing.T) {
	// ClickHouse renders Decimal(38,18) with full trailing zeros
	got := parseStoredAmount("12.500000000000000000")
	if got == nil {
		t.Fatalf("expected parsed amount")
	}
	if got.String() != "12.5" {
		t.Fatalf("expected canonical 12.5, got %s", got.String())
	}
}

func TestParseStoredAmountEmpty(t *testing.T) {
	if got := parseStoredAmount(""); got != nil {
		t.Fatalf("empty string must map to nil amount, got %v", got)
	}
}

func TestStoredRowMatchesInMemoryKey(t *testing.T) {
	amt := decimal.NewFromFloat(12.5)
	mem := models.Activity{
		AccountID:    "acc-1",
		AssetID:      "asset-1",
		ActivityType: models.ActivityTypeBuy,
		ActivityDate: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Amount:       &amt,
	}
	stored := models.Activity{
		AccountID:    "acc-1",
		AssetID:      "asset-1",
		ActivityType: models.ActivityTypeBuy,
		ActivityDate: mem.ActivityDate,
		Amount:       parseStoredAmount("12.500000000000000000"),
	}

	if mem.DedupKey() != stored.DedupKey() {
		t.Fatalf("stored row must dedup against its source record:\n%s\n%s",
			mem.DedupKey(), stored.DedupKey())
	}
}

func TestDecArgNil(t *testing.T) {
	if decArg(nil) != nil {
		t.Fatalf("nil decimal must bind as NULL")
	}
	d := decimal.NewFromInt(3)
	if decArg(&d) == nil {
		t.Fatalf("non-nil decimal must bind a value")
	}
}
