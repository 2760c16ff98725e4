package broker

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"BrokerSync/internal/domain/models"
)

func TestNormalizeActivity(t *testing.T) {
	amt := decimal.NewFromInt(1500)
	loc := time.FixedZone("UTC+3", 3*3600)
	ext := models.ExternalActivity{
		Symbol:       "AAPL",
		ActivityType: "bought",
		Date:         time.Date(2025, 3, 1, 13, 0, 0, 0, loc),
		Currency:     "usd",
		Amount:       &amt,
		Comment:      "imported",
	}

	got := NormalizeActivity(ext, "acc-1", "asset-aapl")

	if got.ID != "" {
		t.Fatalf("id must stay unset, got %q", got.ID)
	}
	if got.IsDraft {
		t.Fatalf("broker records must not be drafts")
	}
	if got.ActivityType != models.ActivityTypeBuy {
		t.Fatalf("expected BUY, got %s", got.ActivityType)
	}
	if got.Currency != "USD" {
		t.Fatalf("expected upper-cased currency, got %s", got.Currency)
	}
	if got.ActivityDate.Location() != time.UTC {
		t.Fatalf("expected UTC date, got %v", got.ActivityDate.Location())
	}
	if !got.ActivityDate.Equal(ext.Date) {
		t.Fatalf("date must preserve the instant")
	}
	if got.AccountID != "acc-1" || got.AssetID != "asset-aapl" {
		t.Fatalf("unexpected ids %s/%s", got.AccountID, got.AssetID)
	}
}

func TestNormalizeActivityType(t *testing.T) {
	cases := map[string]string{
		"buy":        models.ActivityTypeBuy,
		"BOUGHT":     models.ActivityTypeBuy,
		"sold":       models.ActivityTypeSell,
		"div":        models.ActivityTypeDividend,
		"commission": models.ActivityTypeFee,
		"cash_in":    models.ActivityTypeDeposit,
		"cash_out":   models.ActivityTypeWithdraw,
		"interest":   models.ActivityTypeInterest,
		" split ":    "SPLIT",
	}
	for in, want := range cases {
		if got := NormalizeActivityType(in); got != want {
			t.Fatalf("NormalizeActivityType(%q) = %q, want %q", in, got, want)
		}
	}
}
