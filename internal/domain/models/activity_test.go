package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDedupKeyStable(t *testing.T) {
	amt := decimal.NewFromInt(100)
	a := Activity{
		AccountID:    "acc-1",
		AssetID:      "asset-1",
		ActivityType: ActivityTypeBuy,
		ActivityDate: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Amount:       &amt,
	}
	b := a
	b.ID = "different-id"
	b.Comment = "different comment"

	if a.DedupKey() != b.DedupKey() {
		t.Fatalf("key must ignore id and comment")
	}
}

func TestDedupKeyDistinguishes(t *testing.T) {
	amt := decimal.NewFromInt(100)
	base := Activity{
		AccountID:    "acc-1",
		AssetID:      "asset-1",
		ActivityType: ActivityTypeBuy,
		ActivityDate: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Amount:       &amt,
	}

	other := base
	otherAmt := decimal.NewFromInt(200)
	other.Amount = &otherAmt
	if base.DedupKey() == other.DedupKey() {
		t.Fatalf("key must reflect amount")
	}

	other = base
	other.ActivityDate = base.ActivityDate.Add(time.Hour)
	if base.DedupKey() == other.DedupKey() {
		t.Fatalf("key must reflect date")
	}

	other = base
	other.ActivityType = ActivityTypeSell
	if base.DedupKey() == other.DedupKey() {
		t.Fatalf("key must reflect type")
	}
}

func TestDedupKeyTimezoneInsensitive(t *testing.T) {
	amt := decimal.NewFromInt(100)
	loc := time.FixedZone("UTC+2", 2*3600)
	a := Activity{
		AccountID:    "acc-1",
		AssetID:      "asset-1",
		ActivityType: ActivityTypeBuy,
		ActivityDate: time.Date(2025, 3, 1, 12, 0, 0, 0, loc),
		Amount:       &amt,
	}
	b := a
	b.ActivityDate = a.ActivityDate.UTC()

	if a.DedupKey() != b.DedupKey() {
		t.Fatalf("same instant in different zones must share a key")
	}
}
