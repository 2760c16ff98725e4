package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Activity types recognized by the local ledger. Providers may report more
// granular kinds; they are mapped into these on normalization.
const (
	ActivityTypeBuy      = "BUY"
	ActivityTypeSell     = "SELL"
	ActivityTypeDividend = "DIVIDEND"
	ActivityTypeFee      = "FEE"
	ActivityTypeDeposit  = "DEPOSIT"
	ActivityTypeWithdraw = "WITHDRAWAL"
	ActivityTypeInterest = "INTEREST"
)

// ExternalActivity is a provider-native transaction record. It exists only
// for the duration of one sync pass and is never persisted directly.
type ExternalActivity struct {
	Symbol       string
	ActivityType string
	Date         time.Time
	Quantity     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	Currency     string
	Fee          *decimal.Decimal
	Amount       *decimal.Decimal
	Comment      string
}

// Activity is the canonical persisted ledger record. Immutable after insert;
// corrections happen outside the sync engine.
type Activity struct {
	ID           string           `json:"id"`
	AccountID    string           `json:"accountId"`
	AssetID      string           `json:"assetId"`
	ActivityType string           `json:"activityType"`
	ActivityDate time.Time        `json:"activityDate"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unitPrice,omitempty"`
	Currency     string           `json:"currency"`
	Fee          *decimal.Decimal `json:"fee,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	IsDraft      bool             `json:"isDraft"`
	Comment      string           `json:"comment,omitempty"`
}

// DedupKey identifies an activity for insert-if-absent purposes. Two records
// with the same key are considered the same external event.
func (a *Activity) DedupKey() string {
	amount := ""
	if a.Amount != nil {
		amount = a.Amount.String()
	}
	return a.AccountID + "|" + a.AssetID + "|" +
		a.ActivityDate.UTC().Format(time.RFC3339) + "|" +
		a.ActivityType + "|" + amount
}
