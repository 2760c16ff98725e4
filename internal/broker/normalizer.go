package broker

import (
	"strings"

	"BrokerSync/internal/domain/models"
)

// NormalizeActivity maps a provider-native record into the local activity
// shape. The persistence id stays unset (assigned by the store on insert) and
// broker-sourced records are never drafts.
func NormalizeActivity(ext models.ExternalActivity, accountID, assetID string) models.Activity {
	return models.Activity{
		AccountID:    accountID,
		AssetID:      assetID,
		ActivityType: NormalizeActivityType(ext.ActivityType),
		ActivityDate: ext.Date.UTC(),
		Quantity:     ext.Quantity,
		UnitPrice:    ext.UnitPrice,
		Currency:     strings.ToUpper(ext.Currency),
		Fee:          ext.Fee,
		Amount:       ext.Amount,
		IsDraft:      false,
		Comment:      ext.Comment,
	}
}

// NormalizeActivityType maps the looser provider vocabulary onto local
// activity types. Unknown kinds pass through upper-cased so nothing is lost.
func NormalizeActivityType(t string) string {
	switch strings.ToUpper(strings.TrimSpace(t)) {
	case "BUY", "BOUGHT", "PURCHASE":
		return models.ActivityTypeBuy
	case "SELL", "SOLD", "SALE":
		return models.ActivityTypeSell
	case "DIVIDEND", "DIV":
		return models.ActivityTypeDividend
	case "FEE", "COMMISSION":
		return models.ActivityTypeFee
	case "DEPOSIT", "CASH_IN":
		return models.ActivityTypeDeposit
	case "WITHDRAWAL", "CASH_OUT":
		return models.ActivityTypeWithdraw
	case "INTEREST":
		return models.ActivityTypeInterest
	default:
		return strings.ToUpper(strings.TrimSpace(t))
	}
}
