package models

// Account is a local financial account. The sync engine only reads accounts;
// their lifecycle is owned by the broader application.
type Account struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	PlatformID string `json:"platformId,omitempty"` // empty = not linked to a broker
}

// Linked reports whether the account is linked to a broker platform.
func (a *Account) Linked() bool { return a.PlatformID != "" }
