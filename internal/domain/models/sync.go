package models

import "time"

// SyncResult is the outcome of syncing one account.
type SyncResult struct {
	AccountID  string    `json:"accountId"`
	PlatformID string    `json:"platformId,omitempty"`
	Inserted   int64     `json:"inserted"`
	Skipped    int64     `json:"skipped"`
	SyncedAt   time.Time `json:"syncedAt"`
	Error      string    `json:"error,omitempty"`
}

// Failed reports whether the account sync ended with a fatal error.
func (r *SyncResult) Failed() bool { return r.Error != "" }

// SyncFailure is one per-account failure inside a summary.
type SyncFailure struct {
	AccountID string `json:"accountId"`
	Cause     string `json:"cause"`
}

// SyncSummary aggregates a full sync pass over all eligible accounts.
type SyncSummary struct {
	AccountsAttempted int           `json:"accountsAttempted"`
	Inserted          int64         `json:"inserted"`
	Skipped           int64         `json:"skipped"`
	Failures          []SyncFailure `json:"failures"`
	StartedAt         time.Time     `json:"startedAt"`
	FinishedAt        time.Time     `json:"finishedAt"`
}
