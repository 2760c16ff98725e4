package repository

import (
	"context"
	"errors"
	"time"

	"BrokerSync/internal/domain/models"
)

// ErrAssetNotFound is returned by AssetResolver when a symbol cannot be
// mapped to a local asset. The orchestrator treats it as a per-record skip.
var ErrAssetNotFound = errors.New("asset not found")

// Store failures. Fatal for the affected account's sync attempt.
var (
	ErrReadFailed  = errors.New("store read failed")
	ErrWriteFailed = errors.New("store write failed")
)

// BrokerProvider fetches provider-native activity records. since == nil means
// full available history; otherwise only records strictly newer than since.
// Each call is a fresh fetch; results are unordered.
type BrokerProvider interface {
	FetchActivities(ctx context.Context, since *time.Time) ([]models.ExternalActivity, error)
}

// ActivityStore is the persistence boundary of the sync engine. Writes are
// serialized through a single writer; reads may run concurrently with them.
type ActivityStore interface {
	// MaxActivityDate returns the latest persisted activity date for the
	// account, or nil if the account has no activities yet.
	MaxActivityDate(ctx context.Context, accountID string) (*time.Time, error)
	// InsertActivities durably writes the batch as a unit. Records already
	// present (by dedup key) are silently dropped, not errors. Returns the
	// number of rows actually written.
	InsertActivities(ctx context.Context, batch []models.Activity) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// AccountStore provides read-only access to local accounts.
type AccountStore interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	// ListLinked returns accounts that have a linked platform.
	ListLinked(ctx context.Context) ([]models.Account, error)
}

// AssetResolver maps a provider symbol to a local asset identifier.
type AssetResolver interface {
	Resolve(ctx context.Context, symbol, currency string) (string, error)
}

// SecretStore is a namespaced key/value store for credential bundles.
// Implementations must never log stored values.
type SecretStore interface {
	// GetSecret returns the stored value and whether it was present.
	GetSecret(ctx context.Context, key string) (string, bool, error)
	SetSecret(ctx context.Context, key, value string) error
}

// PlatformsService manages broker platform settings and credential presence.
type PlatformsService interface {
	List(ctx context.Context) ([]models.BrokerPlatformSetting, error)
	SetEnabled(ctx context.Context, platformID string, enabled bool) (*models.BrokerPlatformSetting, error)
	HasSecrets(ctx context.Context, platformID string) (bool, error)
	SetSecrets(ctx context.Context, platformID, secretsJSON string) error
	// IsEnabled reports whether syncing is enabled for the platform.
	IsEnabled(ctx context.Context, platformID string) (bool, error)
}

// SyncPublisher emits per-account sync results to an event stream.
type SyncPublisher interface {
	PublishResult(ctx context.Context, res *models.SyncResult) error
	Close() error
}

// Metrics records sync engine telemetry.
type Metrics interface {
	RecordActivities(platform string, inserted, skipped int64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordLastSync(platform string, t time.Time)
}
