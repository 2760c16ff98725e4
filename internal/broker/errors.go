package broker

import (
	"errors"
	"fmt"
)

// Configuration errors. All recoverable: they fail one account's sync and are
// reported in the summary without aborting other accounts.
var (
	ErrNoLinkedPlatform       = errors.New("account has no linked platform")
	ErrMissingCredentials     = errors.New("missing platform credentials")
	ErrMalformedCredentials   = errors.New("malformed platform credentials")
	ErrUnsupportedPlatform    = errors.New("no broker provider registered for platform")
	ErrSecretStoreUnavailable = errors.New("secret store unavailable")
)

// ProviderErrorKind classifies failures surfaced by broker providers.
type ProviderErrorKind string

const (
	ProviderAuthFailed        ProviderErrorKind = "auth_failed"
	ProviderRateLimited       ProviderErrorKind = "rate_limited"
	ProviderUnavailable       ProviderErrorKind = "unavailable"
	ProviderMalformedResponse ProviderErrorKind = "malformed_response"
)

// ProviderError is a typed, non-transient provider failure. Transient
// transport hiccups are retried inside the provider and never escape as
// anything else.
type ProviderError struct {
	Kind     ProviderErrorKind
	Platform string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Platform, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Platform, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err as a typed provider failure.
func NewProviderError(kind ProviderErrorKind, platform string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Platform: platform, Err: err}
}

// AsProviderError unwraps err to a ProviderError if there is one in the chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsAuthFailed reports whether err is an authentication rejection. Callers use
// it to prompt for credential refresh instead of blind retries.
func IsAuthFailed(err error) bool {
	pe, ok := AsProviderError(err)
	return ok && pe.Kind == ProviderAuthFailed
}
