package models

// Requests for the broker settings and sync HTTP endpoints. Defined in domain
// for consistency and reuse.

type UpdatePlatformRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type SetSecretsRequest struct {
	// Opaque credential bundle, stored verbatim and never echoed back.
	Secrets map[string]string `json:"secrets" validate:"required,min=1"`
}

type SyncAccountRequest struct {
	AccountID string `param:"id" validate:"required"`
}
