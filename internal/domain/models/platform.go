package models

// Platform describes a broker platform known to this deployment. The static
// part (id, name, url) comes from configuration; the enabled flag and the
// credential state are mutable and live in external stores.
type Platform struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// BrokerPlatformSetting is the settings projection handed to the host layer.
// Secrets themselves are never part of it, only their presence.
type BrokerPlatformSetting struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	URL        string `json:"url"`
	Enabled    bool   `json:"enabled"`
	HasSecrets bool   `json:"hasSecrets"`
}
