package platforms

import (
	"context"
	"fmt"

	"BrokerSync/internal/broker"
	"BrokerSync/internal/domain/models"
	"BrokerSync/internal/domain/repository"
	pkgredis "BrokerSync/pkg/redis"
)

const enabledKeyPrefix = "platform_enabled:"

// Service manages broker platform settings. The static declarations (id,
// name, url) come from configuration; the enabled flag lives in Redis and the
// credential bundles in the secret store. Platforms are disabled until
// explicitly enabled.
type Service struct {
	platforms []models.Platform
	state     *pkgredis.Client
	secrets   repository.SecretStore
}

func New(platforms []models.Platform, state *pkgredis.Client, secrets repository.SecretStore) *Service {
	return &Service{platforms: platforms, state: state, secrets: secrets}
}

// List returns the settings projection for every declared platform.
func (s *Service) List(ctx context.Context) ([]models.BrokerPlatformSetting, error) {
	out := make([]models.BrokerPlatformSetting, 0, len(s.platforms))
	for _, p := range s.platforms {
		enabled, err := s.IsEnabled(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		hasSecrets, err := s.HasSecrets(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.BrokerPlatformSetting{
			ID:         p.ID,
			Name:       p.Name,
			URL:        p.URL,
			Enabled:    enabled,
			HasSecrets: hasSecrets,
		})
	}
	return out, nil
}

func (s *Service) SetEnabled(ctx context.Context, platformID string, enabled bool) (*models.BrokerPlatformSetting, error) {
	p, ok := s.find(platformID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", broker.ErrUnsupportedPlatform, platformID)
	}

	v := "0"
	if enabled {
		v = "1"
	}
	if err := s.state.Set(ctx, enabledKeyPrefix+platformID, v); err != nil {
		return nil, fmt.Errorf("set platform enabled: %w", err)
	}

	hasSecrets, err := s.HasSecrets(ctx, platformID)
	if err != nil {
		return nil, err
	}
	return &models.BrokerPlatformSetting{
		ID:         p.ID,
		Name:       p.Name,
		URL:        p.URL,
		Enabled:    enabled,
		HasSecrets: hasSecrets,
	}, nil
}

func (s *Service) IsEnabled(ctx context.Context, platformID string) (bool, error) {
	v, found, err := s.state.Get(ctx, enabledKeyPrefix+platformID)
	if err != nil {
		return false, fmt.Errorf("get platform enabled: %w", err)
	}
	return found && v == "1", nil
}

func (s *Service) HasSecrets(ctx context.Context, platformID string) (bool, error) {
	v, found, err := s.secrets.GetSecret(ctx, broker.SecretKey(platformID))
	if err != nil {
		return false, fmt.Errorf("check platform secrets: %w", err)
	}
	return found && v != "", nil
}

// SetSecrets stores a credential bundle. The bundle is parsed first so a
// malformed payload is rejected instead of breaking every later sync. Neither
// path logs or returns the payload.
func (s *Service) SetSecrets(ctx context.Context, platformID, secretsJSON string) error {
	if _, ok := s.find(platformID); !ok {
		return fmt.Errorf("%w: %s", broker.ErrUnsupportedPlatform, platformID)
	}
	if _, err := broker.ParseCredentials(secretsJSON); err != nil {
		return err
	}
	if err := s.secrets.SetSecret(ctx, broker.SecretKey(platformID), secretsJSON); err != nil {
		return fmt.Errorf("store platform secrets: %w", err)
	}
	return nil
}

func (s *Service) find(platformID string) (models.Platform, bool) {
	for _, p := range s.platforms {
		if p.ID == platformID {
			return p, true
		}
	}
	return models.Platform{}, false
}

var _ repository.PlatformsService = (*Service)(nil)
