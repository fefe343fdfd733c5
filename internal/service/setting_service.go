package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// SettingService manages key/value application settings (notifier SMTP
// configuration and similar).
type SettingService struct {
	settings SettingStore
	log      zerolog.Logger
}

// NewSettingService creates a new SettingService.
func NewSettingService(settings SettingStore, log zerolog.Logger) *SettingService {
	return &SettingService{
		settings: settings,
		log:      log.With().Str("component", "setting_service").Logger(),
	}
}

// GetAll returns every setting as a map.
func (s *SettingService) GetAll(ctx context.Context) (map[string]string, error) {
	return s.settings.GetAll(ctx)
}

// UpdateAll upserts the given settings.
func (s *SettingService) UpdateAll(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if err := s.settings.Set(ctx, key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	s.log.Info().Int("count", len(values)).Msg("Settings updated")
	return nil
}
