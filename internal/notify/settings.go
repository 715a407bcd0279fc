package notify

import (
	"context"
	"encoding/json"

	"garden-monitor/internal/db"
	"garden-monitor/internal/logging"
	"garden-monitor/internal/models"
)

const (
	emailSettingsKey    = "email-notification-settings"
	telegramSettingsKey = "telegram-notification-settings"
)

// SettingsStore persists the per-channel notification settings. Missing
// or corrupt storage falls back to disabled defaults; providers stay
// silent rather than failing.
type SettingsStore struct {
	kv  db.KV
	log *logging.Logger
}

func NewSettingsStore(kv db.KV, log *logging.Logger) *SettingsStore {
	return &SettingsStore{kv: kv, log: log}
}

func (s *SettingsStore) LoadEmail(ctx context.Context) models.EmailNotificationSettings {
	var settings models.EmailNotificationSettings
	s.load(ctx, emailSettingsKey, &settings)
	return settings
}

func (s *SettingsStore) SaveEmail(ctx context.Context, settings models.EmailNotificationSettings) error {
	return s.kv.PutSetting(ctx, emailSettingsKey, settings)
}

func (s *SettingsStore) LoadTelegram(ctx context.Context) models.TelegramNotificationSettings {
	var settings models.TelegramNotificationSettings
	s.load(ctx, telegramSettingsKey, &settings)
	return settings
}

func (s *SettingsStore) SaveTelegram(ctx context.Context, settings models.TelegramNotificationSettings) error {
	return s.kv.PutSetting(ctx, telegramSettingsKey, settings)
}

func (s *SettingsStore) load(ctx context.Context, key string, dest interface{}) {
	raw, err := s.kv.GetSetting(ctx, key)
	if err != nil {
		if err != db.ErrNoSetting {
			s.log.Warnf("Settings %s unreadable, notifications disabled: %v", key, err)
		}
		return
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Warnf("Settings %s corrupt, notifications disabled: %v", key, err)
	}
}
