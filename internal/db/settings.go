package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrNoSetting is returned when a settings key has never been written.
var ErrNoSetting = errors.New("setting not found")

// KV is the durable key-value surface the settings stores are built on.
// *DB implements it against the app_settings table; tests substitute an
// in-memory map.
type KV interface {
	GetSetting(ctx context.Context, key string) (json.RawMessage, error)
	PutSetting(ctx context.Context, key string, value interface{}) error
	DeleteSetting(ctx context.Context, key string) error
}

// GetSetting returns the stored JSON document for key, or ErrNoSetting.
func (d *DB) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := d.Pool.QueryRow(ctx,
		`SELECT value FROM app_settings WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSetting
		}
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return raw, nil
}

// PutSetting marshals value and upserts it under key.
func (d *DB) PutSetting(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", key, err)
	}
	_, err = d.Pool.Exec(ctx, `
        INSERT INTO app_settings (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, data)
	if err != nil {
		return fmt.Errorf("failed to put setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes key; deleting an absent key is not an error.
func (d *DB) DeleteSetting(ctx context.Context, key string) error {
	_, err := d.Pool.Exec(ctx, `DELETE FROM app_settings WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
