package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rsravisharma/swap-web-sub002/internal/model"
)

var (
	ErrSettingNotFound    = errors.New("setting not found")
	ErrInvalidCoinSetting = errors.New("invalid coin setting")
)

// Only rows holding a plain non-negative integer count as coin amounts.
const coinValuePattern = `^[0-9]{1,18}$`

// GetCoinSetting returns the coin amount stored under key. A row whose value
// is not a coin amount reads as not found.
func (r *Repository) GetCoinSetting(ctx context.Context, key string) (int64, error) {
	var coins int64
	err := r.db.GetContext(ctx, &coins, `
		SELECT value::bigint FROM settings
		WHERE key = $1 AND value ~ $2`, key, coinValuePattern)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSettingNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return coins, nil
}

// SetCoinSetting stores a coin amount override and returns the stored row.
func (r *Repository) SetCoinSetting(ctx context.Context, key string, coins int64) (*model.CoinSetting, error) {
	if !model.IsCoinSetting(key) || coins < 0 {
		return nil, ErrInvalidCoinSetting
	}

	var setting model.CoinSetting
	err := r.db.GetContext(ctx, &setting, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2::bigint::text, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING key, value::bigint AS coins, updated_at`, key, coins)
	if err != nil {
		return nil, fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return &setting, nil
}

// ListCoinSettings returns the stored coin overrides ordered by key. Rows for
// unknown keys or with non-numeric values are skipped.
func (r *Repository) ListCoinSettings(ctx context.Context) ([]model.CoinSetting, error) {
	var rows []model.CoinSetting
	err := r.db.SelectContext(ctx, &rows, `
		SELECT key, value::bigint AS coins, updated_at FROM settings
		WHERE value ~ $1
		ORDER BY key`, coinValuePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	settings := rows[:0]
	for _, s := range rows {
		if model.IsCoinSetting(s.Key) {
			settings = append(settings, s)
		}
	}
	return settings, nil
}
