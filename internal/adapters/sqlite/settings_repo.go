package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tickerping/tickerping/internal/domain"
)

// SettingsRepository persiste les réglages en ligne unique (id = 1).
// Get sans ligne renvoie les défauts sans erreur.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT scan_batch_size, max_concurrent_checks, market_data_token, market_data_base_url
		FROM settings WHERE id = 1
	`).Scan(&s.ScanBatchSize, &s.MaxConcurrentChecks, &s.MarketDataToken, &s.MarketDataBaseURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, err
	}
	return s, nil
}

func (r *SettingsRepository) Put(ctx context.Context, s domain.Settings) (domain.Settings, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings(id, scan_batch_size, max_concurrent_checks, market_data_token, market_data_base_url, updated_at)
		VALUES(1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scan_batch_size = excluded.scan_batch_size,
			max_concurrent_checks = excluded.max_concurrent_checks,
			market_data_token = excluded.market_data_token,
			market_data_base_url = excluded.market_data_base_url,
			updated_at = excluded.updated_at
	`, s.ScanBatchSize, s.MaxConcurrentChecks, s.MarketDataToken, s.MarketDataBaseURL,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return domain.Settings{}, err
	}
	return r.Get(ctx)
}
