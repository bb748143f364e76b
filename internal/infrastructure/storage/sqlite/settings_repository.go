package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"accessterm/internal/domain/settings"
)

// SettingsRepository keeps the single configuration row (id = 1).
type SettingsRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewSettingsRepository(db *Storage, log *slog.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:  db,
		log: log.With(slog.String("component", "sqlite_settings")),
	}
}

func (r *SettingsRepository) Load(ctx context.Context) (settings.Record, error) {
	var rec settings.Record
	err := r.db.DB().QueryRowContext(ctx,
		`SELECT ssid, password, endpoint, terminal_id, auth_key
		 FROM terminal_settings WHERE id = 1`,
	).Scan(&rec.SSID, &rec.Password, &rec.Endpoint, &rec.TerminalID, &rec.AuthKey)

	if errors.Is(err, sql.ErrNoRows) {
		r.log.Debug("no stored configuration, starting empty")
		return settings.Record{}, nil
	}
	if err != nil {
		return settings.Record{}, fmt.Errorf("select settings: %w", err)
	}

	return rec, nil
}

func (r *SettingsRepository) Save(ctx context.Context, rec settings.Record) error {
	_, err := r.db.DB().ExecContext(ctx,
		`INSERT INTO terminal_settings (id, ssid, password, endpoint, terminal_id, auth_key, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		     ssid = excluded.ssid,
		     password = excluded.password,
		     endpoint = excluded.endpoint,
		     terminal_id = excluded.terminal_id,
		     auth_key = excluded.auth_key,
		     updated_at = excluded.updated_at`,
		rec.SSID, rec.Password, rec.Endpoint, rec.TerminalID, rec.AuthKey)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	return nil
}
