package storage

import (
	"fmt"
	"io"

	"golang.org/x/exp/slog"

	"accessterm/internal/app/terminal/config"
	"accessterm/internal/domain/settings"
	"accessterm/internal/infrastructure/migration"
	"accessterm/internal/infrastructure/storage/eeprom"
	"accessterm/internal/infrastructure/storage/sqlite"
)

// Settings is a settings.Repository that may hold resources.
type Settings interface {
	settings.Repository
	io.Closer
}

type nopCloser struct {
	settings.Repository
}

func (nopCloser) Close() error { return nil }

type sqliteSettings struct {
	*sqlite.SettingsRepository
	db *sqlite.Storage
}

func (s sqliteSettings) Close() error { return s.db.Close() }

// Open builds the persistence collaborator selected by cfg.Store.Driver.
func Open(cfg config.Store, log *slog.Logger) (Settings, error) {
	switch cfg.Driver {
	case config.StoreSQLite:
		db, err := sqlite.New(cfg.Path, migration.DefaultEngine)
		if err != nil {
			return nil, err
		}
		return sqliteSettings{SettingsRepository: sqlite.NewSettingsRepository(db, log), db: db}, nil
	case config.StoreEEPROM:
		return nopCloser{eeprom.NewSettingsRepository(cfg.Path, log)}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
