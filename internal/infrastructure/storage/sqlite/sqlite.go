package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// sqlite3 driver registration
	_ "github.com/mattn/go-sqlite3"

	"accessterm/internal/infrastructure/migration"
)

type Storage struct {
	db *sql.DB
}

// New migrates the schema at path and opens it.
func New(path string, engine migration.MigrationEngine) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	if err := migration.NewMigration(path, engine).Up(); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) Close() error {
	return s.db.Close()
}
