package migration

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Blank import required for SQLite driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var migrations embed.FS

// Migrator is the subset of migrate.Migrate used here.
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine builds a Migrator for a database URL, so tests never touch a real database.
type MigrationEngine func(databaseURL string) (Migrator, error)

type Migration struct {
	dbPath string
	engine MigrationEngine
}

func NewMigration(dbPath string, engine MigrationEngine) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{
		dbPath: dbPath,
		engine: engine,
	}
}

// DefaultEngine reads the embedded SQL files.
func DefaultEngine(databaseURL string) (Migrator, error) {
	src, err := iofs.New(migrations, "sql")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", src, databaseURL)
}

func (mg *Migration) Up() (err error) {
	m, err := mg.engine("sqlite3://" + mg.dbPath)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			err = errors.Join(err, fmt.Errorf("migration source error: %w", serr))
		}
		if dberr != nil {
			err = errors.Join(err, fmt.Errorf("migration database error: %w", dberr))
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}
