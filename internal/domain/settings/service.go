package settings

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"
)

// Store owns the in-memory ConfigurationRecord and writes through to the Repository
// after every mutation. It is not safe for concurrent use: the controller loop owns it.
type Store struct {
	repo    Repository
	log     *slog.Logger
	current Record
}

func NewStore(repo Repository, log *slog.Logger) *Store {
	return &Store{
		repo: repo,
		log:  log.With(slog.String("component", "config_store")),
	}
}

// Load reads the record from persistence. On failure the store keeps an empty record,
// which callers see as an unprovisioned terminal.
func (s *Store) Load(ctx context.Context) (Record, error) {
	rec, err := s.repo.Load(ctx)
	if err != nil {
		s.current = Record{}
		return Record{}, fmt.Errorf("load configuration: %w", err)
	}

	s.current = rec.Normalize()
	s.log.Info("configuration loaded", recordAttrs(s.current)...)

	return s.current, nil
}

// Record returns a copy of the current record.
func (s *Store) Record() Record {
	return s.current
}

// Get returns one field of the current record.
func (s *Store) Get(f Field) string {
	return s.current.Get(f)
}

// SetAll replaces the whole record (truncating every field) and persists it.
func (s *Store) SetAll(ctx context.Context, rec Record) error {
	s.current = rec.Normalize()
	return s.Persist(ctx, s.current)
}

// Set replaces a single field and persists the record.
func (s *Store) Set(ctx context.Context, f Field, value string) error {
	if !f.valid() {
		return fmt.Errorf("%w: %d", ErrUnknownField, int(f))
	}
	return s.SetAll(ctx, s.current.With(f, value))
}

// Apply merges a sparse patch. The record is persisted only when a value actually changed.
func (s *Store) Apply(ctx context.Context, p Patch) (bool, error) {
	next, changed := s.current.Apply(p)
	if !changed {
		s.log.Debug("no configuration changes detected")
		return false, nil
	}

	for _, f := range p.Fields() {
		s.log.Info("configuration field updated", slog.String("field", f.String()))
	}

	return true, s.SetAll(ctx, next)
}

// Persist writes rec to the repository.
func (s *Store) Persist(ctx context.Context, rec Record) error {
	if err := s.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("persist configuration: %w", err)
	}

	s.log.Info("configuration saved", recordAttrs(rec)...)
	return nil
}

func recordAttrs(rec Record) []any {
	m := rec.Masked()
	return []any{
		slog.String("ssid", m.SSID),
		slog.String("password", m.Password),
		slog.String("endpoint", m.Endpoint),
		slog.String("terminal_id", m.TerminalID),
		slog.String("auth_key", m.AuthKey),
	}
}
