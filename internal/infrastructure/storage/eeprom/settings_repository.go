package eeprom

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/exp/slog"

	"accessterm/internal/domain/settings"
)

// SettingsRepository persists the record in a byte-compatible EEPROM image file.
type SettingsRepository struct {
	path string
	log  *slog.Logger
}

func NewSettingsRepository(path string, log *slog.Logger) *SettingsRepository {
	return &SettingsRepository{
		path: path,
		log:  log.With(slog.String("component", "eeprom_settings")),
	}
}

func (r *SettingsRepository) Load(_ context.Context) (settings.Record, error) {
	image, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.log.Debug("no eeprom image, starting empty", slog.String("path", r.path))
		return settings.Record{}, nil
	}
	if err != nil {
		return settings.Record{}, fmt.Errorf("read eeprom image: %w", err)
	}

	return Decode(image)
}

// Save rewrites the settings region and keeps any bytes beyond it untouched.
func (r *SettingsRepository) Save(_ context.Context, rec settings.Record) error {
	image := make([]byte, Size)
	for i := range image {
		image[i] = erased
	}

	if existing, err := os.ReadFile(r.path); err == nil {
		copy(image, existing)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read eeprom image: %w", err)
	}

	copy(image, Encode(rec))

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("create eeprom directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, image, 0o600); err != nil {
		return fmt.Errorf("write eeprom image: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("commit eeprom image: %w", err)
	}

	return nil
}
