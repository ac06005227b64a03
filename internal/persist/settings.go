package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/takeoff/internal/domain"
)

// SettingsAdapter reads and writes the settings record.
type SettingsAdapter interface {
	// Read decodes the persisted record over defaults, so missing fields keep
	// their default values.
	Read(ctx context.Context, defaults domain.Settings) (domain.Settings, error)
	Write(ctx context.Context, s domain.Settings) error
}

// SettingsFile is a SettingsAdapter over a Storage.
type SettingsFile struct {
	storage Storage
}

// NewSettingsFile stores settings under SettingsKey.
func NewSettingsFile(storage Storage) *SettingsFile {
	return &SettingsFile{storage: storage}
}

func (f *SettingsFile) Read(ctx context.Context, defaults domain.Settings) (domain.Settings, error) {
	raw, ok, err := f.storage.GetItem(ctx, SettingsKey)
	if err != nil {
		return defaults, fmt.Errorf("reading settings: %w", err)
	}
	if !ok {
		return defaults, ErrNoSnapshot
	}
	s := defaults
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return defaults, fmt.Errorf("%w: malformed settings: %v", ErrNoSnapshot, err)
	}
	return s, nil
}

func (f *SettingsFile) Write(ctx context.Context, s domain.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := f.storage.SetItem(ctx, SettingsKey, string(data)); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
