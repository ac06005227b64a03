package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/takeoff/internal/domain"
	"github.com/alexanderramin/takeoff/internal/persist"
)

// SettingsStore owns the current settings. Every setter validates first and
// writes through immediately.
type SettingsStore struct {
	mu       sync.RWMutex
	current  domain.Settings
	loaded   bool
	errMsg   string
	readErr  error
	writeMu  sync.Mutex
	p        SettingsPersistence
	defaults domain.Settings
	observer Observer
}

// SettingsOption configures a SettingsStore.
type SettingsOption func(*SettingsStore)

func WithSettingsObserver(o Observer) SettingsOption {
	return func(s *SettingsStore) { s.observer = observerOrNoop(o) }
}

// WithDefaults overrides the values used for missing fields and by Reset.
func WithDefaults(d domain.Settings) SettingsOption {
	return func(s *SettingsStore) { s.defaults = d }
}

func NewSettingsStore(p SettingsPersistence, defaults domain.Settings, opts ...SettingsOption) *SettingsStore {
	s := &SettingsStore{p: p, defaults: defaults, observer: NoopObserver{}}
	for _, opt := range opts {
		opt(s)
	}
	s.current = s.defaults
	return s
}

// NewLocalSettingsStore keeps settings in adapter with the local defaults.
func NewLocalSettingsStore(adapter persist.SettingsAdapter, opts ...SettingsOption) *SettingsStore {
	return NewSettingsStore(NewLocalSettings(adapter), domain.DefaultSettings(), opts...)
}

// NewRemoteSettingsStore reads and writes settings through api with the
// backend defaults.
func NewRemoteSettingsStore(api SettingsAPI, opts ...SettingsOption) *SettingsStore {
	return NewSettingsStore(NewRemoteSettings(api), domain.BackendDefaultSettings(), opts...)
}

// Load reads persisted settings over the defaults. A missing, malformed or
// invalid local record falls back to the defaults without error. A storage
// failure keeps the defaults in effect, is returned, and blocks local
// writes until a later Load succeeds.
func (s *SettingsStore) Load(ctx context.Context) error {
	started := time.Now()
	loaded, err := s.p.Load(ctx, s.defaults)
	if err == nil {
		err = domain.ValidateSettings(loaded)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	if err != nil {
		s.current = s.defaults
		if s.p.Optimistic() {
			switch {
			case errors.Is(err, persist.ErrNoSnapshot):
				s.readErr = nil
				return nil
			case errors.Is(err, domain.ErrInvalidSettings):
				s.readErr = nil
				observe(ctx, s.observer, "settings.load", started, err, map[string]any{"fallback": "defaults"})
				return nil
			}
			err = fmt.Errorf("loading settings: %w", err)
			s.errMsg = err.Error()
			s.readErr = err
			observe(ctx, s.observer, "settings.load", started, err, nil)
			return err
		}
		err = fmt.Errorf("loading settings: %w", err)
		s.errMsg = err.Error()
		observe(ctx, s.observer, "settings.load", started, err, nil)
		return err
	}
	s.current = loaded
	s.errMsg = ""
	s.readErr = nil
	observe(ctx, s.observer, "settings.load", started, nil, nil)
	return nil
}

func (s *SettingsStore) Current() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Location resolves the configured timezone, falling back to UTC.
func (s *SettingsStore) Location() *time.Location {
	return resolveLocation(s.Current().Timezone)
}

func (s *SettingsStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Err returns the message of the last failed backend operation, or "".
func (s *SettingsStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

func (s *SettingsStore) Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	return s.change(ctx, "settings.update", func(cur *domain.Settings) { patch.Apply(cur) })
}

func (s *SettingsStore) SetWorkingHours(ctx context.Context, start, end string) (domain.Settings, error) {
	return s.change(ctx, "settings.set_working_hours", func(cur *domain.Settings) {
		cur.WorkingHours = domain.WorkingHours{Start: start, End: end}
	})
}

func (s *SettingsStore) SetDefaultSlotMinutes(ctx context.Context, minutes int) (domain.Settings, error) {
	return s.change(ctx, "settings.set_default_slot", func(cur *domain.Settings) {
		cur.DefaultSlotMinutes = minutes
	})
}

func (s *SettingsStore) SetMaxHoursPerDay(ctx context.Context, hours int) (domain.Settings, error) {
	return s.change(ctx, "settings.set_max_hours", func(cur *domain.Settings) {
		cur.MaxHoursPerDay = hours
	})
}

func (s *SettingsStore) ToggleDeepWork(ctx context.Context) (domain.Settings, error) {
	return s.change(ctx, "settings.toggle_deep_work", func(cur *domain.Settings) {
		cur.DeepWorkInMorning = !cur.DeepWorkInMorning
	})
}

// Reset restores the defaults.
func (s *SettingsStore) Reset(ctx context.Context) (domain.Settings, error) {
	return s.change(ctx, "settings.reset", func(cur *domain.Settings) {
		*cur = s.defaults
	})
}

func (s *SettingsStore) change(ctx context.Context, op string, fn func(*domain.Settings)) (domain.Settings, error) {
	started := time.Now()

	if !s.p.Optimistic() {
		next := s.Current()
		fn(&next)
		if err := domain.ValidateSettings(next); err != nil {
			observe(ctx, s.observer, op, started, err, nil)
			return s.Current(), err
		}
		saved, err := s.p.Save(ctx, next)
		if err != nil {
			err = fmt.Errorf("saving settings: %w", err)
			s.mu.Lock()
			s.errMsg = err.Error()
			s.mu.Unlock()
			observe(ctx, s.observer, op, started, err, nil)
			return s.Current(), err
		}
		saved = domain.MergeSettings(s.defaults, saved)
		s.mu.Lock()
		s.current = saved
		s.errMsg = ""
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, nil, nil)
		return saved, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if s.readErr != nil {
		err := fmt.Errorf("%w: %v", ErrUnreadable, s.readErr)
		cur := s.current
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, err, nil)
		return cur, err
	}
	next := s.current
	fn(&next)
	if err := domain.ValidateSettings(next); err != nil {
		s.mu.Unlock()
		observe(ctx, s.observer, op, started, err, nil)
		return s.Current(), err
	}
	s.current = next
	s.mu.Unlock()

	if _, err := s.p.Save(ctx, next); err != nil {
		observe(ctx, s.observer, op, started, err, map[string]any{"optimistic": true})
		return next, nil
	}
	observe(ctx, s.observer, op, started, nil, nil)
	return next, nil
}
