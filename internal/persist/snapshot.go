package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/takeoff/internal/domain"
)

const (
	// EventsKey is the storage key of the event snapshot.
	EventsKey = "takeoff.events.v1"
	// SettingsKey is the storage key of the settings record.
	SettingsKey = "takeoff.settings.v1"
	// SnapshotVersion is the only snapshot version Read accepts.
	SnapshotVersion = 1
)

// ErrNoSnapshot means there is no usable snapshot: it is absent, carries
// another version, or does not decode.
var ErrNoSnapshot = errors.New("no snapshot")

// Snapshot is the full persisted event collection.
type Snapshot struct {
	Version int            `json:"version"`
	Events  []domain.Event `json:"events"`
}

// SnapshotAdapter reads and writes whole event snapshots.
type SnapshotAdapter interface {
	Read(ctx context.Context) (*Snapshot, error)
	Write(ctx context.Context, s Snapshot) error
}

// SnapshotStore is a SnapshotAdapter over a Storage.
type SnapshotStore struct {
	storage Storage
	key     string
}

// NewSnapshotStore stores snapshots under EventsKey.
func NewSnapshotStore(storage Storage) *SnapshotStore {
	return &SnapshotStore{storage: storage, key: EventsKey}
}

// Read returns the stored snapshot. Any unusable content yields an error
// wrapping ErrNoSnapshot; storage failures are returned as-is.
func (s *SnapshotStore) Read(ctx context.Context) (*Snapshot, error) {
	raw, ok, err := s.storage.GetItem(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if !ok {
		return nil, ErrNoSnapshot
	}

	var probe struct {
		Version *int             `json:"version"`
		Events  *json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, fmt.Errorf("%w: malformed: %v", ErrNoSnapshot, err)
	}
	if probe.Version == nil || *probe.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version", ErrNoSnapshot)
	}
	if probe.Events == nil {
		return nil, fmt.Errorf("%w: missing events", ErrNoSnapshot)
	}

	snap := Snapshot{Version: *probe.Version}
	if err := json.Unmarshal(*probe.Events, &snap.Events); err != nil {
		return nil, fmt.Errorf("%w: malformed events: %v", ErrNoSnapshot, err)
	}
	if snap.Events == nil {
		return nil, fmt.Errorf("%w: events is not a list", ErrNoSnapshot)
	}
	for _, e := range snap.Events {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: event without id", ErrNoSnapshot)
		}
		if err := domain.ValidateEvent(e); err != nil {
			return nil, fmt.Errorf("%w: event %s: %v", ErrNoSnapshot, e.ID, err)
		}
	}
	return &snap, nil
}

// Write stores snap, stamping the current version.
func (s *SnapshotStore) Write(ctx context.Context, snap Snapshot) error {
	snap.Version = SnapshotVersion
	if snap.Events == nil {
		snap.Events = []domain.Event{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.storage.SetItem(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Clear removes the stored snapshot.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	return s.storage.RemoveItem(ctx, s.key)
}
