package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alexanderramin/takeoff/internal/config"
	"github.com/alexanderramin/takeoff/internal/db"
	"github.com/alexanderramin/takeoff/internal/persist"
	"github.com/alexanderramin/takeoff/internal/remote"
	"github.com/alexanderramin/takeoff/internal/repository"
	"github.com/alexanderramin/takeoff/internal/store"
)

// OpenStores wires the event and settings stores for cfg. Local mode picks
// the snapshot storage from cfg.Storage; remote mode talks to the backend.
// Operation logs go to logOut when cfg.LogCalls is set.
func OpenStores(ctx context.Context, cfg *config.Config, logOut io.Writer) (*Stores, error) {
	var observer store.Observer = store.NoopObserver{}
	if cfg.LogCalls {
		if logOut == nil {
			logOut = os.Stderr
		}
		observer = store.NewLogObserver(logOut)
	}

	if cfg.Mode == config.ModeRemote {
		client := remote.NewClient(cfg.Remote.Endpoint, time.Duration(cfg.Remote.TimeoutMs)*time.Millisecond)
		settings := store.NewRemoteSettingsStore(client, store.WithSettingsObserver(observer))
		events := store.NewRemoteEventStore(client,
			store.WithObserver(observer),
			store.WithSettings(settings),
		)
		return &Stores{Events: events, Settings: settings}, nil
	}

	storage, closeFn, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}
	settings := store.NewLocalSettingsStore(persist.NewSettingsFile(storage), store.WithSettingsObserver(observer))
	events := store.NewLocalEventStore(persist.NewSnapshotStore(storage),
		store.WithObserver(observer),
		store.WithSettings(settings),
	)
	return &Stores{Events: events, Settings: settings, Close: closeFn}, nil
}

func openStorage(cfg *config.Config) (persist.Storage, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return persist.NewMemoryStorage(), nil, nil
	case config.StorageFile:
		return persist.NewFileStorage(cfg.SnapshotDir()), nil, nil
	default:
		conn, err := db.OpenDB(cfg.SnapshotDBPath())
		if err != nil {
			return nil, nil, fmt.Errorf("opening local storage: %w", err)
		}
		return persist.NewSQLiteStorage(repository.NewSQLiteKVRepo(conn)), conn.Close, nil
	}
}
