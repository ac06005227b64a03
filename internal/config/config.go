// Package config loads the takeoff YAML configuration and applies
// TAKEOFF_* environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects which persistence strategy the stores use.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Storage selects the backend behind the local snapshot adapter.
type Storage string

const (
	StorageSQLite Storage = "sqlite"
	StorageFile   Storage = "file"
	StorageMemory Storage = "memory"
)

const (
	defaultEndpoint   = "http://127.0.0.1:8787"
	defaultTimeoutMs  = 10000
	defaultListen     = "127.0.0.1:8787"
	defaultBackupCron = "0 3 * * *"
)

// RemoteConfig points the client at a takeoff backend.
type RemoteConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	TimeoutMs int    `yaml:"timeout_ms" json:"timeout_ms"`
}

// ServerConfig configures `takeoff serve`.
type ServerConfig struct {
	Listen string `yaml:"listen" json:"listen"`
	// DBPath defaults to backend.db inside DataDir.
	DBPath string `yaml:"db_path" json:"db_path"`
	// BackupCron is a five-field cron spec. Empty disables backups.
	BackupCron string `yaml:"backup_cron" json:"backup_cron"`
}

// Config is the top-level application configuration.
type Config struct {
	Mode     Mode         `yaml:"mode" json:"mode"`
	Storage  Storage      `yaml:"storage" json:"storage"`
	DataDir  string       `yaml:"data_dir" json:"data_dir"`
	Remote   RemoteConfig `yaml:"remote" json:"remote"`
	Server   ServerConfig `yaml:"server" json:"server"`
	LogCalls bool         `yaml:"log_calls" json:"log_calls"`
}

// DefaultDataDir returns ~/.takeoff, or .takeoff when the home directory
// cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".takeoff"
	}
	return filepath.Join(home, ".takeoff")
}

// DefaultPath is the config file location inside the default data dir.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeLocal,
		Storage: StorageSQLite,
		DataDir: DefaultDataDir(),
		Remote: RemoteConfig{
			Endpoint:  defaultEndpoint,
			TimeoutMs: defaultTimeoutMs,
		},
		Server: ServerConfig{
			Listen:     defaultListen,
			BackupCron: defaultBackupCron,
		},
	}
}

// Normalize fills zero values and falls back to defaults for unknown
// enum values so partially filled files still behave.
func (c *Config) Normalize() {
	switch c.Mode {
	case ModeLocal, ModeRemote:
	default:
		c.Mode = ModeLocal
	}
	switch c.Storage {
	case StorageSQLite, StorageFile, StorageMemory:
	default:
		c.Storage = StorageSQLite
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	c.Remote.Endpoint = strings.TrimRight(c.Remote.Endpoint, "/")
	if c.Remote.Endpoint == "" {
		c.Remote.Endpoint = defaultEndpoint
	}
	if c.Remote.TimeoutMs <= 0 {
		c.Remote.TimeoutMs = defaultTimeoutMs
	}
	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
}

// SnapshotDBPath is the SQLite file holding the local key/value storage.
func (c *Config) SnapshotDBPath() string {
	return filepath.Join(c.DataDir, "takeoff.db")
}

// SnapshotDir is the directory used by file storage.
func (c *Config) SnapshotDir() string {
	return filepath.Join(c.DataDir, "storage")
}

// BackendDBPath resolves the database used by `takeoff serve`.
func (c *Config) BackendDBPath() string {
	if c.Server.DBPath != "" {
		return c.Server.DBPath
	}
	return filepath.Join(c.DataDir, "backend.db")
}

// BackupDir is where scheduled backend backups are written.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// Load reads configuration from the YAML file at path. A missing file is
// created with defaults (0600) and the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg as YAML to path through a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".takeoff-config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from TAKEOFF_* environment variables. Values
// that fail to parse are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("TAKEOFF_MODE"); v != "" {
		c.Mode = Mode(strings.ToLower(v))
	}
	if v := getenv("TAKEOFF_STORAGE"); v != "" {
		c.Storage = Storage(strings.ToLower(v))
	}
	if v := getenv("TAKEOFF_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := getenv("TAKEOFF_REMOTE_ENDPOINT"); v != "" {
		c.Remote.Endpoint = v
	}
	if v := getenv("TAKEOFF_REMOTE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Remote.TimeoutMs = n
		}
	}
	if v := getenv("TAKEOFF_SERVER_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := getenv("TAKEOFF_SERVER_DB_PATH"); v != "" {
		c.Server.DBPath = v
	}
	if v, ok := lookup(getenv, "TAKEOFF_SERVER_BACKUP_CRON"); ok {
		c.Server.BackupCron = v
	}
	if v := getenv("TAKEOFF_LOG_CALLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogCalls = b
		}
	}
	c.Normalize()
}

// lookup treats "off" as an explicit empty value so backups can be
// disabled from the environment.
func lookup(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	switch {
	case v == "":
		return "", false
	case strings.EqualFold(v, "off"):
		return "", true
	default:
		return v, true
	}
}
