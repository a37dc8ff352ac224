package runlog

import (
	"errors"
	"fmt"
)

// ErrUnknownBackend is returned for unsupported store backends.
var ErrUnknownBackend = errors.New("runlog: unknown backend")

// Backends.
const (
	BackendNone     = "none"
	BackendJSONL    = "jsonl"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config selects and configures the run store.
type Config struct {
	// Backend is one of none, jsonl, sqlite or postgres.
	Backend string `json:"backend" yaml:"backend"`
	// Path is the file location for jsonl and sqlite.
	Path string `json:"path" yaml:"path"`
	// DSN is the postgres connection string.
	DSN string `json:"dsn" yaml:"dsn"`
	// MaxSizeMB enables rotation of the jsonl file when > 0.
	MaxSizeMB  int `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults applies defaults for empty fields.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendJSONL:
			c.Path = "runs.jsonl"
		case BackendSQLite:
			c.Path = "runs.db"
		}
	}
}

// Validate checks the backend and its mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone:
	case BackendJSONL, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("runlog: path is required for %s", c.Backend)
		}
	case BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("runlog: dsn is required for postgres")
		}
	default:
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("runlog: rotation settings must be >= 0")
	}
	return nil
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendJSONL:
		if cfg.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return NewJSONLStore(cfg.Path)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendPostgres:
		return NewPostgresStore(cfg.DSN)
	default:
		return NopStore{}, nil
	}
}
