// Package storage provides the synchronous keyed persistence the
// engine sits on. Drivers store opaque byte values under string keys;
// everything schema-shaped lives above this layer.
package storage

import (
	"errors"
	"fmt"
	"time"
)

// Standard errors
var (
	ErrNoKey = errors.New("storage: no such key")
)

// KV is a synchronous keyed record collection
type KV interface {
	// Get returns the value stored under key, or ErrNoKey.
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	// Remove deletes key; removing an absent key is not an error.
	Remove(key string) error
	Close() error
}

// Config selects and configures a storage driver.
//
// Driver values:
//   - "memory": process-local map, lost on exit
//   - "file": one JSON document per key under Path (a directory)
//   - "sqlite3": single-table key/value store in a SQLite database
type Config struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`

	// sqlite3 only
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
	BusyTimeout     time.Duration `toml:"busy_timeout"`
}

// DefaultConfig returns a memory-backed configuration
func DefaultConfig() Config {
	return Config{Driver: "memory"}
}

// Validate checks driver selection and driver-specific requirements
func (c Config) Validate() error {
	switch c.Driver {
	case "memory":
		return nil
	case "file", "sqlite3":
		if c.Path == "" {
			return fmt.Errorf("storage: path is required for driver %q", c.Driver)
		}
		return nil
	default:
		return fmt.Errorf("storage: unsupported driver %q (must be memory, file, or sqlite3)", c.Driver)
	}
}

// Open creates the KV backend selected by cfg
func Open(cfg Config) (KV, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return openFile(cfg)
	case "sqlite3":
		return openSQLite(cfg)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}
