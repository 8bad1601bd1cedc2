package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvSessionsBackend          = "CLERK_SESSIONS_BACKEND"
	EnvSessionsStore            = "CLERK_SESSIONS_STORE"
	EnvSessionsOperationTimeout = "CLERK_SESSIONS_OPERATION_TIMEOUT"
)

// Session backends and stores.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// SessionsConfig selects how hosted sessions reach the collaborator and
// where their snapshots live.
type SessionsConfig struct {
	Backend          string `toml:"backend"`
	Store            string `toml:"store"`
	OperationTimeout string `toml:"operation_timeout"`
}

// OperationTimeoutDuration returns OperationTimeout as a time.Duration.
func (c *SessionsConfig) OperationTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.OperationTimeout)
	return d
}

// UsesDatabase reports whether sessions require the Postgres connection.
func (c *SessionsConfig) UsesDatabase() bool {
	return c.Store == StorePostgres
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SessionsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SessionsConfig) Merge(overlay *SessionsConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.OperationTimeout != "" {
		c.OperationTimeout = overlay.OperationTimeout
	}
}

func (c *SessionsConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendLocal
	}
	if c.Store == "" {
		c.Store = StorePostgres
	}
	if c.OperationTimeout == "" {
		c.OperationTimeout = "2m"
	}
}

func (c *SessionsConfig) loadEnv() {
	if v := os.Getenv(EnvSessionsBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvSessionsStore); v != "" {
		c.Store = v
	}
	if v := os.Getenv(EnvSessionsOperationTimeout); v != "" {
		c.OperationTimeout = v
	}
}

func (c *SessionsConfig) validate() error {
	switch c.Backend {
	case BackendLocal, BackendRemote:
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store: %s", c.Store)
	}
	if _, err := time.ParseDuration(c.OperationTimeout); err != nil {
		return fmt.Errorf("invalid operation_timeout: %w", err)
	}
	return nil
}
