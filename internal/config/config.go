package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/clerk/pkg/database"
	"github.com/JaimeStill/clerk/pkg/events"
	"github.com/JaimeStill/clerk/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvClerkEnv             = "CLERK_ENV"
	EnvClerkShutdownTimeout = "CLERK_SHUTDOWN_TIMEOUT"
	EnvClerkVersion         = "CLERK_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "CLERK_DB_URL",
	Host:            "CLERK_DB_HOST",
	Port:            "CLERK_DB_PORT",
	Name:            "CLERK_DB_NAME",
	User:            "CLERK_DB_USER",
	Password:        "CLERK_DB_PASSWORD",
	SSLMode:         "CLERK_DB_SSL_MODE",
	MaxOpenConns:    "CLERK_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CLERK_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CLERK_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CLERK_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "CLERK_STORAGE_PROVIDER",
	ContainerName:    "CLERK_STORAGE_CONTAINER_NAME",
	ConnectionString: "CLERK_STORAGE_CONNECTION_STRING",
	MaxListSize:      "CLERK_STORAGE_MAX_LIST_SIZE",
}

var eventsEnv = &events.Env{
	URL:            "CLERK_EVENTS_URL",
	SubjectPrefix:  "CLERK_EVENTS_SUBJECT_PREFIX",
	Name:           "CLERK_EVENTS_NAME",
	ConnectTimeout: "CLERK_EVENTS_CONNECT_TIMEOUT",
}

// Config is the root configuration for the Clerk service and CLI.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Assistant       AssistantConfig `toml:"assistant"`
	Client          ClientConfig    `toml:"client"`
	Sessions        SessionsConfig  `toml:"sessions"`
	Events          events.Config   `toml:"events"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the CLERK_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvClerkEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg, err := loadFiles()
	if err != nil {
		return nil, err
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadDatabase resolves only the database section. It serves tools such as
// schema migration that do not need the rest of the service configuration.
func LoadDatabase() (*database.Config, error) {
	cfg, err := loadFiles()
	if err != nil {
		return nil, err
	}

	db := cfg.Database
	if err := db.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return &db, nil
}

func loadFiles() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Assistant.Merge(&overlay.Assistant)
	c.Client.Merge(&overlay.Client)
	c.Sessions.Merge(&overlay.Sessions)
	c.Events.Merge(&overlay.Events)
}

// Finalize applies defaults, environment overrides, and validation to every
// section. The database section is only finalized when sessions are stored
// in Postgres.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Assistant.Finalize(); err != nil {
		return fmt.Errorf("assistant: %w", err)
	}
	if err := c.Client.Finalize(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := c.Sessions.Finalize(); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if op, wt := c.Sessions.OperationTimeoutDuration(), c.Server.WriteTimeoutDuration(); wt > 0 && wt <= op {
		return fmt.Errorf("server: write_timeout %s must exceed sessions operation_timeout %s", wt, op)
	}
	if c.Sessions.UsesDatabase() {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvClerkShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvClerkVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvClerkEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
