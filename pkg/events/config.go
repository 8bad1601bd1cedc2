package events

import (
	"fmt"
	"os"
	"time"
)

// Config holds NATS connection settings. An empty URL disables publishing.
type Config struct {
	URL            string `toml:"url"`
	SubjectPrefix  string `toml:"subject_prefix"`
	Name           string `toml:"name"`
	ConnectTimeout string `toml:"connect_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL            string
	SubjectPrefix  string
	Name           string
	ConnectTimeout string
}

// Enabled reports whether a NATS server is configured.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

// ConnectTimeoutDuration returns ConnectTimeout as a time.Duration.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnectTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.SubjectPrefix != "" {
		c.SubjectPrefix = overlay.SubjectPrefix
	}
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.ConnectTimeout != "" {
		c.ConnectTimeout = overlay.ConnectTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "clerk"
	}
	if c.Name == "" {
		c.Name = "clerk-server"
	}
	if c.ConnectTimeout == "" {
		c.ConnectTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.URL != "" {
		if v := os.Getenv(env.URL); v != "" {
			c.URL = v
		}
	}
	if env.SubjectPrefix != "" {
		if v := os.Getenv(env.SubjectPrefix); v != "" {
			c.SubjectPrefix = v
		}
	}
	if env.Name != "" {
		if v := os.Getenv(env.Name); v != "" {
			c.Name = v
		}
	}
	if env.ConnectTimeout != "" {
		if v := os.Getenv(env.ConnectTimeout); v != "" {
			c.ConnectTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid connect_timeout: %w", err)
	}
	return nil
}
