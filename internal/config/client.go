package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	EnvClientBaseURL = "CLERK_CLIENT_BASE_URL"
	EnvClientTimeout = "CLERK_CLIENT_TIMEOUT"
)

// ClientConfig locates the collaborator API used by remote backends.
type ClientConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ClientConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClientConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ClientConfig) Merge(overlay *ClientConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *ClientConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080/api/assistant"
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
}

func (c *ClientConfig) loadEnv() {
	if v := os.Getenv(EnvClientBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvClientTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *ClientConfig) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https: %s", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
