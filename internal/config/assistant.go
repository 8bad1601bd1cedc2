package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/clerk/internal/assistant"
)

const (
	EnvAssistantAPIKey      = "CLERK_ASSISTANT_API_KEY"
	EnvAssistantBaseURL     = "CLERK_ASSISTANT_BASE_URL"
	EnvAssistantModel       = "CLERK_ASSISTANT_MODEL"
	EnvAssistantTemperature = "CLERK_ASSISTANT_TEMPERATURE"
	EnvAssistantTimeout     = "CLERK_ASSISTANT_TIMEOUT"

	// Fallbacks shared with the OpenAI tooling ecosystem.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvOpenAIModel  = "OPENAI_MODEL"
)

// AssistantConfig configures optional LLM phrasing of assistant replies.
// Without an API key the assistant answers with its fixed templates.
type AssistantConfig struct {
	APIKey      string   `toml:"api_key"`
	BaseURL     string   `toml:"base_url"`
	Model       string   `toml:"model"`
	Temperature *float32 `toml:"temperature"`
	Timeout     string   `toml:"timeout"`
}

// Enabled reports whether a phraser should be constructed.
func (c *AssistantConfig) Enabled() bool {
	return c.APIKey != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *AssistantConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Options returns the phraser options.
func (c *AssistantConfig) Options() assistant.OpenAIOptions {
	var temperature float32
	if c.Temperature != nil {
		temperature = *c.Temperature
	}
	return assistant.OpenAIOptions{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: temperature,
		Timeout:     c.TimeoutDuration(),
		Retry:       assistant.DefaultRetryConfig(),
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AssistantConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AssistantConfig) Merge(overlay *AssistantConfig) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Temperature != nil {
		t := *overlay.Temperature
		c.Temperature = &t
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *AssistantConfig) loadDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Temperature == nil {
		t := float32(0.2)
		c.Temperature = &t
	}
	if c.Timeout == "" {
		c.Timeout = "20s"
	}
}

func (c *AssistantConfig) loadEnv() {
	if v := firstEnv(EnvAssistantAPIKey, EnvOpenAIAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvAssistantBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := firstEnv(EnvAssistantModel, EnvOpenAIModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvAssistantTemperature); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			t := float32(f)
			c.Temperature = &t
		}
	}
	if v := os.Getenv(EnvAssistantTimeout); v != "" {
		c.Timeout = v
	}
}

func (c *AssistantConfig) validate() error {
	if *c.Temperature < 0 || *c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", *c.Temperature)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
