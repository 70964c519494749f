// Package config loads the model roster and retry settings from a YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/client"
	"github.com/spetersoncode/relay/fallback"
	"github.com/spetersoncode/relay/model"
	"gopkg.in/yaml.v3"
)

// Config holds the roster configuration.
type Config struct {
	// Models lists roster entries as "provider/model", primary first.
	Models []string `yaml:"models"`

	// MaxRetriesPerModel is the attempts per model. Zero uses the default.
	MaxRetriesPerModel int `yaml:"max_retries_per_model,omitempty"`

	// ModelResetInterval is how long to stay off the primary. Zero uses the default.
	ModelResetInterval Duration `yaml:"model_reset_interval,omitempty"`

	// RetryAfterOutput allows stream failover after content. Nil uses the default.
	RetryAfterOutput *bool `yaml:"retry_after_output,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"` // debug, info, warn, error

	// BaseURLs overrides provider endpoints, keyed by provider name.
	BaseURLs map[string]string `yaml:"base_urls,omitempty"`

	// API keys come from the environment only.
	AnthropicKey string `yaml:"-"`
	OpenAIKey    string `yaml:"-"`
	GoogleKey    string `yaml:"-"`
}

// Duration is a time.Duration written as a Go duration string ("3m", "90s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// DefaultPath returns ~/.relay/config.yaml, or config.yaml when no home
// directory is known.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "config.yaml"
	}
	return filepath.Join(home, ".relay", "config.yaml")
}

// Load reads configuration from path.
// A missing file yields an empty config without error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv applies API keys and RELAY_* overrides from the environment.
// It loads a .env file if present (silent fail if not found).
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	c.AnthropicKey = getEnvOrDefault("ANTHROPIC_API_KEY", c.AnthropicKey)
	c.OpenAIKey = getEnvOrDefault("OPENAI_API_KEY", c.OpenAIKey)
	c.GoogleKey = getEnvOrDefault("GOOGLE_API_KEY", c.GoogleKey)

	if models := os.Getenv("RELAY_MODELS"); models != "" {
		c.Models = splitList(models)
	}
	c.MaxRetriesPerModel = getEnvIntOrDefault("RELAY_MAX_RETRIES_PER_MODEL", c.MaxRetriesPerModel)
	c.ModelResetInterval = Duration(getEnvDurationOrDefault("RELAY_MODEL_RESET_INTERVAL", time.Duration(c.ModelResetInterval)))
	if value := os.Getenv("RELAY_RETRY_AFTER_OUTPUT"); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			c.RetryAfterOutput = &b
		}
	}
	c.LogLevel = getEnvOrDefault("RELAY_LOG_LEVEL", c.LogLevel)

	for _, p := range []relay.Provider{relay.ProviderAnthropic, relay.ProviderOpenAI, relay.ProviderGoogle} {
		key := "RELAY_" + strings.ToUpper(p.String()) + "_BASE_URL"
		if url := os.Getenv(key); url != "" {
			if c.BaseURLs == nil {
				c.BaseURLs = make(map[string]string)
			}
			c.BaseURLs[p.String()] = url
		}
	}
}

// Validate checks that the roster is usable.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required (set models in the config file or RELAY_MODELS)")
	}

	roster, err := c.Roster()
	if err != nil {
		return err
	}
	for _, m := range roster {
		switch m.Provider() {
		case relay.ProviderAnthropic:
			if c.AnthropicKey == "" {
				return fmt.Errorf("ANTHROPIC_API_KEY is required for model %s", m.Ref())
			}
		case relay.ProviderOpenAI:
			if c.OpenAIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required for model %s", m.Ref())
			}
		case relay.ProviderGoogle:
			if c.GoogleKey == "" {
				return fmt.Errorf("GOOGLE_API_KEY is required for model %s", m.Ref())
			}
		}
	}

	if c.MaxRetriesPerModel < 0 {
		return fmt.Errorf("max_retries_per_model must not be negative, got %d", c.MaxRetriesPerModel)
	}
	if c.ModelResetInterval < 0 {
		return fmt.Errorf("model_reset_interval must not be negative, got %s", time.Duration(c.ModelResetInterval))
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Roster resolves the configured model references.
func (c *Config) Roster() ([]model.ChatModel, error) {
	roster := make([]model.ChatModel, 0, len(c.Models))
	for _, ref := range c.Models {
		m, err := model.Parse(ref)
		if err != nil {
			return nil, err
		}
		roster = append(roster, m)
	}
	return roster, nil
}

// Level returns the slog level for LogLevel. Empty means info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q (must be debug, info, warn, or error)", c.LogLevel)
	}
	return level, nil
}

// FallbackOptions converts the retry settings. Unset values are omitted so
// the controller defaults apply.
func (c *Config) FallbackOptions() []fallback.Option {
	var opts []fallback.Option
	if c.MaxRetriesPerModel > 0 {
		opts = append(opts, fallback.WithMaxRetriesPerModel(c.MaxRetriesPerModel))
	}
	if c.ModelResetInterval > 0 {
		opts = append(opts, fallback.WithModelResetInterval(time.Duration(c.ModelResetInterval)))
	}
	if c.RetryAfterOutput != nil {
		opts = append(opts, fallback.WithRetryAfterOutput(*c.RetryAfterOutput))
	}
	return opts
}

// ClientConfig builds a client configuration from the roster, keys and
// endpoints. Callers add events, tracing and hooks.
func (c *Config) ClientConfig() (client.Config, error) {
	roster, err := c.Roster()
	if err != nil {
		return client.Config{}, err
	}
	return client.Config{
		APIKeys: client.APIKeys{
			Anthropic: c.AnthropicKey,
			OpenAI:    c.OpenAIKey,
			Google:    c.GoogleKey,
		},
		Endpoints: client.Endpoints{
			Anthropic: c.BaseURLs[relay.ProviderAnthropic.String()],
			OpenAI:    c.BaseURLs[relay.ProviderOpenAI.String()],
			Google:    c.BaseURLs[relay.ProviderGoogle.String()],
		},
		Models:   roster,
		Fallback: c.FallbackOptions(),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
