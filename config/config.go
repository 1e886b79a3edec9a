// Package config resolves the process settings: defaults, then an optional
// YAML file, then environment variables. Command-line flags are applied by
// the caller last.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hays/shahnameh-mcp/upstream"
)

// DefaultBaseURL is where the corpus API listens in the reference deployment.
const DefaultBaseURL = "http://127.0.0.1:8000/api/v1"

// Environment variables consulted by ApplyEnv.
const (
	EnvBaseURL   = "SHAHNAMEH_API_BASE"
	EnvUserAgent = "SHAHNAMEH_USER_AGENT"
	EnvLogLevel  = "SHAHNAMEH_LOG_LEVEL"
	EnvLogFormat = "SHAHNAMEH_LOG_FORMAT"
)

// Config is the full set of process settings.
type Config struct {
	BaseURL   string    `yaml:"base_url"`
	UserAgent string    `yaml:"user_agent"`
	Log       LogConfig `yaml:"log"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: upstream.DefaultUserAgent,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvUserAgent); ok && v != "" {
		c.UserAgent = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Log.Format = v
	}
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("base_url: %w", err))
	case (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		errs = append(errs, fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL))
	}

	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, errors.New("user_agent must not be empty"))
	}
	if _, err := c.Log.ZerologLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be console or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// ZerologLevel parses Level.
func (l LogConfig) ZerologLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
