package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/velkoz/internal/logging"
	"github.com/raysh454/velkoz/internal/webclient"
)

// Config holds the runtime options used to build the fetch collaborators.
type Config struct {
	WebClient webclient.Config `yaml:"webclient"`
	Log       logging.Config   `yaml:"log"`
}

// Environment variables that override file values.
const (
	EnvWebClient   = "VELKOZ_WEBCLIENT"
	EnvHTTPTimeout = "VELKOZ_HTTP_TIMEOUT"
	EnvUserAgent   = "VELKOZ_USER_AGENT"
	EnvLogLevel    = "VELKOZ_LOG_LEVEL"
)

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		WebClient: webclient.Config{
			Client:    webclient.ClientNetHTTP,
			Timeout:   webclient.DefaultTimeout,
			UserAgent: "velkoz/0.1 (+https://github.com/raysh454/velkoz)",
		},
		Log: logging.Config{
			Level:     "info",
			Component: "velkoz",
		},
	}
}

// LoadConfig starts from DefaultConfig, overlays the YAML file at path (if
// path is non-empty), loads envFiles into the process environment (missing
// files are ignored; nothing already set is overwritten) and finally applies
// VELKOZ_* overrides.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvWebClient); ok && strings.TrimSpace(v) != "" {
		c.WebClient.Client = webclient.Client(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvHTTPTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHTTPTimeout, err)
		}
		c.WebClient.Timeout = d
	}
	if v, ok := lookup(EnvUserAgent); ok && v != "" {
		c.WebClient.UserAgent = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}
