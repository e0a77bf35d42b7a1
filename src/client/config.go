package client

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is looked up next to the executable
	DefaultConfigFile = "license-client.yaml"

	defaultServerURL = "http://127.0.0.1:8040"
	defaultAPIKey    = "demo_key_123"
	defaultTimeout   = 8 * time.Second
)

// Config holds the remote gate settings
type Config struct {
	ServerURL string
	APIKey    string
	Timeout   time.Duration
}

// fileConfig mirrors the on-disk layout; JSON files parse as YAML too
type fileConfig struct {
	ServerURL string  `yaml:"SERVER_URL"`
	APIKey    string  `yaml:"API_KEY"`
	Timeout   Timeout `yaml:"TIMEOUT"`
}

// Timeout accepts either seconds (8, 2.5) or a duration string ("8s")
type Timeout time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (t *Timeout) UnmarshalYAML(value *yaml.Node) error {
	d, err := parseTimeout(value.Value)
	if err != nil {
		return err
	}
	*t = Timeout(d)
	return nil
}

func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("timeout must not be negative: %s", raw)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout must not be negative: %s", raw)
	}
	return d, nil
}

// LoadConfig resolves settings with file values first, then env, then defaults.
// A missing file is not an error. A malformed file is reported, and the
// returned config still carries the env and default values.
func LoadConfig(path string) (*Config, error) {
	cfg := fromEnv()

	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.APIKey != "" {
		cfg.APIKey = fc.APIKey
	}
	if fc.Timeout > 0 {
		cfg.Timeout = time.Duration(fc.Timeout)
	}
	return cfg, nil
}

func fromEnv() *Config {
	cfg := &Config{
		ServerURL: defaultServerURL,
		APIKey:    defaultAPIKey,
		Timeout:   defaultTimeout,
	}
	if v := os.Getenv("SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if d, err := parseTimeout(os.Getenv("TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}
