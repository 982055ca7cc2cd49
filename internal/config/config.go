// Package config loads and validates ~/.devcli/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath overrides the default config file location.
const EnvPath = "DEVCLI_CONFIG"

// Config holds every setting devcli reads from config.yaml.
type Config struct {
	LogLevel  string       `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string       `yaml:"log_format" json:"log_format" validate:"oneof=text json"`
	Docker    DockerConfig `yaml:"docker" json:"docker"`
	AWS       AWSConfig    `yaml:"aws" json:"aws"`
	Prune     PruneConfig  `yaml:"prune" json:"prune"`
}

// DockerConfig configures the Docker backend.
type DockerConfig struct {
	Host string `yaml:"host,omitempty" json:"host,omitempty" validate:"omitempty,uri"` // empty = DOCKER_HOST or platform default
}

// AWSConfig configures the S3 backend. Empty fields fall back to the
// standard AWS environment and shared config files.
type AWSConfig struct {
	Region          string `yaml:"region,omitempty" json:"region,omitempty"`
	Profile         string `yaml:"profile,omitempty" json:"profile,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty" validate:"required_with=AccessKeyID"`
	UsePathStyle    bool   `yaml:"use_path_style,omitempty" json:"use_path_style,omitempty"`
}

// PruneConfig configures the prune engine.
type PruneConfig struct {
	Workers int           `yaml:"workers" json:"workers" validate:"min=1,max=8"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gte=0"` // 0 = no timeout
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Prune: PruneConfig{
			Workers: 1,
		},
	}
}

// DefaultPath returns $DEVCLI_CONFIG or ~/.devcli/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return p, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".devcli", "config.yaml"), nil
}

// Load reads the config file at path, applies defaults for unset fields
// and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's config file
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, &Error{Path: path, Err: fmt.Errorf("read config: %w", err)}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("parse config: %w", err)}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is nil")
	}
	if err := validatorInstance().Struct(c); err != nil {
		return convertValidationError(err)
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	if out.AWS.SecretAccessKey != "" {
		out.AWS.SecretAccessKey = "********"
	}
	return &out
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// Error indicates a configuration problem (exit code 3).
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }
