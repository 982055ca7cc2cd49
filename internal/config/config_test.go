package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
log_format: json
docker:
  host: unix:///var/run/docker.sock
aws:
  region: eu-west-1
  profile: dev
  endpoint: http://localhost:4566
  access_key_id: AKIA
  secret_access_key: shh
  use_path_style: true
prune:
  workers: 4
  timeout: 90s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "unix:///var/run/docker.sock", cfg.Docker.Host)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "dev", cfg.AWS.Profile)
	assert.Equal(t, "http://localhost:4566", cfg.AWS.Endpoint)
	assert.True(t, cfg.AWS.UsePathStyle)
	assert.Equal(t, 4, cfg.Prune.Workers)
	assert.Equal(t, 90*time.Second, cfg.Prune.Timeout)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "aws:\n  region: us-east-2\n"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Prune.Workers)
	assert.Equal(t, "us-east-2", cfg.AWS.Region)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "log_level: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, path, cfgErr.Path)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad log level", "log_level: loud\n", "log_level: must be one of"},
		{"bad log format", "log_format: xml\n", "log_format: must be one of"},
		{"too many workers", "prune:\n  workers: 9\n", "prune.workers"},
		{"zero workers", "prune:\n  workers: 0\n", "prune.workers"},
		{"negative timeout", "prune:\n  timeout: -1s\n", "prune.timeout"},
		{"bad endpoint", "aws:\n  endpoint: not a url\n", "aws.endpoint"},
		{"key without secret", "aws:\n  access_key_id: AKIA\n", "aws.secret_access_key: required when access_key_id is set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)

			var cfgErr *Error
			assert.True(t, errors.As(err, &cfgErr))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv(EnvPath, "/tmp/custom.yaml")
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", path)
}

func TestDefaultPath_Home(t *testing.T) {
	t.Setenv(EnvPath, "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".devcli", "config.yaml"), path)
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.AWS.AccessKeyID = "AKIA"
	cfg.AWS.SecretAccessKey = "shh"

	red := cfg.Redacted()
	assert.Equal(t, "********", red.AWS.SecretAccessKey)
	assert.Equal(t, "AKIA", red.AWS.AccessKeyID)
	assert.Equal(t, "shh", cfg.AWS.SecretAccessKey, "original untouched")

	data, err := red.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "shh")
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "access_key_id", snakeCase("AccessKeyID"))
	assert.Equal(t, "secret_access_key", snakeCase("SecretAccessKey"))
	assert.Equal(t, "region", snakeCase("Region"))
}
