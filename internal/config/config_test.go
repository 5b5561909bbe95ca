package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CRYPTOPAD_LOG_LEVEL",
	"CRYPTOPAD_LOG_FORMAT",
	"CRYPTOPAD_CATALOG",
	"CRYPTOPAD_EDITOR",
	"CRYPTOPAD_KEYRING",
	"CRYPTOPAD_AE_VERSION",
	"CRYPTOPAD_MAX_ATTEMPTS",
	"CRYPTOPAD_STAMP_TIME",
	EnvConfigPath,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ".cryptopad", cfg.Catalog)
	assert.Equal(t, 1, cfg.AEVersion)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.True(t, cfg.Keyring)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
log_level: debug
log_format: json
catalog: .pads
editor: nano
keyring: false
ae_version: 2
max_attempts: 5
stamp_time: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		LogLevel:    "debug",
		LogFormat:   "json",
		Catalog:     ".pads",
		Editor:      "nano",
		Keyring:     false,
		AEVersion:   2,
		MaxAttempts: 5,
		StampTime:   false,
	}, cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "editor: emacs\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "emacs", cfg.Editor)
	assert.Equal(t, DefaultCatalog, cfg.Catalog)
	assert.Equal(t, DefaultMaxAttempts, cfg.MaxAttempts)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "log_level: info\nmax_attempts: 2\n")
	t.Setenv("CRYPTOPAD_LOG_LEVEL", "error")
	t.Setenv("CRYPTOPAD_MAX_ATTEMPTS", "7")
	t.Setenv("CRYPTOPAD_KEYRING", "false")
	t.Setenv("CRYPTOPAD_AE_VERSION", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 7, cfg.MaxAttempts)
	assert.False(t, cfg.Keyring)
	assert.Equal(t, 2, cfg.AEVersion)
}

func TestLoad_BadEnv(t *testing.T) {
	for _, kv := range [][2]string{
		{"CRYPTOPAD_KEYRING", "maybe"},
		{"CRYPTOPAD_AE_VERSION", "two"},
		{"CRYPTOPAD_MAX_ATTEMPTS", "-"},
		{"CRYPTOPAD_STAMP_TIME", "sometimes"},
	} {
		t.Run(kv[0], func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "max_attempts: [1, 2\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"empty catalog", func(c *Config) { c.Catalog = "" }},
		{"catalog in subdirectory", func(c *Config) { c.Catalog = filepath.Join("a", "b") }},
		{"catalog escapes", func(c *Config) { c.Catalog = "../.cryptopad" }},
		{"ae version", func(c *Config) { c.AEVersion = 3 }},
		{"max attempts", func(c *Config) { c.MaxAttempts = 0 }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", DefaultPath())

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	if p := DefaultPath(); p != "" {
		assert.Equal(t, "config.yaml", filepath.Base(p))
		assert.Equal(t, "cryptopad", filepath.Base(filepath.Dir(p)))
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	cfg := Default()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"
	logger := cfg.NewLogger(&buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("path", "notes.txt").Debug("sealed")
	assert.Contains(t, buf.String(), `"path":"notes.txt"`)
	assert.Contains(t, buf.String(), `"msg":"sealed"`)

	buf.Reset()
	text := Default().NewLogger(&buf)
	assert.Equal(t, logrus.WarnLevel, text.GetLevel())
	text.Info("hidden")
	assert.Empty(t, buf.String())
	text.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
