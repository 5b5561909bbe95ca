// Package config loads cryptopad settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCatalog     = ".cryptopad"
	DefaultMaxAttempts = 3

	EnvConfigPath = "CRYPTOPAD_CONFIG"
	EnvPassword   = "CRYPTOPAD_PASSWORD"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds user settings. Zero values are replaced by defaults in Load.
type Config struct {
	LogLevel    string `yaml:"log_level" env:"CRYPTOPAD_LOG_LEVEL"`
	LogFormat   string `yaml:"log_format" env:"CRYPTOPAD_LOG_FORMAT"` // text or json
	Catalog     string `yaml:"catalog" env:"CRYPTOPAD_CATALOG"`       // catalog file name in the workspace root
	Editor      string `yaml:"editor" env:"CRYPTOPAD_EDITOR"`         // overrides VISUAL and EDITOR
	Keyring     bool   `yaml:"keyring" env:"CRYPTOPAD_KEYRING"`
	AEVersion   int    `yaml:"ae_version" env:"CRYPTOPAD_AE_VERSION"`
	MaxAttempts int    `yaml:"max_attempts" env:"CRYPTOPAD_MAX_ATTEMPTS"`
	StampTime   bool   `yaml:"stamp_time" env:"CRYPTOPAD_STAMP_TIME"` // record modification time in containers
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:    "warn",
		LogFormat:   "text",
		Catalog:     DefaultCatalog,
		Keyring:     true,
		AEVersion:   1,
		MaxAttempts: DefaultMaxAttempts,
		StampTime:   true,
	}
}

// DefaultPath returns CRYPTOPAD_CONFIG if set, otherwise
// cryptopad/config.yaml under the user config directory. It returns ""
// when neither is available.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cryptopad", "config.yaml")
}

// Load reads the config file at path (a missing file is not an error),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadFromEnv(config *Config) error {
	if v := os.Getenv("CRYPTOPAD_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
	if v := os.Getenv("CRYPTOPAD_LOG_FORMAT"); v != "" {
		config.LogFormat = v
	}
	if v := os.Getenv("CRYPTOPAD_CATALOG"); v != "" {
		config.Catalog = v
	}
	if v := os.Getenv("CRYPTOPAD_EDITOR"); v != "" {
		config.Editor = v
	}
	if v := os.Getenv("CRYPTOPAD_KEYRING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: CRYPTOPAD_KEYRING: %v", ErrInvalidConfig, err)
		}
		config.Keyring = b
	}
	if v := os.Getenv("CRYPTOPAD_AE_VERSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CRYPTOPAD_AE_VERSION: %v", ErrInvalidConfig, err)
		}
		config.AEVersion = n
	}
	if v := os.Getenv("CRYPTOPAD_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CRYPTOPAD_MAX_ATTEMPTS: %v", ErrInvalidConfig, err)
		}
		config.MaxAttempts = n
	}
	if v := os.Getenv("CRYPTOPAD_STAMP_TIME"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: CRYPTOPAD_STAMP_TIME: %v", ErrInvalidConfig, err)
		}
		config.StampTime = b
	}
	return nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.Catalog == "" || !filepath.IsLocal(c.Catalog) || strings.ContainsRune(c.Catalog, filepath.Separator) {
		return fmt.Errorf("%w: catalog must be a plain file name, got %q", ErrInvalidConfig, c.Catalog)
	}
	if c.AEVersion != 1 && c.AEVersion != 2 {
		return fmt.Errorf("%w: ae_version must be 1 or 2, got %d", ErrInvalidConfig, c.AEVersion)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	return nil
}
