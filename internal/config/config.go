// Package config manages the msent client configuration stored at
// ~/.config/msent/config.json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	configFileName = "config.json"
	lockFileName   = "config.json.lock"
	prefsFileName  = "prefs.db"

	DefaultAPIURL   = "http://localhost:8080"
	DefaultTimeout  = 15 * time.Second
	DefaultRetries  = 2
	DefaultLogLevel = "warn"
)

// ErrUnknownKey is returned by Get and Set for keys that do not exist.
var ErrUnknownKey = errors.New("unknown config key")

// APIConfig holds API connection settings.
type APIConfig struct {
	URL     string  `json:"url,omitempty"`
	Timeout string  `json:"timeout,omitempty"` // duration string, default "15s"
	Retries *int    `json:"retries,omitempty"` // nil = default 2
	Rate    float64 `json:"rate,omitempty"`    // requests per second, 0 = unlimited
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `json:"level,omitempty"`
}

// Config is the client config.
type Config struct {
	API APIConfig `json:"api"`
	Log LogConfig `json:"log"`
}

// LoadDotEnv loads .env from the working directory when present. Variables
// already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// ConfigDir returns the config directory, creating it if necessary.
// MSENT_CONFIG_DIR overrides ~/.config/msent.
func ConfigDir() (string, error) {
	dir := os.Getenv("MSENT_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "msent")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// PrefsPath returns the path of the preference database.
func PrefsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, prefsFileName), nil
}

// LoadConfig reads the config file. A missing file is an empty config.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configFileName, err)
	}
	return &cfg, nil
}

// SaveConfig writes the config using a temp file and rename.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, configFileName))
}

// withConfigLock serializes read-modify-write cycles on config.json.
func withConfigLock(fn func() error) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, lockFileName), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return err
	}
	defer unlockFile(f)

	return fn()
}

// GetAPIURL returns the API base URL.
// Priority: MSENT_API_URL env > config.json api.url > default.
func GetAPIURL() string {
	if v := os.Getenv("MSENT_API_URL"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.API.URL != "" {
		return cfg.API.URL
	}
	return DefaultAPIURL
}

// GetTimeout returns the request timeout.
// Priority: MSENT_API_TIMEOUT env > config.json api.timeout > 15s.
func GetTimeout() time.Duration {
	if v := os.Getenv("MSENT_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.API.Timeout != "" {
		if d, err := time.ParseDuration(cfg.API.Timeout); err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// GetRetries returns the number of GET retries. Zero disables retries.
// Priority: config.json api.retries > 2.
func GetRetries() int {
	cfg, err := LoadConfig()
	if err == nil && cfg.API.Retries != nil && *cfg.API.Retries >= 0 {
		return *cfg.API.Retries
	}
	return DefaultRetries
}

// GetRate returns the client request rate limit in requests per second.
func GetRate() float64 {
	cfg, err := LoadConfig()
	if err == nil && cfg.API.Rate > 0 {
		return cfg.API.Rate
	}
	return 0
}

// GetLogLevel returns the log level.
// Priority: MSENT_LOG_LEVEL env > config.json log.level > warn.
func GetLogLevel() string {
	if v := os.Getenv("MSENT_LOG_LEVEL"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Log.Level != "" {
		return cfg.Log.Level
	}
	return DefaultLogLevel
}

// Keys lists the settable config keys.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

var fields = map[string]field{
	"api.url": {
		get: func(c *Config) string { return c.API.URL },
		set: func(c *Config, v string) error {
			if v != "" && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
				return fmt.Errorf("api.url must start with http:// or https://")
			}
			c.API.URL = strings.TrimRight(v, "/")
			return nil
		},
	},
	"api.timeout": {
		get: func(c *Config) string { return c.API.Timeout },
		set: func(c *Config, v string) error {
			if v != "" {
				if d, err := time.ParseDuration(v); err != nil || d <= 0 {
					return fmt.Errorf("api.timeout: invalid duration %q", v)
				}
			}
			c.API.Timeout = v
			return nil
		},
	},
	"api.retries": {
		get: func(c *Config) string {
			if c.API.Retries == nil {
				return ""
			}
			return strconv.Itoa(*c.API.Retries)
		},
		set: func(c *Config, v string) error {
			if v == "" {
				c.API.Retries = nil
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("api.retries: must be a non-negative integer")
			}
			c.API.Retries = &n
			return nil
		},
	},
	"api.rate": {
		get: func(c *Config) string {
			if c.API.Rate == 0 {
				return ""
			}
			return strconv.FormatFloat(c.API.Rate, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			if v == "" {
				c.API.Rate = 0
				return nil
			}
			r, err := strconv.ParseFloat(v, 64)
			if err != nil || r < 0 {
				return fmt.Errorf("api.rate: must be a non-negative number")
			}
			c.API.Rate = r
			return nil
		},
	},
	"log.level": {
		get: func(c *Config) string { return c.Log.Level },
		set: func(c *Config, v string) error {
			switch strings.ToLower(v) {
			case "", "trace", "debug", "info", "warn", "error", "disabled":
				c.Log.Level = strings.ToLower(v)
				return nil
			}
			return fmt.Errorf("log.level: unknown level %q", v)
		},
	},
}

// Get returns the stored value of key, "" when unset.
func Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	cfg, err := LoadConfig()
	if err != nil {
		return "", err
	}
	return f.get(cfg), nil
}

// Set validates and stores value under key. An empty value unsets it.
func Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return withConfigLock(func() error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		if err := f.set(cfg, strings.TrimSpace(value)); err != nil {
			return err
		}
		return SaveConfig(cfg)
	})
}
