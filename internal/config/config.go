// Package config provides persistent configuration for the mosque-times CLI.
//
// Configuration is stored as JSON at ~/.config/mosque-times/config.json
// (XDG-compliant). MOSQUE_TIMES_* environment variables, optionally read from
// a .env file, override the file. The merge priority is:
// CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	configDirName  = "mosque-times"
	configFileName = "config.json"
	envPrefix      = "MOSQUE_TIMES_"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"mosque_id",
	"api_url", "api_token",
	"timezone",
	"time_format",
	"cache_dir", "cache_backend",
	"redis_addr", "redis_password",
	"mqtt_broker",
	"listen",
	"refresh_minutes",
}

// secretKeys are masked by `config` listings.
var secretKeys = map[string]bool{
	"api_token":      true,
	"redis_password": true,
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults).
type Config struct {
	MosqueID       string `json:"mosque_id,omitempty"`
	APIURL         string `json:"api_url,omitempty"`
	APIToken       string `json:"api_token,omitempty"`
	Timezone       string `json:"timezone,omitempty"`    // overrides the mosque's own zone
	TimeFormat     string `json:"time_format,omitempty"` // "12h" or "24h"
	CacheDir       string `json:"cache_dir,omitempty"`
	CacheBackend   string `json:"cache_backend,omitempty"` // "file", "redis" or "none"
	RedisAddr      string `json:"redis_addr,omitempty"`
	RedisPassword  string `json:"redis_password,omitempty"`
	MQTTBroker     string `json:"mqtt_broker,omitempty"`
	Listen         string `json:"listen,omitempty"`
	RefreshMinutes *int   `json:"refresh_minutes,omitempty"` // pointer so 0 ("always refresh") is distinct from unset
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	refresh := 60
	return Config{
		TimeFormat:     "12h",
		CacheBackend:   BackendFile,
		RedisAddr:      "localhost:6379",
		MQTTBroker:     "tcp://localhost:1883",
		Listen:         ":8080",
		RefreshMinutes: &refresh,
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	// The file may hold an API token.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the
// process environment. Missing files are skipped and variables that are
// already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(key)
}

// ApplyEnv overrides fields from MOSQUE_TIMES_<KEY> variables, validated
// the same way as `config set`.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, key := range ValidKeys {
		v, ok := lookup(EnvName(key))
		if !ok || v == "" {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("%s: %w", EnvName(key), err)
		}
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "mosque_id":
		if strings.ContainsAny(value, "/ ") {
			return fmt.Errorf("invalid mosque_id %q: must not contain '/' or spaces", value)
		}
		c.MosqueID = value
	case "api_url":
		u, err := url.Parse(value)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid api_url %q: must be an http(s) URL", value)
		}
		c.APIURL = value
	case "api_token":
		c.APIToken = value
	case "timezone":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("invalid timezone %q: must be an IANA zone like \"America/New_York\"", value)
		}
		c.Timezone = value
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "cache_dir":
		c.CacheDir = value
	case "cache_backend":
		switch value {
		case BackendFile, BackendRedis, BackendNone:
		default:
			return fmt.Errorf("invalid cache_backend %q: must be \"file\", \"redis\" or \"none\"", value)
		}
		c.CacheBackend = value
	case "redis_addr":
		c.RedisAddr = value
	case "redis_password":
		c.RedisPassword = value
	case "mqtt_broker":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid mqtt_broker %q: must look like tcp://host:1883", value)
		}
		c.MQTTBroker = value
	case "listen":
		c.Listen = value
	case "refresh_minutes":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid refresh_minutes %q: must be an integer", value)
		}
		if v < 0 || v > 24*60 {
			return fmt.Errorf("invalid refresh_minutes %q: must be between 0 and 1440", value)
		}
		c.RefreshMinutes = &v
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "mosque_id":
		return c.MosqueID, nil
	case "api_url":
		return c.APIURL, nil
	case "api_token":
		return c.APIToken, nil
	case "timezone":
		return c.Timezone, nil
	case "time_format":
		return c.TimeFormat, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "cache_backend":
		return c.CacheBackend, nil
	case "redis_addr":
		return c.RedisAddr, nil
	case "redis_password":
		return c.RedisPassword, nil
	case "mqtt_broker":
		return c.MQTTBroker, nil
	case "listen":
		return c.Listen, nil
	case "refresh_minutes":
		if c.RefreshMinutes == nil {
			return "", nil
		}
		return strconv.Itoa(*c.RefreshMinutes), nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Display returns the value of key for listings, masking secrets.
func (c *Config) Display(key string) (string, error) {
	v, err := c.Get(key)
	if err != nil || v == "" || !secretKeys[key] {
		return v, err
	}
	return "********", nil
}

// Merge fills every unset field of c from other.
func (c *Config) Merge(other Config) {
	for _, key := range ValidKeys {
		if cur, _ := c.Get(key); cur != "" {
			continue
		}
		if v, _ := other.Get(key); v != "" {
			// Values from Get round-trip through Set.
			_ = c.Set(key, v)
		}
	}
}

// Refresh returns the cache refresh interval, falling back to def.
func (c *Config) Refresh(def time.Duration) time.Duration {
	if c.RefreshMinutes != nil {
		return time.Duration(*c.RefreshMinutes) * time.Minute
	}
	return def
}
