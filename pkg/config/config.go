// Package config loads qroute settings from a TOML file.
//
// Settings resolve in three layers: built-in defaults, then the config
// file, then command-line flags on top. The file is optional; every field
// has a usable default.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/qasmkit/qroute/pkg/errors"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "qroute.toml"

// Config holds all qroute settings.
type Config struct {
	// Register is the quantum register the router maps onto the device.
	Register string `toml:"register"`

	// Device is the path to the default device description.
	Device string `toml:"device"`

	Cache  CacheConfig  `toml:"cache"`
	Redis  RedisConfig  `toml:"redis"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the routed-artifact cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory. Empty means the user cache
	// directory.
	Dir string `toml:"dir"`

	// TTL is how long cached artifacts stay valid, e.g. "24h". Empty
	// means no expiration.
	TTL string `toml:"ttl"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Register: "q",
		Cache: CacheConfig{
			Backend: "file",
			TTL:     "720h",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a config file and merges it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault looks for qroute.toml in the working directory and loads
// it when present. A missing file yields the defaults without error.
func LoadOrDefault() (Config, error) {
	path := filepath.Join(".", DefaultFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks field values that cannot be caught by decoding alone.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Register == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "register must not be empty")
	}
	if c.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache ttl %q", c.Cache.TTL)
		}
	}
	return nil
}

// CacheTTL returns the parsed cache TTL. Zero means no expiration.
func (c Config) CacheTTL() time.Duration {
	if c.Cache.TTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0
	}
	return d
}
