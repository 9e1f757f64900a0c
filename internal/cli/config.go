package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dendro/pkg/errors"
)

// Cache backend names accepted in the config file.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the on-disk CLI configuration, read from
// ~/.config/dendro/config.toml (or $XDG_CONFIG_HOME/dendro/config.toml).
// Command-line flags override config values.
//
// Example:
//
//	[search]
//	jobs = 8
//	iters = 5000
//
//	[delegate]
//	path = "/usr/local/bin/mqtc-solver"
//	args = ["--threads", "4"]
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
type Config struct {
	Search   SearchConfig   `toml:"search"`
	Delegate DelegateConfig `toml:"delegate"`
	Cache    CacheConfig    `toml:"cache"`
}

// SearchConfig sets default search parameters.
type SearchConfig struct {
	Jobs  int `toml:"jobs"`
	Iters int `toml:"iters"`
}

// DelegateConfig configures the external solver.
type DelegateConfig struct {
	Path string   `toml:"path"`
	Args []string `toml:"args"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is "file" (default), "redis", or "none".
	Backend string `toml:"backend"`

	// Dir overrides the file backend's directory.
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// LoadConfig reads and validates a TOML config file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInternal, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}

	switch cfg.Cache.Backend {
	case "", CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return Config{}, errors.New(errors.ErrCodeInvalidOptions, "unknown cache backend %q in %s", cfg.Cache.Backend, path)
	}
	return cfg, nil
}

// LoadDefaultConfig reads the config from the standard location.
// A missing file yields the zero config without error.
func LoadDefaultConfig() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Config{}, err
	}
	cfg, err := LoadConfig(path)
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return Config{}, nil
	}
	return cfg, err
}

// configPath returns the config file location using XDG conventions.
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
