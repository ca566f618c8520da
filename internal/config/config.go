// Package config loads scopecheck's TOML configuration. A base config.toml
// is merged with an optional config.<env>.toml overlay, then every section
// applies its defaults, SCOPECHECK_* environment overrides, and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/scopecheck/internal/lookup"
	"github.com/JaimeStill/scopecheck/pkg/database"
	"github.com/JaimeStill/scopecheck/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvScopecheckEnv             = "SCOPECHECK_ENV"
	EnvScopecheckShutdownTimeout = "SCOPECHECK_SHUTDOWN_TIMEOUT"
	EnvScopecheckVersion         = "SCOPECHECK_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "SCOPECHECK_DB_HOST",
	Port:            "SCOPECHECK_DB_PORT",
	Name:            "SCOPECHECK_DB_NAME",
	User:            "SCOPECHECK_DB_USER",
	Password:        "SCOPECHECK_DB_PASSWORD",
	SSLMode:         "SCOPECHECK_DB_SSL_MODE",
	MaxOpenConns:    "SCOPECHECK_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SCOPECHECK_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SCOPECHECK_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SCOPECHECK_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "SCOPECHECK_STORAGE_CONTAINER_NAME",
	ConnectionString: "SCOPECHECK_STORAGE_CONNECTION_STRING",
	ServiceURL:       "SCOPECHECK_STORAGE_SERVICE_URL",
	MaxListSize:      "SCOPECHECK_STORAGE_MAX_LIST_SIZE",
}

var lookupEnv = &lookup.Env{
	BaseURL:     "SCOPECHECK_LOOKUP_BASE_URL",
	Timeout:     "SCOPECHECK_LOOKUP_TIMEOUT",
	Concurrency: "SCOPECHECK_LOOKUP_CONCURRENCY",
}

// Config is the root configuration for the scopecheck service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Lookup          lookup.Config   `toml:"lookup"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the SCOPECHECK_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvScopecheckEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base file. The overlay is looked up
// beside the working directory as in Load.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Lookup.Merge(&overlay.Lookup)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Lookup.Finalize(lookupEnv); err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvScopecheckShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvScopecheckVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvScopecheckEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
