package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/scopecheck/pkg/formatting"
	"github.com/JaimeStill/scopecheck/pkg/middleware"
	"github.com/JaimeStill/scopecheck/pkg/pagination"
)

const defaultMaxBodySize formatting.ByteSize = 1 << 20

var corsEnv = &middleware.CORSEnv{
	Enabled:          "SCOPECHECK_CORS_ENABLED",
	Origins:          "SCOPECHECK_CORS_ORIGINS",
	AllowedMethods:   "SCOPECHECK_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "SCOPECHECK_CORS_ALLOWED_HEADERS",
	AllowCredentials: "SCOPECHECK_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "SCOPECHECK_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "SCOPECHECK_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "SCOPECHECK_PAGINATION_MAX_PAGE_SIZE",
}

var authEnv = &middleware.AuthEnv{
	Enabled:  "SCOPECHECK_AUTH_ENABLED",
	Issuer:   "SCOPECHECK_AUTH_ISSUER",
	Audience: "SCOPECHECK_AUTH_AUDIENCE",
}

// APIConfig holds API routing, request limits, CORS, pagination, and auth.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize formatting.ByteSize   `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
	Auth        middleware.AuthConfig `toml:"auth"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}

	if c.MaxBodySize <= 0 {
		return fmt.Errorf("max_body_size must be positive")
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != 0 {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.Auth.Merge(&overlay.Auth)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == 0 {
		c.MaxBodySize = defaultMaxBodySize
	}
}

func (c *APIConfig) loadEnv() error {
	if v := os.Getenv("SCOPECHECK_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("SCOPECHECK_API_MAX_BODY_SIZE"); v != "" {
		if err := c.MaxBodySize.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("SCOPECHECK_API_MAX_BODY_SIZE: %w", err)
		}
	}
	return nil
}
