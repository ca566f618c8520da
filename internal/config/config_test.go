package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/scopecheck/internal/config"
)

const baseTOML = `
version = "1.2.0"

[server]
port = 9090

[database]
name = "scopecheck"
user = "scope"

[api]
base_path = "/v1"
max_body_size = "256KB"

[api.cors]
enabled = true
origins = ["https://lab.example"]

[lookup]
base_url = "http://registration.lab/api"
concurrency = 2
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadBaseFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, config.BaseConfigFile, baseTOML)
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Version != "1.2.0" || cfg.Server.Port != 9090 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server/version = %+v %q", cfg.Server, cfg.Version)
	}
	if cfg.API.BasePath != "/v1" || cfg.API.MaxBodySize != 256*1024 {
		t.Errorf("api = %+v", cfg.API)
	}
	if !cfg.API.CORS.Enabled || cfg.API.CORS.Origins[0] != "https://lab.example" {
		t.Errorf("cors = %+v", cfg.API.CORS)
	}
	if cfg.API.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination defaults not applied: %+v", cfg.API.Pagination)
	}
	if cfg.API.Auth.Enabled {
		t.Error("auth should default to disabled")
	}
	if !cfg.Lookup.Enabled() || cfg.Lookup.Concurrency != 2 || cfg.Lookup.Timeout != "10s" {
		t.Errorf("lookup = %+v", cfg.Lookup)
	}
	if cfg.Storage.Enabled() || cfg.Storage.ContainerName != "evaluations" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, config.BaseConfigFile, baseTOML)
	writeFile(t, dir, "config.staging.toml", `
[database]
host = "db.staging"

[storage]
connection_string = "UseDevelopmentStorage=true"

[api.cors]
enabled = true
`)
	t.Chdir(dir)
	t.Setenv(config.EnvScopecheckEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Env() != "staging" {
		t.Errorf("Env() = %q", cfg.Env())
	}
	if cfg.Database.Host != "db.staging" || cfg.Database.Name != "scopecheck" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if !cfg.Storage.Enabled() {
		t.Error("storage should be enabled by the overlay")
	}
	if cfg.API.BasePath != "/v1" {
		t.Errorf("base path lost in merge: %q", cfg.API.BasePath)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCOPECHECK_DB_NAME", "scopecheck")
	t.Setenv("SCOPECHECK_DB_USER", "scope")
	t.Setenv("SCOPECHECK_SERVER_PORT", "8181")
	t.Setenv("SCOPECHECK_API_MAX_BODY_SIZE", "2MB")
	t.Setenv("SCOPECHECK_LOOKUP_BASE_URL", "http://registration:8081")
	t.Setenv(config.EnvScopecheckVersion, "9.9.9")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8181 || cfg.Version != "9.9.9" {
		t.Errorf("port/version = %d %q", cfg.Server.Port, cfg.Version)
	}
	if cfg.API.MaxBodySize != 2<<20 {
		t.Errorf("MaxBodySize = %d", cfg.API.MaxBodySize)
	}
	if cfg.Lookup.BaseURL != "http://registration:8081" {
		t.Errorf("lookup base = %q", cfg.Lookup.BaseURL)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		toml    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database user",
			toml:    "[database]\nname = \"scopecheck\"\n",
			wantErr: "database: user required",
		},
		{
			name:    "malformed toml",
			toml:    "[server\nport = 1",
			wantErr: "parse config",
		},
		{
			name:    "auth without issuer",
			toml:    baseTOML + "\n[api.auth]\nenabled = true\naudience = \"scopecheck\"\n",
			wantErr: "auth: auth issuer required",
		},
		{
			name:    "both storage credentials",
			toml:    baseTOML + "\n[storage]\nconnection_string = \"a\"\nservice_url = \"https://acct.blob.core.windows.net\"\n",
			wantErr: "storage: set connection_string or service_url",
		},
		{
			name:    "bad body size env",
			toml:    baseTOML,
			env:     map[string]string{"SCOPECHECK_API_MAX_BODY_SIZE": "lots"},
			wantErr: "SCOPECHECK_API_MAX_BODY_SIZE",
		},
		{
			name:    "bad lookup url",
			toml:    baseTOML,
			env:     map[string]string{"SCOPECHECK_LOOKUP_BASE_URL": "registration"},
			wantErr: "lookup: invalid base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, config.BaseConfigFile, tt.toml)
			t.Chdir(dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
