// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateConfig points CONFIG_PATH at a missing file and moves into an empty
// directory so no stray config.yaml is picked up.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.NATS.StreamName != "BLOGFLOCK" {
		t.Errorf("NATS.StreamName = %q, want BLOGFLOCK", cfg.NATS.StreamName)
	}
	if cfg.NATS.PostTopic != "post_queue" || cfg.NATS.FetchTopic != "feed_queue" {
		t.Errorf("topics = %q/%q, want post_queue/feed_queue", cfg.NATS.PostTopic, cfg.NATS.FetchTopic)
	}
	if cfg.Feed.DiscoveryTimeout != 15*time.Second {
		t.Errorf("Feed.DiscoveryTimeout = %v, want 15s", cfg.Feed.DiscoveryTimeout)
	}
	if cfg.Feed.MaxBodyBytes != 5<<20 {
		t.Errorf("Feed.MaxBodyBytes = %d, want 5MiB", cfg.Feed.MaxBodyBytes)
	}
	if cfg.Hashid.Salt != "Blogflock" || cfg.Hashid.MinLength != 5 {
		t.Errorf("Hashid = %+v, want salt Blogflock and min length 5", cfg.Hashid)
	}
	if cfg.API.DefaultPageSize != 20 || cfg.API.MaxPageSize != 100 {
		t.Errorf("page sizes = %d/%d, want 20/100", cfg.API.DefaultPageSize, cfg.API.MaxPageSize)
	}
	if !cfg.Fetcher.Enabled {
		t.Error("Fetcher.Enabled should be true by default")
	}
	if !cfg.Database.MigrateOnStart {
		t.Error("Database.MigrateOnStart should be true by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"ENVIRONMENT", "server.environment"},
		{"DATABASE_URL", "database.url"},
		{"DB_MIGRATE_ON_START", "database.migrate_on_start"},
		{"NATS_URL", "nats.url"},
		{"NATS_EMBEDDED", "nats.embedded_server"},
		{"NATS_RETENTION_DAYS", "nats.stream_retention_days"},
		{"NATS_MAX_DELIVER", "nats.max_deliver"},
		{"FEED_ALLOW_PRIVATE_NETWORKS", "feed.allow_private_networks"},
		{"FETCHER_ENABLED", "fetcher.enabled"},
		{"HASHID_SALT", "hashid.salt"},
		{"API_TOKEN", "api.token"},
		{"CORS_ORIGINS", "api.cors_origins"},
		{"DISABLE_RATE_LIMIT", "api.rate_limit_disabled"},
		{"LOG_LEVEL", "logging.level"},
		{"log_format", "logging.format"},

		// Unknown (should return empty)
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := isolateConfig(t)

	t.Run("no config file exists", func(t *testing.T) {
		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})

	t.Run("config.yaml in working directory", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}
		defer os.Remove(path)

		if got := findConfigFile(); got != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", got)
		}
	})

	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		custom := filepath.Join(dir, "custom.yaml")
		if err := os.WriteFile(custom, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, custom)

		if got := findConfigFile(); got != custom {
			t.Errorf("findConfigFile() = %q, want %q", got, custom)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	isolateConfig(t)

	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NATS_ACK_WAIT", "45s")
	t.Setenv("FEED_ALLOW_PRIVATE_NETWORKS", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("API_TOKEN", "s3cr3t-ingest-token")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.NATS.AckWait != 45*time.Second {
		t.Errorf("NATS.AckWait = %v, want 45s", cfg.NATS.AckWait)
	}
	if !cfg.Feed.AllowPrivateNetworks {
		t.Error("Feed.AllowPrivateNetworks should be true")
	}
	if got := strings.Join(cfg.API.CORSOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("API.CORSOrigins = %v, want two trimmed origins", cfg.API.CORSOrigins)
	}
	if cfg.API.Token != "s3cr3t-ingest-token" {
		t.Errorf("API.Token = %q", cfg.API.Token)
	}

	// Defaults still apply to unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := isolateConfig(t)

	content := `
server:
  port: 9100
  environment: staging
nats:
  stream_name: TESTSTREAM
  max_deliver: 9
api:
  cors_origins:
    - https://lists.example
hashid:
  salt: pepper
`
	path := filepath.Join(dir, "blogflock.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9100 || cfg.Server.Environment != "staging" {
		t.Errorf("Server = %+v, want port 9100 in staging", cfg.Server)
	}
	if cfg.NATS.StreamName != "TESTSTREAM" || cfg.NATS.MaxDeliver != 9 {
		t.Errorf("NATS stream/max_deliver = %q/%d", cfg.NATS.StreamName, cfg.NATS.MaxDeliver)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "https://lists.example" {
		t.Errorf("API.CORSOrigins = %v", cfg.API.CORSOrigins)
	}
	if cfg.Hashid.Salt != "pepper" {
		t.Errorf("Hashid.Salt = %q, want pepper", cfg.Hashid.Salt)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	dir := isolateConfig(t)

	path := filepath.Join(dir, "blogflock.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9200")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("Server.Port = %d, want env override 9200", cfg.Server.Port)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad port", map[string]string{"HTTP_PORT": "70000"}, "HTTP_PORT"},
		{"bad environment", map[string]string{"ENVIRONMENT": "prod"}, "ENVIRONMENT"},
		{"bad database url", map[string]string{"DATABASE_URL": "mysql://localhost/db"}, "DATABASE_URL"},
		{"bad nats url", map[string]string{"NATS_URL": "http://localhost:4222"}, "NATS_URL"},
		{"same topics", map[string]string{"NATS_POST_TOPIC": "q", "NATS_FETCH_TOPIC": "q"}, "must differ"},
		{"zero max deliver", map[string]string{"NATS_MAX_DELIVER": "0"}, "NATS_MAX_DELIVER"},
		{"negative hashid length", map[string]string{"HASHID_MIN_LENGTH": "-1"}, "HASHID_MIN_LENGTH"},
		{"page size", map[string]string{"API_DEFAULT_PAGE_SIZE": "500"}, "API_DEFAULT_PAGE_SIZE"},
		{"placeholder token", map[string]string{"API_TOKEN": "changeme"}, "placeholder"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadWithKoanf()
			if err == nil {
				t.Fatalf("LoadWithKoanf() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8080", got)
	}
}
