// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

// Package config loads Blogflock configuration with koanf.
//
// Configuration Loading Order:
//  1. Defaults: built-in values for every setting
//  2. Config File: optional YAML file (CONFIG_PATH, config.yaml, /etc/blogflock/config.yaml)
//  3. Environment Variables: explicit mapping table, highest priority
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	NATS     NATSConfig     `koanf:"nats"`
	Feed     FeedConfig     `koanf:"feed"`
	Fetcher  FetcherConfig  `koanf:"fetcher"`
	Hashid   HashidConfig   `koanf:"hashid"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

// NATSConfig holds broker, stream and router settings.
type NATSConfig struct {
	URL                 string `koanf:"url"`
	EmbeddedServer      bool   `koanf:"embedded_server"`
	StoreDir            string `koanf:"store_dir"`
	MaxMemory           int64  `koanf:"max_memory"`
	MaxStore            int64  `koanf:"max_store"`
	StreamName          string `koanf:"stream_name"`
	StreamRetentionDays int    `koanf:"stream_retention_days"`

	// PostTopic carries candidate posts; FetchTopic carries fetch requests.
	PostTopic  string `koanf:"post_topic"`
	FetchTopic string `koanf:"fetch_topic"`

	DurableName      string        `koanf:"durable_name"`
	QueueGroup       string        `koanf:"queue_group"`
	SubscribersCount int           `koanf:"subscribers_count"`
	MaxDeliver       int           `koanf:"max_deliver"`
	AckWait          time.Duration `koanf:"ack_wait"`

	RouterRetryCount           int           `koanf:"router_retry_count"`
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`
	RouterThrottlePerSecond    int           `koanf:"router_throttle_per_second"` // 0 = unlimited
	RouterPoisonQueueEnabled   bool          `koanf:"router_poison_queue_enabled"`
	RouterPoisonQueueTopic     string        `koanf:"router_poison_queue_topic"`
	RouterCloseTimeout         time.Duration `koanf:"router_close_timeout"`
}

// FeedConfig holds outbound feed fetching settings shared by the resolver
// and the parser.
type FeedConfig struct {
	UserAgent            string        `koanf:"user_agent"`
	RequestTimeout       time.Duration `koanf:"request_timeout"`
	DiscoveryTimeout     time.Duration `koanf:"discovery_timeout"`
	MaxBodyBytes         int64         `koanf:"max_body_bytes"`
	AllowPrivateNetworks bool          `koanf:"allow_private_networks"`
	CacheTTL             time.Duration `koanf:"cache_ttl"` // 0 disables resolution caching
	CacheSize            int           `koanf:"cache_size"`
	RequestsPerSecond    float64       `koanf:"requests_per_second"`
}

// FetcherConfig controls the in-process fetch worker.
type FetcherConfig struct {
	Enabled bool `koanf:"enabled"`
}

// HashidConfig configures the public identifier codec.
type HashidConfig struct {
	Salt      string `koanf:"salt"`
	MinLength int    `koanf:"min_length"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	// Token guards the ingest and debug routes. Empty disables them.
	Token             string        `koanf:"token"`
	DefaultPageSize   int           `koanf:"default_page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
