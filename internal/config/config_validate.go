// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/blogflock/internal/logging"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateNATS,
		c.validateFeed,
		c.validateHashid,
		c.validateAPI,
		c.validateLogging,
	}
	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

// IsProduction returns true when running with ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if err := validatePostgresURL(c.Database.URL); err != nil {
		return fmt.Errorf("DATABASE_URL is invalid: %w", err)
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}
	return nil
}

// NATS limit constants
const (
	natsMinMemory      = 64 * 1024 * 1024  // 64MB
	natsMinStore       = 100 * 1024 * 1024 // 100MB
	natsMaxRetention   = 365
	natsMinRetention   = 1
	natsMaxSubscribers = 32
)

func (c *Config) validateNATS() error {
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}

	validators := []func() error{
		c.validateNATSStorage,
		c.validateNATSTopics,
		c.validateNATSConsumers,
	}
	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateNATSStorage() error {
	if c.NATS.MaxMemory < natsMinMemory {
		return fmt.Errorf("NATS_MAX_MEMORY must be at least 64MB (67108864 bytes)")
	}
	if c.NATS.MaxStore < natsMinStore {
		return fmt.Errorf("NATS_MAX_STORE must be at least 100MB (104857600 bytes)")
	}
	if c.NATS.StreamRetentionDays < natsMinRetention || c.NATS.StreamRetentionDays > natsMaxRetention {
		return fmt.Errorf("NATS_RETENTION_DAYS must be between 1 and 365")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	return nil
}

func (c *Config) validateNATSTopics() error {
	if c.NATS.StreamName == "" {
		return fmt.Errorf("NATS_STREAM_NAME is required")
	}
	if c.NATS.PostTopic == "" || c.NATS.FetchTopic == "" {
		return fmt.Errorf("NATS_POST_TOPIC and NATS_FETCH_TOPIC are required")
	}
	if c.NATS.PostTopic == c.NATS.FetchTopic {
		return fmt.Errorf("NATS_POST_TOPIC and NATS_FETCH_TOPIC must differ")
	}
	if c.NATS.RouterPoisonQueueEnabled && c.NATS.RouterPoisonQueueTopic == "" {
		return fmt.Errorf("NATS_ROUTER_POISON_QUEUE_TOPIC is required when the poison queue is enabled")
	}
	return nil
}

func (c *Config) validateNATSConsumers() error {
	if c.NATS.SubscribersCount < 1 || c.NATS.SubscribersCount > natsMaxSubscribers {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and 32")
	}
	if c.NATS.MaxDeliver < 1 {
		return fmt.Errorf("NATS_MAX_DELIVER must be at least 1")
	}
	if c.NATS.AckWait < time.Second {
		return fmt.Errorf("NATS_ACK_WAIT must be at least 1s")
	}
	if c.NATS.RouterRetryCount < 0 {
		return fmt.Errorf("NATS_ROUTER_RETRY_COUNT must not be negative")
	}
	if c.NATS.RouterThrottlePerSecond < 0 {
		return fmt.Errorf("NATS_ROUTER_THROTTLE_PER_SECOND must not be negative")
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.RequestTimeout <= 0 || c.Feed.DiscoveryTimeout <= 0 {
		return fmt.Errorf("FEED_REQUEST_TIMEOUT and FEED_DISCOVERY_TIMEOUT must be positive")
	}
	if c.Feed.MaxBodyBytes < 1024 {
		return fmt.Errorf("FEED_MAX_BODY_BYTES must be at least 1024")
	}
	if c.Feed.CacheTTL < 0 {
		return fmt.Errorf("FEED_CACHE_TTL must not be negative")
	}
	if c.Feed.CacheTTL > 0 && c.Feed.CacheSize < 1 {
		return fmt.Errorf("FEED_CACHE_SIZE must be at least 1 when caching is enabled")
	}
	if c.Feed.RequestsPerSecond < 0 {
		return fmt.Errorf("FEED_REQUESTS_PER_SECOND must not be negative")
	}
	if c.IsProduction() && c.Feed.AllowPrivateNetworks {
		logging.Warn().Msg("FEED_ALLOW_PRIVATE_NETWORKS=true in production: feed fetching can reach internal hosts")
	}
	return nil
}

func (c *Config) validateHashid() error {
	if c.Hashid.Salt == "" {
		return fmt.Errorf("HASHID_SALT is required")
	}
	if c.Hashid.MinLength < 0 {
		return fmt.Errorf("HASHID_MIN_LENGTH must not be negative")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 || c.API.MaxPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE and API_MAX_PAGE_SIZE must be at least 1")
	}
	if c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must not exceed API_MAX_PAGE_SIZE")
	}
	if !c.API.RateLimitDisabled {
		if c.API.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.API.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	if c.API.Token != "" && containsPlaceholder(c.API.Token) {
		return fmt.Errorf("API_TOKEN appears to be a placeholder value")
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		logging.Warn().Msg("CORS_ORIGINS contains '*' in production")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.API.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns mark values copied from example configs.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_TOKEN",
	"PLACEHOLDER",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
