// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package eventprocessor

import (
	"time"

	"github.com/tomtom215/blogflock/internal/config"
)

// DuplicateWindow is how long JetStream remembers message ids.
const DuplicateWindow = 2 * time.Minute

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns embedded server settings for cfg.
func DefaultServerConfig(cfg *config.NATSConfig) ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          cfg.StoreDir,
		JetStreamMaxMem:   cfg.MaxMemory,
		JetStreamMaxStore: cfg.MaxStore,
	}
}

// PublisherConfig holds publisher connection settings.
type PublisherConfig struct {
	URL              string
	PostTopic        string
	FetchTopic       string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production publisher settings.
func DefaultPublisherConfig(url string, cfg *config.NATSConfig) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		PostTopic:        cfg.PostTopic,
		FetchTopic:       cfg.FetchTopic,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds durable consumer settings.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration

	// StreamName binds the consumer to an existing stream instead of
	// auto-provisioning one per topic.
	StreamName string
}

// DefaultSubscriberConfig returns consumer settings for one handler. The
// handler name is appended to the durable and queue group so each handler
// gets its own consumer.
func DefaultSubscriberConfig(url, handler string, cfg *config.NATSConfig) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      cfg.DurableName + "-" + handler,
		QueueGroup:       cfg.QueueGroup + "-" + handler,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWait,
		MaxDeliver:       cfg.MaxDeliver,
		MaxAckPending:    1000,
		CloseTimeout:     cfg.RouterCloseTimeout,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		StreamName:       cfg.StreamName,
	}
}

// StreamConfig holds JetStream stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig binds the post and fetch topics to one stream.
func DefaultStreamConfig(cfg *config.NATSConfig) StreamConfig {
	subjects := []string{cfg.PostTopic, cfg.FetchTopic}
	if cfg.RouterPoisonQueueEnabled && cfg.RouterPoisonQueueTopic != "" {
		subjects = append(subjects, cfg.RouterPoisonQueueTopic)
	}
	return StreamConfig{
		Name:            cfg.StreamName,
		Subjects:        subjects,
		MaxAge:          time.Duration(cfg.StreamRetentionDays) * 24 * time.Hour,
		MaxBytes:        -1,
		MaxMsgs:         -1,
		DuplicateWindow: DuplicateWindow,
		Replicas:        1,
	}
}

// CircuitBreakerConfig configures the publish circuit breaker.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Requests allowed in half-open state
	Interval         time.Duration // Cyclic period for clearing counts
	Timeout          time.Duration // Time in open state before half-open
	FailureThreshold uint32        // Consecutive failures to trip
}

// DefaultCircuitBreakerConfig returns production breaker settings.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// ThrottlePerSecond limits handled messages per second (0 = disabled).
	ThrottlePerSecond int64

	// PoisonQueueTopic receives messages failing with a PermanentError.
	// Empty disables the poison queue; such messages are then logged and acked.
	PoisonQueueTopic string
}

// DefaultRouterConfig returns router settings from cfg.
func DefaultRouterConfig(cfg *config.NATSConfig) RouterConfig {
	rc := RouterConfig{
		CloseTimeout:         cfg.RouterCloseTimeout,
		RetryMaxRetries:      cfg.RouterRetryCount,
		RetryInitialInterval: cfg.RouterRetryInitialInterval,
		RetryMaxInterval:     10 * time.Second,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    int64(cfg.RouterThrottlePerSecond),
	}
	if cfg.RouterPoisonQueueEnabled {
		rc.PoisonQueueTopic = cfg.RouterPoisonQueueTopic
	}
	return rc
}
