// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/blogflock/internal/config"
	"github.com/tomtom215/blogflock/internal/eventprocessor"
	"github.com/tomtom215/blogflock/internal/feed"
	"github.com/tomtom215/blogflock/internal/fetcher"
	"github.com/tomtom215/blogflock/internal/logging"
)

// NATSComponents holds the broker connection and everything built on it.
// The router is run by the supervisor; the rest is closed by Shutdown once
// the supervisor has returned.
type NATSComponents struct {
	server    *eventprocessor.EmbeddedServer
	natsConn  *natsgo.Conn
	publisher *eventprocessor.Publisher
	router    *eventprocessor.Router

	ingestSubscriber *eventprocessor.Subscriber
	fetchSubscriber  *eventprocessor.Subscriber

	mu      sync.Mutex
	stopped bool
}

// InitNATS connects to (or embeds) the broker, ensures the stream and
// registers the post-topic ingest handler plus, when enabled, the fetch
// worker on the fetch topic.
func InitNATS(cfg *config.Config, store eventprocessor.PostStore, broadcaster eventprocessor.Broadcaster) (*NATSComponents, error) {
	logging.Info().Msg("Initializing NATS event processing...")

	components := &NATSComponents{}
	wmLogger := logging.NewWatermillAdapter(false)

	// Step 1: embedded server or external URL
	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		serverCfg := eventprocessor.DefaultServerConfig(&cfg.NATS)
		server, err := eventprocessor.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, err
		}
		components.server = server
		natsURL = server.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	// Step 2: connection used for stream management and readiness
	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	components.natsConn = nc

	// Step 3: stream covering the post, fetch and poison subjects
	js, err := jetstream.New(nc)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	streamCfg := eventprocessor.DefaultStreamConfig(&cfg.NATS)
	streamInitializer, err := eventprocessor.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stream, err := streamInitializer.EnsureStream(ctx)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	streamInfo := stream.CachedInfo()
	logging.Info().
		Str("name", streamInfo.Config.Name).
		Strs("subjects", streamInfo.Config.Subjects).
		Dur("max_age", streamInfo.Config.MaxAge).
		Msg("JetStream stream ready")

	// Step 4: publisher behind a circuit breaker
	publisher, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(natsURL, &cfg.NATS), wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, err
	}
	publisher.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(eventprocessor.DefaultCircuitBreakerConfig("nats-publisher")))
	components.publisher = publisher

	// Step 5: router; the poison queue reuses the publisher's connection
	routerCfg := eventprocessor.DefaultRouterConfig(&cfg.NATS)
	poisonPublisher := publisher.WatermillPublisher()
	if !cfg.NATS.RouterPoisonQueueEnabled {
		poisonPublisher = nil
	}
	router, err := eventprocessor.NewRouter(&routerCfg, poisonPublisher, wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create router: %w", err)
	}
	components.router = router

	// Step 6: ingest consumer on the post topic
	ingestSubCfg := eventprocessor.DefaultSubscriberConfig(natsURL, "ingest", &cfg.NATS)
	ingestSub, err := eventprocessor.NewSubscriber(&ingestSubCfg, wmLogger)
	if err != nil {
		components.Shutdown(context.Background())
		return nil, fmt.Errorf("create ingest subscriber: %w", err)
	}
	components.ingestSubscriber = ingestSub
	ingest := eventprocessor.NewIngestHandler(store, broadcaster, wmLogger)
	router.AddConsumerHandler("ingest", cfg.NATS.PostTopic, ingestSub, ingest.Handle)

	// Step 7: fetch worker on the fetch topic
	if cfg.Fetcher.Enabled {
		fetchSubCfg := eventprocessor.DefaultSubscriberConfig(natsURL, "fetcher", &cfg.NATS)
		fetchSub, err := eventprocessor.NewSubscriber(&fetchSubCfg, wmLogger)
		if err != nil {
			components.Shutdown(context.Background())
			return nil, fmt.Errorf("create fetch subscriber: %w", err)
		}
		components.fetchSubscriber = fetchSub
		worker := fetcher.NewWorker(feed.NewParser(cfg.Feed), publisher)
		router.AddConsumerHandler("fetcher", cfg.NATS.FetchTopic, fetchSub, worker.Handle)
		logging.Info().Str("topic", cfg.NATS.FetchTopic).Msg("Fetch worker registered")
	}

	logging.Info().
		Int("handlers", router.HandlerCount()).
		Bool("poison_queue", poisonPublisher != nil).
		Msg("NATS components initialized")

	return components, nil
}

// Publisher returns the candidate and fetch request publisher.
func (c *NATSComponents) Publisher() *eventprocessor.Publisher {
	if c == nil {
		return nil
	}
	return c.publisher
}

// Router returns the message router for the supervisor tree.
func (c *NATSComponents) Router() *eventprocessor.Router {
	if c == nil {
		return nil
	}
	return c.router
}

// Conn returns the broker connection used for readiness checks.
func (c *NATSComponents) Conn() *natsgo.Conn {
	if c == nil {
		return nil
	}
	return c.natsConn
}

// Shutdown closes the components in dependency order. It is safe to call
// more than once and on partially initialized components.
//
// Order:
//  1. Router (stops handlers if the supervisor has not already)
//  2. Subscribers
//  3. Publisher
//  4. NATS connection
//  5. Embedded server
func (c *NATSComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	logging.Info().Msg("Shutting down NATS components...")

	if c.router != nil {
		if err := c.router.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing router")
		}
	}
	for name, sub := range map[string]*eventprocessor.Subscriber{
		"ingest":  c.ingestSubscriber,
		"fetcher": c.fetchSubscriber,
	} {
		if sub == nil {
			continue
		}
		if err := sub.Close(); err != nil {
			logging.Error().Err(err).Str("subscriber", name).Msg("Error closing subscriber")
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing publisher")
		}
	}
	if c.natsConn != nil {
		c.natsConn.Close()
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down NATS server")
		}
		logging.Info().Msg("Embedded NATS server stopped")
	}

	logging.Info().Msg("NATS shutdown complete")
}
