// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

// Package eventprocessor moves feed work through NATS JetStream with Watermill.
//
// Two subjects are bound to one stream (BLOGFLOCK by default):
//
//	feed_queue  fetch requests (the serialized Blog record, keyed on "id")
//	post_queue  candidate posts ({"blog_id","title","content","url","published_at","guid"})
//
// Data flow:
//
//	registry / API ──► feed_queue ──► fetcher ──► post_queue ──► IngestHandler
//	                                                              │
//	                                   Postgres (posts, blog stats) ◄┘
//	                                                              │
//	                                   websocket.Registry ◄───────┘ (new posts only)
//
// # Components
//
//   - EmbeddedServer: in-process nats-server with JetStream for single-binary deployments
//   - StreamInitializer: idempotent create-or-update of the stream
//   - Publisher: Watermill NATS publisher behind a gobreaker circuit breaker
//   - Subscriber: durable JetStream queue subscriber
//   - Router: Watermill router with Recoverer, Retry, Throttle and poison queue
//   - IngestHandler: consumes candidate posts
//
// # Acknowledgement Semantics
//
// Handlers return nil to ack. Malformed payloads and duplicates are acked.
// A *RetryableError is retried in-process by the Retry middleware and then
// nacked, so JetStream redelivers up to MaxDeliver. A *PermanentError skips
// retries: it is published to the poison queue when one is configured and
// acked either way.
//
// # Deduplication
//
// Candidate messages carry a deterministic Nats-Msg-Id, so republishing the
// same item within the stream's duplicate window is dropped by JetStream.
// Durable deduplication is the (blog_id, guid) unique key in Postgres.
package eventprocessor
