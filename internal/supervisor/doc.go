// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

/*
Package supervisor runs Blogflock's long-lived services under a suture v4
tree so a crashed component is restarted without taking the process down.

Tree layout:

	blogflock (root)
	├── data-layer       connection registry
	├── messaging-layer  NATS router (ingest and fetch handlers)
	└── api-layer        HTTP server

Each layer is its own supervisor, so repeated failures in one layer back off
without restarting the others. Supervisor events are logged through
sutureslog into the zerolog pipeline (see logging.NewSlogLogger).

Services only need Serve(ctx) error and, for readable logs, String().
websocket.Registry and eventprocessor.Router satisfy that directly; the
HTTP server is wrapped by services.HTTPServerService.
*/
package supervisor
