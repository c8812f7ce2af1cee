// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

/*
Package api serves the Blogflock HTTP surface.

Routes are mounted on a chi router by Router.Handler:

  - /api/v1/health/live and /api/v1/health/ready for probes
  - /api/v1/blogs for registration, listing, lookup and refresh
  - /api/v1/posts for authenticated candidate ingestion and multi-list reads
  - /api/v1/lists/{hashId}/posts and /api/v1/users/{hashId}/{feed,bookmarks}
  - /lists/{hashId}/ws for the per-list push channel
  - /debug/ws-clients (authenticated) and /metrics

Every JSON response uses the APIResponse envelope built by ResponseWriter.
Public identifiers are hash ids; an identifier that does not decode is
reported as 404, the same as an unknown one.

Pagination parameters limit, offset, max_posts_per_month and viewer are
shared by every post listing; see parsePostQuery.
*/
package api
