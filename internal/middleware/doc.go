// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

/*
Package middleware provides HTTP middleware shared by the API router.

Everything here uses the func(http.HandlerFunc) http.HandlerFunc shape; the
api package adapts it to chi with a small wrapper.

Key Components:

  - RequestID: accepts or generates X-Request-ID and seeds the logging
    context with request and correlation ids
  - AccessLog: one zerolog line per request
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern

Typical order, outermost first:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.AccessLog))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

PrometheusMetrics wraps the response writer but forwards Hijack and Flush,
so websocket upgrades work behind it.
*/
package middleware
