// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

// Package feed locates and parses RSS, Atom and JSON feeds.
//
// Resolver turns user input (a feed URL or a site URL) into a feed URL,
// falling back to HTML autodiscovery. Parser fetches a feed and extracts
// channel metadata and items. Both share one outbound HTTP client that
// applies the configured user agent, body cap, redirect limit, request pacing
// and, unless private networks are allowed, a dial-time guard against
// private destinations.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/blogflock/internal/cache"
	"github.com/tomtom215/blogflock/internal/config"
	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/metrics"
)

const acceptAny = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.9, text/html;q=0.8, */*;q=0.5"

// Resolver maps candidate URLs to feed URLs.
type Resolver struct {
	client           *client
	discoveryTimeout time.Duration
	cache            *cache.LRU[string]
}

// NewResolver builds a resolver from the feed configuration.
func NewResolver(cfg config.FeedConfig) *Resolver {
	r := &Resolver{
		client:           newClient(cfg),
		discoveryTimeout: cfg.DiscoveryTimeout,
	}
	if cfg.CacheTTL > 0 {
		r.cache = cache.NewLRU[string](cfg.CacheSize, cfg.CacheTTL)
	}
	return r
}

// Resolve returns the feed URL for candidate. When candidate itself serves a
// feed it is returned unchanged; otherwise the page is searched for an
// advertised feed and the first one wins.
func (r *Resolver) Resolve(ctx context.Context, candidate string) (string, error) {
	start := time.Now()

	pageURL, err := parseCandidate(candidate)
	if err != nil {
		metrics.RecordFeedResolution("invalid", time.Since(start))
		return "", err
	}

	if r.cache != nil {
		if feedURL, ok := r.cache.Get(candidate); ok {
			metrics.RecordFeedResolution("cached", time.Since(start))
			return feedURL, nil
		}
	}

	feedURL, outcome, err := r.resolve(ctx, candidate, pageURL)
	metrics.RecordFeedResolution(outcome, time.Since(start))
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("url", candidate).Msg("Feed resolution failed")
		return "", err
	}

	if r.cache != nil {
		r.cache.Add(candidate, feedURL)
	}
	logging.Ctx(ctx).Debug().Str("url", candidate).Str("feed_url", feedURL).Str("outcome", outcome).Msg("Feed resolved")
	return feedURL, nil
}

func (r *Resolver) resolve(ctx context.Context, candidate string, pageURL *url.URL) (string, string, error) {
	page, fetchErr := r.client.get(ctx, candidate, acceptAny)
	if fetchErr == nil && page.ok() && looksLikeFeed(page.Body) {
		return candidate, "direct", nil
	}
	if fetchErr == nil && !page.ok() {
		fetchErr = &StatusError{URL: candidate, Code: page.Status}
	}

	discoverCtx, cancel := context.WithTimeout(ctx, r.discoveryTimeout)
	defer cancel()

	feedURL, err := r.discover(discoverCtx, candidate, pageURL, page, fetchErr)
	if err != nil {
		if isTimeout(err) || errors.Is(discoverCtx.Err(), context.DeadlineExceeded) {
			return "", "not_found", fmt.Errorf("%w: %w", ErrNotFound, ErrTimeout)
		}
		return "", "not_found", err
	}
	return feedURL, "discovered", nil
}

// discover searches an HTML page for feed links. A page body already fetched
// successfully is reused; otherwise the page is fetched again within ctx.
func (r *Resolver) discover(ctx context.Context, candidate string, pageURL *url.URL, page *response, fetchErr error) (string, error) {
	if fetchErr != nil {
		var err error
		page, err = r.client.get(ctx, candidate, "text/html")
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		if !page.ok() {
			return "", fmt.Errorf("%w: %w", ErrNotFound, &StatusError{URL: candidate, Code: page.Status})
		}
	}

	base := pageURL
	if page.URL != nil {
		base = page.URL
	}
	found := discoverFeeds(page.Body, base)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: no feed advertised at %s", ErrNotFound, candidate)
	}
	return found[0], nil
}

// parseCandidate accepts absolute http and https URLs with a host.
func parseCandidate(candidate string) (*url.URL, error) {
	u, err := url.Parse(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, candidate)
	}
	return u, nil
}
