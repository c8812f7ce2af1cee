// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newSiteServer(t *testing.T, routes map[string]string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if looksLikeFeed([]byte(body)) {
			w.Header().Set("Content-Type", "application/rss+xml")
		} else {
			w.Header().Set("Content-Type", "text/html")
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestResolve_DirectFeed(t *testing.T) {
	t.Parallel()
	srv, _ := newSiteServer(t, map[string]string{"/feed.xml": "\xef\xbb\xbf\n" + rssFeed})

	got, err := NewResolver(testFeedConfig()).Resolve(context.Background(), srv.URL+"/feed.xml")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != srv.URL+"/feed.xml" {
		t.Errorf("Resolve() = %q, want the input URL", got)
	}
}

func TestResolve_Autodiscovery(t *testing.T) {
	t.Parallel()
	srv, _ := newSiteServer(t, map[string]string{
		"/":         `<html><head><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head></html>`,
		"/feed.xml": rssFeed,
	})

	got, err := NewResolver(testFeedConfig()).Resolve(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != srv.URL+"/feed.xml" {
		t.Errorf("Resolve() = %q, want %q", got, srv.URL+"/feed.xml")
	}
}

func TestResolve_FollowsRedirectBase(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new/home", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new/home", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<link rel="alternate" type="application/atom+xml" href="atom.xml">`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	got, err := NewResolver(testFeedConfig()).Resolve(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != srv.URL+"/new/atom.xml" {
		t.Errorf("Resolve() = %q, want href resolved against the final URL", got)
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()
	srv, _ := newSiteServer(t, map[string]string{"/": `<html><body>no feeds here</body></html>`})

	r := NewResolver(testFeedConfig())
	for _, path := range []string{"/", "/missing"} {
		_, err := r.Resolve(context.Background(), srv.URL+path)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%s) error = %v, want ErrNotFound", path, err)
		}
	}
}

func TestResolve_InvalidURL(t *testing.T) {
	t.Parallel()
	r := NewResolver(testFeedConfig())

	for _, candidate := range []string{"", "not a url", "/relative/path", "ftp://example.com/feed", "https://", "http://%zz"} {
		if _, err := r.Resolve(context.Background(), candidate); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidURL", candidate, err)
		}
	}
}

func TestResolve_CachesSuccess(t *testing.T) {
	t.Parallel()
	srv, hits := newSiteServer(t, map[string]string{"/feed.xml": rssFeed})

	r := NewResolver(testFeedConfig())
	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), srv.URL+"/feed.xml"); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
}

func TestResolve_CacheDisabled(t *testing.T) {
	t.Parallel()
	srv, hits := newSiteServer(t, map[string]string{"/feed.xml": rssFeed})

	cfg := testFeedConfig()
	cfg.CacheTTL = 0
	r := NewResolver(cfg)
	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), srv.URL+"/feed.xml"); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}
}

func TestResolve_DiscoveryTimeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	cfg := testFeedConfig()
	cfg.RequestTimeout = 100 * time.Millisecond
	cfg.DiscoveryTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err := NewResolver(cfg).Resolve(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, ErrTimeout) {
		t.Fatalf("Resolve() error = %v, want ErrNotFound wrapping ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Resolve() took %v, want bounded by the timeouts", elapsed)
	}
}

func TestResolve_RejectsPrivateAddress(t *testing.T) {
	t.Parallel()
	srv, hits := newSiteServer(t, map[string]string{"/feed.xml": rssFeed})

	cfg := testFeedConfig()
	cfg.AllowPrivateNetworks = false

	_, err := NewResolver(cfg).Resolve(context.Background(), srv.URL+"/feed.xml")
	if !errors.Is(err, ErrPrivateAddress) {
		t.Fatalf("Resolve() error = %v, want ErrPrivateAddress", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() error = %v, want it to wrap ErrNotFound", err)
	}
	if hits.Load() != 0 {
		t.Errorf("guarded resolver reached the server %d times", hits.Load())
	}
}

func TestResolve_BodyTooLarge(t *testing.T) {
	t.Parallel()
	srv, _ := newSiteServer(t, map[string]string{"/big": "<rss>" + strings.Repeat("x", 4096) + "</rss>"})

	cfg := testFeedConfig()
	cfg.MaxBodyBytes = 1024

	_, err := NewResolver(cfg).Resolve(context.Background(), srv.URL+"/big")
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("Resolve() error = %v, want ErrBodyTooLarge", err)
	}
}

func TestClient_SendsUserAgentAndLimitsRedirects(t *testing.T) {
	t.Parallel()
	var agent atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		agent.Store(r.UserAgent())
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newClient(testFeedConfig())
	_, err := c.get(context.Background(), srv.URL+"/loop", "")
	if err == nil || !strings.Contains(err.Error(), "stopped after 5 redirects") {
		t.Errorf("get() error = %v, want redirect limit", err)
	}
	if got, _ := agent.Load().(string); got != "blogflock-test" {
		t.Errorf("User-Agent = %q, want blogflock-test", got)
	}
}
