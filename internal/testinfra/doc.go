// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to run a disposable Postgres for the
// database and end-to-end ingestion tests. All files carry the integration
// build tag:
//
//	go test -tags integration ./...
//
// # Postgres Container
//
//	func TestStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    db, err := database.New(ctx, &config.DatabaseConfig{URL: pg.URL, ...}, nil)
//	    // ...
//	}
//
// # CI Considerations
//
// These tests require Docker. Tests are skipped gracefully if Docker is
// unavailable, and the first run downloads the image.
package testinfra
