// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

// Package database is the Postgres store for blogs, posts, lists and their
// relations.
//
// Write paths serve ingestion (FindPost, InsertPost, RefreshBlogStats) and
// blog registration (FindBlogByURL, CreateBlog, SetBlogHashID). Read paths
// serve the API: paginated post queries over lists, followed lists and
// bookmarks, plus ListsContaining for real-time fan-out.
//
// Every query shape has its own typed scan function; rows are never mapped
// reflectively.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the postgres driver

	"github.com/tomtom215/blogflock/internal/config"
	"github.com/tomtom215/blogflock/internal/logging"
)

// IDEncoder produces public identifiers for rows stored without one.
type IDEncoder interface {
	Encode(id int64) (string, error)
}

// DB wraps the Postgres connection pool.
type DB struct {
	conn *sql.DB
	url  string
	ids  IDEncoder
}

// New opens the pool, verifies connectivity and, when configured, applies
// migrations. ids may be nil, in which case missing list hash ids stay empty.
func New(ctx context.Context, cfg *config.DatabaseConfig, ids IDEncoder) (*DB, error) {
	conn, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{conn: conn, url: cfg.URL, ids: ids}

	if cfg.MigrateOnStart {
		if _, err := db.Migrate(); err != nil {
			closeQuietly(conn)
			return nil, err
		}
	}

	logging.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Bool("migrated", cfg.MigrateOnStart).
		Msg("Database connected")

	return db, nil
}

// Conn returns the underlying pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}
