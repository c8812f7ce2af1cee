// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/blogflock/internal/models"
)

// FindPost returns the post of blogID with the given guid.
func (db *DB) FindPost(ctx context.Context, blogID int64, guid string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.blog_id = $1 AND p.guid = $2`

	post, err := scanPost(db.conn.QueryRowContext(ctx, query, blogID, guid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}

// InsertPost stores np unless (blog_id, guid) already exists. inserted is
// false for duplicates, including ones created concurrently by another worker.
func (db *DB) InsertPost(ctx context.Context, np models.NewPost) (id int64, inserted bool, err error) {
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO posts (blog_id, guid, title, content, url, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (blog_id, guid) DO NOTHING
		RETURNING id`,
		np.BlogID, np.GUID, np.Title, np.Content, nullString(np.URL), np.PublishedAt,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert post: %w", err)
	}
	return id, true, nil
}
