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
	"time"

	"github.com/lib/pq"

	"github.com/tomtom215/blogflock/internal/models"
)

// PostsLastMonthWindow is the lookback used for the posts_last_month statistic.
const PostsLastMonthWindow = 30 * 24 * time.Hour

// FindBlogByURL returns the first blog whose feed or site URL equals any of
// urls, preferring earlier urls. Empty strings are ignored.
func (db *DB) FindBlogByURL(ctx context.Context, urls ...string) (*models.Blog, error) {
	candidates := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}

	query := `SELECT ` + blogColumns + `
		FROM blogs b
		WHERE b.feed_url = ANY($1) OR b.site_url = ANY($1)
		ORDER BY array_position($1::text[], b.feed_url) NULLS LAST, b.id
		LIMIT 1`

	blog, err := scanBlog(db.conn.QueryRowContext(ctx, query, pq.Array(candidates)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find blog by url: %w", err)
	}
	return blog, nil
}

// GetBlog returns the blog with the given id.
func (db *DB) GetBlog(ctx context.Context, id int64) (*models.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs b WHERE b.id = $1`

	blog, err := scanBlog(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog %d: %w", id, err)
	}
	return blog, nil
}

// ListBlogs returns all blogs ordered by id. With skipOrphans only blogs
// that belong to at least one list are returned.
func (db *DB) ListBlogs(ctx context.Context, skipOrphans bool) ([]models.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs b`
	if skipOrphans {
		query += ` WHERE EXISTS (SELECT 1 FROM list_blogs lb WHERE lb.blog_id = b.id)`
	}
	query += ` ORDER BY b.id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var blogs []models.Blog
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog: %w", err)
		}
		blogs = append(blogs, *blog)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blogs: %w", err)
	}
	return blogs, nil
}

// CreateBlog inserts a blog, or returns the existing row when the feed URL
// is already registered. Concurrent registrations of one feed converge on a
// single row.
func (db *DB) CreateBlog(ctx context.Context, nb models.NewBlog) (*models.Blog, error) {
	query := `INSERT INTO blogs AS b (feed_url, site_url, auto_title, auto_description, auto_image_url, auto_author)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (feed_url) DO UPDATE SET feed_url = EXCLUDED.feed_url
		RETURNING ` + blogColumns

	md := nb.Metadata
	blog, err := scanBlog(db.conn.QueryRowContext(ctx, query,
		nb.FeedURL,
		nullString(md.SiteURL),
		nullString(md.Title),
		nullString(md.Description),
		nullString(md.ImageURL),
		nullString(md.Author),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create blog: %w", err)
	}
	return blog, nil
}

// SetBlogHashID assigns the public identifier once; a blog that already has
// one keeps it.
func (db *DB) SetBlogHashID(ctx context.Context, id int64, hashID string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE blogs SET hash_id = $2, last_modified_at = now() WHERE id = $1 AND hash_id IS NULL`,
		id, hashID)
	if err != nil {
		return fmt.Errorf("failed to set hash id for blog %d: %w", id, err)
	}
	return nil
}

// RefreshBlogStats recomputes the fetch statistics of a blog: last fetch
// time, posts published within PostsLastMonthWindow of now and latest publish time.
func (db *DB) RefreshBlogStats(ctx context.Context, blogID int64, now time.Time) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE blogs SET
			last_fetched_at = $2,
			posts_last_month = (SELECT COUNT(*) FROM posts WHERE blog_id = $1 AND published_at >= $3),
			last_published_at = (SELECT MAX(published_at) FROM posts WHERE blog_id = $1),
			last_modified_at = $2
		WHERE id = $1`,
		blogID, now, now.Add(-PostsLastMonthWindow))
	if err != nil {
		return fmt.Errorf("failed to refresh stats for blog %d: %w", blogID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
