// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package database

import (
	"database/sql"
	"time"

	"github.com/tomtom215/blogflock/internal/models"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Column lists paired with the scan functions below. Nullable text columns
// are coalesced so models can use plain strings.
const (
	blogColumns = `b.id, COALESCE(b.hash_id, ''), b.feed_url, COALESCE(b.site_url, ''),
		COALESCE(b.auto_title, ''), COALESCE(b.auto_description, ''),
		COALESCE(b.auto_image_url, ''), COALESCE(b.auto_author, ''),
		b.last_fetched_at, b.last_published_at, b.posts_last_month,
		b.created_at, b.last_modified_at`

	postColumns = `p.id, p.blog_id, p.guid, COALESCE(p.title, ''), COALESCE(p.content, ''),
		COALESCE(p.url, ''), p.published_at, p.created_at`

	listColumns = `l.id, COALESCE(l.hash_id, ''), COALESCE(l.user_id, 0), l.name,
		COALESCE(l.description, ''), l.is_private, l.created_at, l.last_modified_at`

	listBlogColumns = `lb.id, lb.list_id, lb.blog_id, COALESCE(lb.custom_title, ''),
		COALESCE(lb.custom_description, ''), COALESCE(lb.custom_image_url, ''),
		COALESCE(lb.custom_author, ''), lb.created_at`
)

func blogDest(b *models.Blog, lastFetched, lastPublished *sql.NullTime) []any {
	return []any{
		&b.ID, &b.HashID, &b.FeedURL, &b.SiteURL,
		&b.AutoTitle, &b.AutoDescription, &b.AutoImageURL, &b.AutoAuthor,
		lastFetched, lastPublished, &b.PostsLastMonth,
		&b.CreatedAt, &b.LastModifiedAt,
	}
}

func finishBlog(b *models.Blog, lastFetched, lastPublished sql.NullTime) {
	b.LastFetchedAt = timePtr(lastFetched)
	b.LastPublishedAt = timePtr(lastPublished)
}

func postDest(p *models.Post) []any {
	return []any{&p.ID, &p.BlogID, &p.GUID, &p.Title, &p.Content, &p.URL, &p.PublishedAt, &p.CreatedAt}
}

func listDest(l *models.List) []any {
	return []any{&l.ID, &l.HashID, &l.UserID, &l.Name, &l.Description, &l.IsPrivate, &l.CreatedAt, &l.LastModifiedAt}
}

func listBlogDest(lb *models.ListBlog) []any {
	return []any{
		&lb.ID, &lb.ListID, &lb.BlogID, &lb.CustomTitle,
		&lb.CustomDescription, &lb.CustomImageURL, &lb.CustomAuthor, &lb.CreatedAt,
	}
}

// scanBlog maps a row selected with blogColumns.
func scanBlog(s scanner) (*models.Blog, error) {
	var b models.Blog
	var lastFetched, lastPublished sql.NullTime
	if err := s.Scan(blogDest(&b, &lastFetched, &lastPublished)...); err != nil {
		return nil, err
	}
	finishBlog(&b, lastFetched, lastPublished)
	return &b, nil
}

// scanPost maps a row selected with postColumns.
func scanPost(s scanner) (*models.Post, error) {
	var p models.Post
	if err := s.Scan(postDest(&p)...); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanList maps a row selected with listColumns.
func scanList(s scanner) (*models.List, error) {
	var l models.List
	if err := s.Scan(listDest(&l)...); err != nil {
		return nil, err
	}
	return &l, nil
}

// scanListPostRow maps a row selected with
// postColumns, blogColumns, listBlogColumns, listColumns, bookmarked.
func scanListPostRow(s scanner) (models.PostRow, error) {
	var row models.PostRow
	var membership models.ListBlog
	var list models.List
	var lastFetched, lastPublished sql.NullTime

	dest := postDest(&row.Post)
	dest = append(dest, blogDest(&row.Blog, &lastFetched, &lastPublished)...)
	dest = append(dest, listBlogDest(&membership)...)
	dest = append(dest, listDest(&list)...)
	dest = append(dest, &row.Bookmarked)

	if err := s.Scan(dest...); err != nil {
		return models.PostRow{}, err
	}
	finishBlog(&row.Blog, lastFetched, lastPublished)
	row.Membership = &membership
	row.List = &list
	return row, nil
}

// scanBookmarkPostRow maps a row selected with postColumns, blogColumns, bookmarked.
func scanBookmarkPostRow(s scanner) (models.PostRow, error) {
	var row models.PostRow
	var lastFetched, lastPublished sql.NullTime

	dest := postDest(&row.Post)
	dest = append(dest, blogDest(&row.Blog, &lastFetched, &lastPublished)...)
	dest = append(dest, &row.Bookmarked)

	if err := s.Scan(dest...); err != nil {
		return models.PostRow{}, err
	}
	finishBlog(&row.Blog, lastFetched, lastPublished)
	return row, nil
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
