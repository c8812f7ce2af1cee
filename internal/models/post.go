// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package models

import "time"

// Post is one feed item. (BlogID, GUID) is unique.
type Post struct {
	ID          int64     `json:"id"`
	BlogID      int64     `json:"blog_id"`
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewPost is the insert shape produced by ingestion.
type NewPost struct {
	BlogID      int64
	GUID        string
	Title       string
	Content     string
	URL         string
	PublishedAt time.Time
}

// PostRow is a post joined with its blog for the read side. Membership and
// List are set when the post was selected through a list; for bookmark
// queries they are nil.
type PostRow struct {
	Post       Post
	Blog       Blog
	Membership *ListBlog
	List       *List
	Bookmarked bool
}
