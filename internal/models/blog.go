// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package models

import "time"

// Blog is a registered feed. FeedURL is unique; SiteURL is the origin of the
// feed's site link. The Auto* fields come from the feed itself.
//
// The JSON form is also the fetch-request wire format published to the
// feed queue.
type Blog struct {
	ID              int64      `json:"id"`
	HashID          string     `json:"hash_id"`
	FeedURL         string     `json:"feed_url"`
	SiteURL         string     `json:"site_url"`
	AutoTitle       string     `json:"auto_title"`
	AutoDescription string     `json:"auto_description"`
	AutoImageURL    string     `json:"auto_image_url"`
	AutoAuthor      string     `json:"auto_author"`
	LastFetchedAt   *time.Time `json:"last_fetched_at"`
	LastPublishedAt *time.Time `json:"last_published_at"`
	PostsLastMonth  int        `json:"posts_last_month"`
	CreatedAt       time.Time  `json:"created_at"`
	LastModifiedAt  time.Time  `json:"last_modified_at"`
}

// BlogMetadata is the metadata read from a feed when a blog is first registered.
type BlogMetadata struct {
	Title       string
	Description string
	ImageURL    string
	Author      string
	SiteURL     string
}

// NewBlog is the insert shape for a blog that does not exist yet.
type NewBlog struct {
	FeedURL  string
	Metadata BlogMetadata
}
