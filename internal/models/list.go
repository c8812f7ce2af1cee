// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package models

import "time"

// List is a user-curated collection of blogs. HashID addresses the list's
// live-update channel.
type List struct {
	ID             int64     `json:"id"`
	HashID         string    `json:"hash_id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IsPrivate      bool      `json:"is_private"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}

// ListBlog is a blog's membership in a list. Custom* values override the
// blog's own metadata when shown in that list; empty means no override.
type ListBlog struct {
	ID                int64     `json:"id"`
	ListID            int64     `json:"list_id"`
	BlogID            int64     `json:"blog_id"`
	CustomTitle       string    `json:"custom_title"`
	CustomDescription string    `json:"custom_description"`
	CustomImageURL    string    `json:"custom_image_url"`
	CustomAuthor      string    `json:"custom_author"`
	CreatedAt         time.Time `json:"created_at"`
}
