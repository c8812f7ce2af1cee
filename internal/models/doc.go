// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

/*
Package models defines the data structures shared across Blogflock.

Records are plain data mirroring database rows:

  - Blog: a feed source with auto-derived metadata and fetch statistics
  - Post: one feed item, unique per (blog, guid)
  - List: a user-curated collection of blogs
  - ListBlog: a list membership with optional per-list overrides
  - PostRow: a post joined with its blog and the membership that matched a query

Presentation values are produced by a separate derivation stage
(DerivePostView, DeriveBlogView) that computes excerpts and display
metadata. Nothing in this package performs I/O.
*/
package models
