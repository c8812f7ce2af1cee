// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

// Package registry onboards blogs: it resolves user input to a feed URL,
// creates the blog row once per feed and asks the fetch pipeline to pull
// its posts.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/blogflock/internal/database"
	"github.com/tomtom215/blogflock/internal/feed"
	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/models"
)

var (
	// ErrNotAFeed is returned when input cannot be resolved to a parseable feed.
	ErrNotAFeed = errors.New("url is not a feed")

	// ErrBlogNotFound is returned by Refresh for an unknown blog.
	ErrBlogNotFound = errors.New("blog not found")
)

// Resolver maps candidate URLs to feed URLs.
type Resolver interface {
	Resolve(ctx context.Context, candidate string) (string, error)
}

// Parser fetches and parses a feed.
type Parser interface {
	Parse(ctx context.Context, feedURL string) (*feed.Document, error)
}

// BlogStore is the persistence the registry needs.
type BlogStore interface {
	FindBlogByURL(ctx context.Context, urls ...string) (*models.Blog, error)
	GetBlog(ctx context.Context, id int64) (*models.Blog, error)
	CreateBlog(ctx context.Context, nb models.NewBlog) (*models.Blog, error)
	SetBlogHashID(ctx context.Context, id int64, hashID string) error
}

// IDEncoder produces public identifiers.
type IDEncoder interface {
	Encode(id int64) (string, error)
}

// FetchPublisher enqueues a fetch request for a blog.
type FetchPublisher interface {
	PublishFetchRequest(ctx context.Context, blog *models.Blog) error
}

// Registry implements blog onboarding.
type Registry struct {
	resolver Resolver
	parser   Parser
	store    BlogStore
	ids      IDEncoder
	fetches  FetchPublisher
}

// New creates a Registry.
func New(resolver Resolver, parser Parser, store BlogStore, ids IDEncoder, fetches FetchPublisher) *Registry {
	return &Registry{
		resolver: resolver,
		parser:   parser,
		store:    store,
		ids:      ids,
		fetches:  fetches,
	}
}

// GetOrCreate returns the blog for input, creating it on first sight. Both
// paths enqueue a fetch request; a failed enqueue is logged and not
// returned.
func (r *Registry) GetOrCreate(ctx context.Context, input string) (*models.Blog, error) {
	feedURL, err := r.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAFeed, err)
	}

	lookup := []string{feedURL}
	if input != feedURL {
		lookup = append(lookup, input)
	}
	blog, err := r.store.FindBlogByURL(ctx, lookup...)
	switch {
	case err == nil:
		if err := r.ensureHashID(ctx, blog); err != nil {
			return nil, err
		}
		logging.Ctx(ctx).Debug().Int64("blog_id", blog.ID).Str("feed_url", blog.FeedURL).Msg("Blog already registered")
		r.requestFetch(ctx, blog)
		return blog, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("failed to look up blog: %w", err)
	}

	doc, err := r.parser.Parse(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAFeed, err)
	}

	blog, err = r.store.CreateBlog(ctx, models.NewBlog{FeedURL: feedURL, Metadata: doc.Metadata})
	if err != nil {
		return nil, err
	}
	if err := r.ensureHashID(ctx, blog); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("blog_id", blog.ID).
		Str("hash_id", blog.HashID).
		Str("feed_url", blog.FeedURL).
		Msg("Blog registered")

	r.requestFetch(ctx, blog)
	return blog, nil
}

// Refresh enqueues a fetch request for an existing blog.
func (r *Registry) Refresh(ctx context.Context, blogID int64) (*models.Blog, error) {
	blog, err := r.store.GetBlog(ctx, blogID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBlogNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.fetches.PublishFetchRequest(ctx, blog); err != nil {
		return nil, fmt.Errorf("failed to enqueue fetch for blog %d: %w", blogID, err)
	}
	return blog, nil
}

// ensureHashID assigns and stores blog's hash id when it has none, as
// when an earlier registration failed between insert and update.
func (r *Registry) ensureHashID(ctx context.Context, blog *models.Blog) error {
	if blog.HashID != "" {
		return nil
	}
	hashID, err := r.ids.Encode(blog.ID)
	if err != nil {
		return fmt.Errorf("failed to encode blog id: %w", err)
	}
	if err := r.store.SetBlogHashID(ctx, blog.ID, hashID); err != nil {
		return err
	}
	blog.HashID = hashID
	return nil
}

func (r *Registry) requestFetch(ctx context.Context, blog *models.Blog) {
	if err := r.fetches.PublishFetchRequest(ctx, blog); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("blog_id", blog.ID).Msg("Failed to enqueue fetch request")
	}
}
