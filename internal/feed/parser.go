// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tomtom215/blogflock/internal/config"
	"github.com/tomtom215/blogflock/internal/metrics"
	"github.com/tomtom215/blogflock/internal/models"
)

const acceptFeed = "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.5"

// Document is a parsed feed.
type Document struct {
	Metadata models.BlogMetadata
	Items    []Item
}

// Item is one feed entry, normalised across RSS, Atom and JSON Feed.
type Item struct {
	GUID        string
	Title       string
	Content     string
	URL         string
	PublishedAt *time.Time
}

// Parser fetches and parses feeds.
type Parser struct {
	client *client
}

// NewParser builds a parser from the feed configuration.
func NewParser(cfg config.FeedConfig) *Parser {
	return &Parser{client: newClient(cfg)}
}

// Parse fetches feedURL and parses it.
func (p *Parser) Parse(ctx context.Context, feedURL string) (*Document, error) {
	resp, err := p.client.get(ctx, feedURL, acceptFeed)
	if err != nil {
		metrics.FeedParses.WithLabelValues("error").Inc()
		return nil, err
	}
	if !resp.ok() {
		metrics.FeedParses.WithLabelValues("error").Inc()
		return nil, &StatusError{URL: feedURL, Code: resp.Status}
	}

	doc, err := ParseBytes(resp.Body)
	if err != nil {
		metrics.FeedParses.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to parse %s: %w", feedURL, err)
	}
	metrics.FeedParses.WithLabelValues("success").Inc()
	return doc, nil
}

// ParseBytes parses a feed body.
func ParseBytes(data []byte) (*Document, error) {
	f, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Metadata: models.BlogMetadata{
			Title:       strings.TrimSpace(f.Title),
			Description: strings.TrimSpace(f.Description),
			ImageURL:    feedImage(f),
			Author:      feedAuthor(f),
			SiteURL:     siteOrigin(f),
		},
		Items: make([]Item, 0, len(f.Items)),
	}
	for _, it := range f.Items {
		if it == nil {
			continue
		}
		doc.Items = append(doc.Items, normalizeItem(it))
	}
	return doc, nil
}

func normalizeItem(it *gofeed.Item) Item {
	item := Item{
		GUID:    strings.TrimSpace(it.GUID),
		Title:   strings.TrimSpace(it.Title),
		Content: cmp.Or(it.Content, it.Description),
		URL:     strings.TrimSpace(it.Link),
	}
	switch {
	case it.PublishedParsed != nil:
		t := it.PublishedParsed.UTC()
		item.PublishedAt = &t
	case it.UpdatedParsed != nil:
		t := it.UpdatedParsed.UTC()
		item.PublishedAt = &t
	}
	return item
}

func feedImage(f *gofeed.Feed) string {
	if f.Image != nil && f.Image.URL != "" {
		return f.Image.URL
	}
	if f.ITunesExt != nil {
		return f.ITunesExt.Image
	}
	return ""
}

func feedAuthor(f *gofeed.Feed) string {
	for _, a := range f.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	if f.ITunesExt != nil {
		return strings.TrimSpace(f.ITunesExt.Author)
	}
	return ""
}

// siteOrigin returns scheme://host of the channel link, or of the first
// item link when the channel has none.
func siteOrigin(f *gofeed.Feed) string {
	link := f.Link
	if link == "" {
		for _, it := range f.Items {
			if it != nil && it.Link != "" {
				link = it.Link
				break
			}
		}
	}
	return origin(link)
}

func origin(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
