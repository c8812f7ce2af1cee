// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

// Package fetcher turns fetch requests into candidate posts.
//
// A fetch request names a blog and its feed URL. The worker downloads and
// parses the feed, then publishes one candidate per item to the post topic
// where the ingest handler deduplicates and stores them. There is no
// scheduling here; requests come from blog registration, explicit refreshes
// or external producers.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/blogflock/internal/eventprocessor"
	"github.com/tomtom215/blogflock/internal/feed"
	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/metrics"
	"github.com/tomtom215/blogflock/internal/validation"
)

// FeedParser fetches and parses a feed.
type FeedParser interface {
	Parse(ctx context.Context, feedURL string) (*feed.Document, error)
}

// CandidatePublisher publishes candidate posts.
type CandidatePublisher interface {
	PublishCandidate(ctx context.Context, c *eventprocessor.CandidatePost) error
}

// Worker handles fetch requests from the fetch topic.
type Worker struct {
	parser    FeedParser
	publisher CandidatePublisher
	now       func() time.Time
}

// NewWorker creates a fetch worker.
func NewWorker(parser FeedParser, publisher CandidatePublisher) *Worker {
	return &Worker{parser: parser, publisher: publisher, now: time.Now}
}

// SetClock replaces the time source used to date undated items.
func (w *Worker) SetClock(now func() time.Time) {
	w.now = now
}

// Handle processes one fetch request. A nil return acks the message.
func (w *Worker) Handle(msg *message.Message) error {
	ctx := msg.Context()

	req, err := eventprocessor.DecodeFetchRequest(msg.Payload)
	if err != nil {
		metrics.FetcherRequests.WithLabelValues("malformed").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed fetch request")
		return nil
	}

	blogID := int64(req.BlogID)
	logger := logging.Ctx(ctx).With().Int64("blog_id", blogID).Str("feed_url", req.FeedURL).Logger()

	doc, err := w.parser.Parse(ctx, req.FeedURL)
	if err != nil {
		metrics.FetcherRequests.WithLabelValues("error").Inc()
		if isPermanentFetchError(err) {
			logger.Warn().Err(err).Msg("Feed cannot be fetched, dropping request")
			return eventprocessor.NewPermanentError("fetch feed", err)
		}
		logger.Warn().Err(err).Msg("Feed fetch failed")
		return eventprocessor.NewRetryableError("fetch feed", err)
	}

	fetchedAt := w.now()
	published, skipped := 0, 0
	for i := range doc.Items {
		c, ok := Candidate(blogID, &doc.Items[i], fetchedAt)
		if !ok {
			skipped++
			continue
		}
		// Candidate ids are deterministic, so republishing the earlier
		// items after a partial failure is absorbed by the duplicate window.
		if err := w.publisher.PublishCandidate(ctx, c); err != nil {
			metrics.FetcherRequests.WithLabelValues("error").Inc()
			return eventprocessor.NewRetryableError(fmt.Sprintf("publish candidate %d of %d", i+1, len(doc.Items)), err)
		}
		metrics.FetcherCandidatesPublished.Inc()
		published++
	}

	metrics.FetcherRequests.WithLabelValues("success").Inc()
	logger.Debug().Int("published", published).Int("skipped", skipped).Msg("Feed fetched")
	return nil
}

// Candidate maps a feed item onto a candidate post. Links that are not
// absolute http(s) URLs are dropped. Items left with none of guid, url or
// title have no usable identity and are skipped. Undated items are stamped
// with fetchedAt so every delivery of the message hashes to the same guid.
func Candidate(blogID int64, it *feed.Item, fetchedAt time.Time) (*eventprocessor.CandidatePost, bool) {
	link := it.URL
	if !validation.IsHTTPURL(link) {
		link = ""
	}
	if it.GUID == "" && link == "" && it.Title == "" {
		return nil, false
	}
	c := &eventprocessor.CandidatePost{
		BlogID:  eventprocessor.FlexInt64(blogID),
		Title:   it.Title,
		Content: it.Content,
		URL:     link,
		GUID:    it.GUID,
	}
	publishedAt := fetchedAt
	if it.PublishedAt != nil {
		publishedAt = *it.PublishedAt
	}
	c.PublishedAt = publishedAt.UTC().Format(time.RFC3339)
	return c, true
}

// isPermanentFetchError reports failures a redelivery cannot fix: the URL
// is unusable or points at a forbidden address.
func isPermanentFetchError(err error) bool {
	if errors.Is(err, feed.ErrInvalidURL) || errors.Is(err, feed.ErrPrivateAddress) {
		return true
	}
	var statusErr *feed.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusGone
	}
	return false
}
