// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package eventprocessor

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/blogflock/internal/database"
	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/metrics"
	"github.com/tomtom215/blogflock/internal/models"
	"github.com/tomtom215/blogflock/internal/websocket"
)

// PostStore is the persistence surface the ingest handler needs.
type PostStore interface {
	FindPost(ctx context.Context, blogID int64, guid string) (*models.Post, error)
	InsertPost(ctx context.Context, np models.NewPost) (int64, bool, error)
	RefreshBlogStats(ctx context.Context, blogID int64, now time.Time) error
	ListsContaining(ctx context.Context, blogID int64) ([]models.List, error)
}

// Broadcaster notifies viewers of the given lists.
type Broadcaster interface {
	BroadcastNewPosts(lists []models.List) websocket.BroadcastResult
}

// IngestHandler consumes candidate posts from the post topic.
type IngestHandler struct {
	store       PostStore
	broadcaster Broadcaster
	logger      watermill.LoggerAdapter
	now         func() time.Time
}

// NewIngestHandler creates the post-topic handler.
func NewIngestHandler(store PostStore, broadcaster Broadcaster, logger watermill.LoggerAdapter) *IngestHandler {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &IngestHandler{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock replaces the clock used for stats and missing timestamps.
func (h *IngestHandler) SetClock(now func() time.Time) {
	h.now = now
}

// Handle processes one candidate. A nil return acks the message.
func (h *IngestHandler) Handle(msg *message.Message) error {
	ctx := msg.Context()

	candidate, err := DecodeCandidate(msg.Payload)
	if err != nil {
		metrics.IngestMalformed.Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed candidate post")
		return nil
	}

	now := h.now()
	blogID := int64(candidate.BlogID)
	publishedAt := ParsePublishedAt(candidate.PublishedAt, now)
	guid := EffectiveGUID(candidate, publishedAt)

	fields := watermill.LogFields{
		"message_uuid": msg.UUID,
		"blog_id":      blogID,
		"guid":         guid,
	}

	inserted, err := h.persist(ctx, candidate, blogID, guid, publishedAt)
	if err != nil {
		return err
	}

	if err := h.store.RefreshBlogStats(ctx, blogID, now); err != nil {
		metrics.IngestFailures.WithLabelValues("stats").Inc()
		h.logger.Error("Refresh blog stats failed", err, fields)
		// The post is already durable; viewers still hear about it even
		// though the redelivery will land on the duplicate path.
		if inserted {
			h.fanOut(ctx, blogID, fields)
		}
		return NewRetryableError("refresh blog stats", err)
	}

	if !inserted {
		metrics.IngestDuplicates.Inc()
		h.logger.Trace("Duplicate candidate post", fields)
		return nil
	}

	metrics.IngestNewPosts.Inc()
	h.logger.Debug("Ingested new post", fields)
	h.fanOut(ctx, blogID, fields)
	return nil
}

// persist stores the post unless (blog_id, guid) already exists.
func (h *IngestHandler) persist(
	ctx context.Context,
	c *CandidatePost,
	blogID int64,
	guid string,
	publishedAt time.Time,
) (bool, error) {
	_, err := h.store.FindPost(ctx, blogID, guid)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, database.ErrNotFound):
		metrics.IngestFailures.WithLabelValues("store").Inc()
		return false, NewRetryableError("find post", err)
	}

	_, inserted, err := h.store.InsertPost(ctx, models.NewPost{
		BlogID:      blogID,
		GUID:        guid,
		Title:       c.Title,
		Content:     c.Content,
		URL:         c.URL,
		PublishedAt: publishedAt,
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			metrics.IngestFailures.WithLabelValues("unknown_blog").Inc()
			return false, NewPermanentError("unknown blog", err)
		}
		metrics.IngestFailures.WithLabelValues("store").Inc()
		return false, NewRetryableError("insert post", err)
	}
	return inserted, nil
}

func (h *IngestHandler) fanOut(ctx context.Context, blogID int64, fields watermill.LogFields) {
	if h.broadcaster == nil {
		return
	}
	lists, err := h.store.ListsContaining(ctx, blogID)
	if err != nil {
		metrics.IngestFailures.WithLabelValues("fanout").Inc()
		h.logger.Error("Resolve lists for new post failed", err, fields)
		return
	}
	if len(lists) == 0 {
		return
	}
	h.broadcaster.BroadcastNewPosts(lists)
}
