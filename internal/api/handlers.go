// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/blogflock/internal/config"
	"github.com/tomtom215/blogflock/internal/database"
	"github.com/tomtom215/blogflock/internal/eventprocessor"
	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/models"
	ws "github.com/tomtom215/blogflock/internal/websocket"
)

// Store is the read side the handlers query.
type Store interface {
	Ping(ctx context.Context) error
	GetBlog(ctx context.Context, id int64) (*models.Blog, error)
	ListBlogs(ctx context.Context, skipOrphans bool) ([]models.Blog, error)
	GetList(ctx context.Context, id int64) (*models.List, error)
	PostsForLists(ctx context.Context, listIDs []int64, q database.PostQuery) ([]models.PostRow, bool, error)
	PostsForFollowedLists(ctx context.Context, userID int64, q database.PostQuery) ([]models.PostRow, bool, error)
	PostsForBookmarks(ctx context.Context, userID int64, q database.PostQuery) ([]models.PostRow, bool, error)
}

// BlogRegistry registers blogs and requests fetches.
type BlogRegistry interface {
	GetOrCreate(ctx context.Context, input string) (*models.Blog, error)
	Refresh(ctx context.Context, blogID int64) (*models.Blog, error)
}

// IDCodec converts between numeric ids and public hash ids.
type IDCodec interface {
	Encode(id int64) (string, error)
	Decode(s string) (int64, error)
}

// CandidatePublisher enqueues candidate posts for ingestion.
type CandidatePublisher interface {
	PublishCandidate(ctx context.Context, c *eventprocessor.CandidatePost) error
}

// BrokerStatus reports broker connectivity. *nats.Conn satisfies it.
type BrokerStatus interface {
	IsConnected() bool
}

// Dependencies groups what NewHandler needs. Broker may be nil when the
// API runs without a message bus, in which case readiness skips it.
type Dependencies struct {
	Store      Store
	Registry   BlogRegistry
	IDs        IDCodec
	Publisher  CandidatePublisher
	WSRegistry *ws.Registry
	Broker     BrokerStatus
}

// Handler implements the HTTP endpoints.
type Handler struct {
	config    *config.APIConfig
	store     Store
	registry  BlogRegistry
	ids       IDCodec
	publisher CandidatePublisher
	wsHub     *ws.Registry
	broker    BrokerStatus
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(cfg *config.APIConfig, deps Dependencies) *Handler {
	return &Handler{
		config:    cfg,
		store:     deps.Store,
		registry:  deps.Registry,
		ids:       deps.IDs,
		publisher: deps.Publisher,
		wsHub:     deps.WSRegistry,
		broker:    deps.Broker,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins. A missing
// Origin is only accepted when the wildcard origin is configured, since
// browsers always send one.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	for _, allowed := range h.config.CORSOrigins {
		if allowed == "*" {
			return true
		}
		if origin != "" && allowed == origin {
			return true
		}
	}

	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue escapes control characters so client-supplied values
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
