// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/blogflock/internal/database"
	"github.com/tomtom215/blogflock/internal/eventprocessor"
	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/models"
)

// IngestPost accepts a candidate post and publishes it to the post topic.
// Storage happens asynchronously in the ingest consumer.
func (h *Handler) IngestPost(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var c eventprocessor.CandidatePost
	if !decodeJSON(rw, w, r, &c) {
		return
	}

	if err := h.publisher.PublishCandidate(r.Context(), &c); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("blog_id", int64(c.BlogID)).Msg("Failed to publish candidate post")
		rw.ServiceUnavailable("Could not enqueue post")
		return
	}

	rw.Accepted(map[string]any{"queued": true, "message_id": c.MessageID()})
}

// ListPosts serves GET /api/v1/lists/{hashId}/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	listID, err := h.pathID(r)
	if err != nil {
		writeRequestError(rw, err)
		return
	}
	q, err := h.parsePostQuery(r)
	if err != nil {
		writeRequestError(rw, err)
		return
	}

	rows, hasMore, err := h.store.PostsForLists(r.Context(), []int64{listID}, q)
	h.writePosts(rw, q, rows, hasMore, err)
}

// MultiListPosts serves GET /api/v1/posts?lists=a,b.
func (h *Handler) MultiListPosts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	listIDs, err := h.parseListIDs(r.URL.Query().Get("lists"))
	if err != nil {
		writeRequestError(rw, err)
		return
	}
	q, err := h.parsePostQuery(r)
	if err != nil {
		writeRequestError(rw, err)
		return
	}

	rows, hasMore, err := h.store.PostsForLists(r.Context(), listIDs, q)
	h.writePosts(rw, q, rows, hasMore, err)
}

// UserFeed serves posts from every list the user follows.
func (h *Handler) UserFeed(w http.ResponseWriter, r *http.Request) {
	h.userPosts(w, r, h.store.PostsForFollowedLists)
}

// UserBookmarks serves the user's bookmarked posts.
func (h *Handler) UserBookmarks(w http.ResponseWriter, r *http.Request) {
	h.userPosts(w, r, h.store.PostsForBookmarks)
}

type userPostsFunc func(ctx context.Context, userID int64, q database.PostQuery) ([]models.PostRow, bool, error)

// userPosts handles the routes keyed by a user hash id. Unknown users get an
// empty page.
func (h *Handler) userPosts(w http.ResponseWriter, r *http.Request, query userPostsFunc) {
	rw := NewResponseWriter(w, r)

	userID, err := h.pathID(r)
	if err != nil {
		writeRequestError(rw, err)
		return
	}
	q, err := h.parsePostQuery(r)
	if err != nil {
		writeRequestError(rw, err)
		return
	}

	rows, hasMore, err := query(r.Context(), userID, q)
	h.writePosts(rw, q, rows, hasMore, err)
}

func (h *Handler) writePosts(rw *ResponseWriter, q database.PostQuery, rows []models.PostRow, hasMore bool, err error) {
	if err != nil {
		rw.InternalError("Failed to load posts", err)
		return
	}
	views := h.postViews(rows)
	rw.SuccessWithPagination(views, &PaginationMeta{
		Count:   len(views),
		Offset:  q.Offset,
		Limit:   q.Limit,
		HasMore: hasMore,
	})
}

// postViews derives views and fills hash ids from the codec.
func (h *Handler) postViews(rows []models.PostRow) []models.PostView {
	views := make([]models.PostView, 0, len(rows))
	for i := range rows {
		view := models.DerivePostView(&rows[i])
		if hashID, err := h.ids.Encode(rows[i].Post.ID); err == nil {
			view.HashID = hashID
		}
		if view.Blog.HashID == "" {
			if hashID, err := h.ids.Encode(rows[i].Blog.ID); err == nil {
				view.Blog.HashID = hashID
			}
		}
		views = append(views, view)
	}
	return views
}
