// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/blogflock/internal/database"
	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/models"
	"github.com/tomtom215/blogflock/internal/registry"
	"github.com/tomtom215/blogflock/internal/validation"
)

// RegisterBlogRequest is the body of POST /api/v1/blogs. URL may be a feed
// URL, a site URL or a bare domain.
type RegisterBlogRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func decodeJSON(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		rw.BadRequest("Request body too large or unreadable")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		rw.BadRequest("Invalid JSON body")
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// RegisterBlog resolves the submitted URL to a feed and returns the blog,
// creating it on first sight.
func (h *Handler) RegisterBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterBlogRequest
	if !decodeJSON(rw, w, r, &req) {
		return
	}

	blog, err := h.registry.GetOrCreate(r.Context(), req.URL)
	if errors.Is(err, registry.ErrNotAFeed) {
		logging.Ctx(r.Context()).Debug().Err(err).Str("url", sanitizeLogValue(req.URL)).Msg("Rejected non-feed URL")
		rw.NotAFeed("URL does not point to a readable feed")
		return
	}
	if err != nil {
		rw.InternalError("Failed to register blog", err)
		return
	}

	rw.Created(h.blogView(blog))
}

// ListBlogs returns every registered blog; skip_orphans=true keeps only
// blogs that belong to at least one list.
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	skipOrphans, err := parseBool("skip_orphans", r.URL.Query().Get("skip_orphans"))
	if err != nil {
		writeRequestError(rw, err)
		return
	}

	blogs, err := h.store.ListBlogs(r.Context(), skipOrphans)
	if err != nil {
		rw.InternalError("Failed to list blogs", err)
		return
	}

	views := make([]models.BlogView, 0, len(blogs))
	for i := range blogs {
		views = append(views, h.blogView(&blogs[i]))
	}
	rw.Success(views)
}

// GetBlog returns one blog by hash id.
func (h *Handler) GetBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := h.pathID(r)
	if err != nil {
		writeRequestError(rw, err)
		return
	}

	blog, err := h.store.GetBlog(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		rw.NotFound("Blog not found")
		return
	}
	if err != nil {
		rw.InternalError("Failed to load blog", err)
		return
	}
	rw.Success(h.blogView(blog))
}

// RefreshBlog enqueues a fetch request for the blog.
func (h *Handler) RefreshBlog(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := h.pathID(r)
	if err != nil {
		writeRequestError(rw, err)
		return
	}

	blog, err := h.registry.Refresh(r.Context(), id)
	if errors.Is(err, registry.ErrBlogNotFound) {
		rw.NotFound("Blog not found")
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("blog_id", id).Msg("Failed to enqueue refresh")
		rw.ServiceUnavailable("Could not enqueue refresh")
		return
	}

	rw.Accepted(map[string]any{"queued": true, "blog": h.blogView(blog)})
}

// blogView derives the public view, encoding the hash id when the row
// does not carry one yet.
func (h *Handler) blogView(blog *models.Blog) models.BlogView {
	view := models.DeriveBlogView(blog, nil)
	if view.HashID == "" {
		if hashID, err := h.ids.Encode(blog.ID); err == nil {
			view.HashID = hashID
		}
	}
	return view
}
