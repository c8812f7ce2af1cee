// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/blogflock/internal/database"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// errUnknownID marks a public identifier that did not decode.
var errUnknownID = errors.New("unknown identifier")

// paramError is a query parameter that failed to parse.
type paramError struct {
	name  string
	value string
	cause string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.name, e.value, e.cause)
}

// writeRequestError maps parse failures onto 400 or 404.
func writeRequestError(rw *ResponseWriter, err error) {
	if errors.Is(err, errUnknownID) {
		rw.NotFound("Not found")
		return
	}
	rw.BadRequest(err.Error())
}

// decodeID turns a hash id into a numeric id.
func (h *Handler) decodeID(hashID string) (int64, error) {
	id, err := h.ids.Decode(hashID)
	if err != nil {
		return 0, errUnknownID
	}
	return id, nil
}

// pathID decodes the {hashId} route parameter.
func (h *Handler) pathID(r *http.Request) (int64, error) {
	return h.decodeID(chi.URLParam(r, "hashId"))
}

// parsePostQuery reads limit, offset, max_posts_per_month and viewer. An
// omitted limit uses the configured default; a limit above the maximum is
// clamped to it.
func (h *Handler) parsePostQuery(r *http.Request) (database.PostQuery, error) {
	values := r.URL.Query()
	q := database.PostQuery{Limit: h.config.DefaultPageSize}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, &paramError{"limit", raw, "must be a positive integer"}
		}
		q.Limit = min(n, h.config.MaxPageSize)
	}

	if raw := values.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, &paramError{"offset", raw, "must be a non-negative integer"}
		}
		q.Offset = n
	}

	if raw := values.Get("max_posts_per_month"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, &paramError{"max_posts_per_month", raw, "must be a non-negative integer"}
		}
		q.MaxPostsPerMonth = &n
	}

	if raw := values.Get("viewer"); raw != "" {
		id, err := h.decodeID(raw)
		if err != nil {
			return q, err
		}
		q.ViewerID = &id
	}

	return q, nil
}

// parseListIDs decodes the comma-separated lists parameter. Empty entries
// are ignored and repeated ids collapse.
func (h *Handler) parseListIDs(raw string) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := h.decodeID(part)
		if err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseBool accepts the strconv.ParseBool forms; empty is false.
func parseBool(name, raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name, raw, "must be a boolean"}
	}
	return b, nil
}
