// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/blogflock/internal/database"
	"github.com/tomtom215/blogflock/internal/logging"
	ws "github.com/tomtom215/blogflock/internal/websocket"
)

// ListWebSocket upgrades to a push channel for one list. The list must
// exist; the connection is keyed by the list's hash id.
func (h *Handler) ListWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	listID, err := h.pathID(r)
	if err != nil {
		writeRequestError(NewResponseWriter(w, r), err)
		return
	}
	list, err := h.store.GetList(r.Context(), listID)
	if errors.Is(err, database.ErrNotFound) {
		NewResponseWriter(w, r).NotFound("List not found")
		return
	}
	if err != nil {
		NewResponseWriter(w, r).InternalError("Failed to load list", err)
		return
	}

	key := list.HashID
	if key == "" {
		key = chi.URLParam(r, "hashId")
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Str("list_id", key).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, key, conn)
	if err := client.Start(); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("list_id", key).Msg("WebSocket registration failed")
		return
	}
	logging.Ctx(r.Context()).Debug().Str("list_id", key).Uint64("client_id", client.ID()).Msg("WebSocket client connected")
}

// WSClients reports live connection counts per list.
func (h *Handler) WSClients(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.wsHub == nil {
		rw.ServiceUnavailable("WebSocket service unavailable")
		return
	}
	rw.Success(map[string]any{
		"total": h.wsHub.Count(),
		"lists": h.wsHub.Snapshot(),
	})
}
