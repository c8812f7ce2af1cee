// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/blogflock/internal/metrics"
)

// readyTimeout bounds the database ping in HealthReady.
const readyTimeout = 2 * time.Second

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	metrics.UpdateUptime(h.startTime)
	NewResponseWriter(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 only when the database answers a ping and the
// broker connection is up.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	ready := true

	if err := h.store.Ping(ctx); err != nil {
		checks["database"] = "unavailable"
		ready = false
	}
	if h.broker != nil {
		checks["nats"] = "ok"
		if !h.broker.IsConnected() {
			checks["nats"] = "disconnected"
			ready = false
		}
	}

	if !ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", checks)
		return
	}
	rw.Success(map[string]any{"ready": true, "checks": checks})
}
