// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package websocket

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/metrics"
	"github.com/tomtom215/blogflock/internal/models"
)

// ErrRegistryClosed is returned by Register after the registry shut down.
var ErrRegistryClosed = errors.New("connection registry closed")

// ShutdownReason identifies why the registry is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Conn is a live viewer connection as seen by the Registry.
type Conn interface {
	// ID is unique per process and orders deliveries.
	ID() uint64
	// Send queues msg without blocking.
	Send(msg Message) error
	Closed() bool
	Close()
}

// BroadcastResult summarizes one Broadcast call.
type BroadcastResult struct {
	Lists     int // lists that had at least one connection
	Delivered int
	Pruned    int
}

// Registry maps list hash ids to the connections viewing them.
type Registry struct {
	mu     sync.Mutex
	lists  map[string]map[Conn]struct{}
	total  int
	closed bool

	now func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		lists: make(map[string]map[Conn]struct{}),
		now:   time.Now,
	}
}

// SetClock overrides the timestamp source for notifications. Used by tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Register adds conn to listID's set, creating the set on first use.
func (r *Registry) Register(listID string, conn Conn) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRegistryClosed
	}
	set, ok := r.lists[listID]
	if !ok {
		set = make(map[Conn]struct{})
		r.lists[listID] = set
	}
	if _, dup := set[conn]; !dup {
		set[conn] = struct{}{}
		r.total++
	}
	total := r.total
	r.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Debug().
		Str("list_id", listID).
		Uint64("conn_id", conn.ID()).
		Int("total_clients", total).
		Msg("websocket client connected")
	return nil
}

// Unregister removes conn from listID's set. Empty sets are dropped.
// Removing an unknown connection is a no-op.
func (r *Registry) Unregister(listID string, conn Conn) {
	r.mu.Lock()
	removed := r.removeLocked(listID, conn)
	total := r.total
	r.mu.Unlock()

	if !removed {
		return
	}
	metrics.WSConnections.Set(float64(total))
	logging.Debug().
		Str("list_id", listID).
		Uint64("conn_id", conn.ID()).
		Int("total_clients", total).
		Msg("websocket client disconnected")
}

func (r *Registry) removeLocked(listID string, conn Conn) bool {
	set, ok := r.lists[listID]
	if !ok {
		return false
	}
	if _, ok := set[conn]; !ok {
		return false
	}
	delete(set, conn)
	r.total--
	if len(set) == 0 {
		delete(r.lists, listID)
	}
	return true
}

// Broadcast notifies every connection viewing one of listIDs. Duplicate ids
// are notified once.
func (r *Registry) Broadcast(listIDs ...string) BroadcastResult {
	var result BroadcastResult
	seen := make(map[string]struct{}, len(listIDs))

	for _, listID := range listIDs {
		if _, dup := seen[listID]; dup {
			continue
		}
		seen[listID] = struct{}{}

		conns, at := r.snapshot(listID)
		if len(conns) == 0 {
			continue
		}
		result.Lists++

		msg := NewPostsMessage(listID, at)
		var dead []Conn
		for _, conn := range conns {
			if conn.Closed() {
				dead = append(dead, conn)
				continue
			}
			if err := conn.Send(msg); err != nil {
				metrics.WSErrors.WithLabelValues(sendErrorType(err)).Inc()
				logging.Debug().Err(err).
					Str("list_id", listID).
					Uint64("conn_id", conn.ID()).
					Msg("dropping websocket client after failed send")
				dead = append(dead, conn)
				continue
			}
			result.Delivered++
		}
		result.Pruned += r.prune(listID, dead)
	}

	metrics.RecordBroadcast(result.Delivered, result.Pruned)
	return result
}

// BroadcastNewPosts notifies viewers of each list by its public hash id.
func (r *Registry) BroadcastNewPosts(lists []models.List) BroadcastResult {
	ids := make([]string, 0, len(lists))
	for i := range lists {
		if lists[i].HashID != "" {
			ids = append(ids, lists[i].HashID)
		}
	}
	return r.Broadcast(ids...)
}

// snapshot copies listID's connections sorted by ID.
func (r *Registry) snapshot(listID string) ([]Conn, time.Time) {
	r.mu.Lock()
	set := r.lists[listID]
	conns := make([]Conn, 0, len(set))
	for conn := range set {
		conns = append(conns, conn)
	}
	now := r.now()
	r.mu.Unlock()

	slices.SortFunc(conns, compareConns)
	return conns, now
}

// prune removes dead connections that are still registered and closes them.
func (r *Registry) prune(listID string, dead []Conn) int {
	if len(dead) == 0 {
		return 0
	}

	r.mu.Lock()
	removed := make([]Conn, 0, len(dead))
	for _, conn := range dead {
		if r.removeLocked(listID, conn) {
			removed = append(removed, conn)
		}
	}
	total := r.total
	r.mu.Unlock()

	for _, conn := range removed {
		conn.Close()
	}
	metrics.WSConnections.Set(float64(total))
	return len(removed)
}

// Snapshot returns the connection count per list.
func (r *Registry) Snapshot() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int, len(r.lists))
	for listID, set := range r.lists {
		out[listID] = len(set)
	}
	return out
}

// Count returns the number of registered connections across all lists.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Serve blocks until ctx is canceled, then closes every connection.
// It implements suture.Service.
func (r *Registry) Serve(ctx context.Context) error {
	<-ctx.Done()

	closed := r.closeAll()
	logging.Info().
		Str("component", "websocket-registry").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", closed).
		Msg("websocket registry stopped")
	return ctx.Err()
}

// String names the service in supervisor logs.
func (r *Registry) String() string {
	return "websocket-registry"
}

// closeAll closes clients in ID order and rejects further registrations.
func (r *Registry) closeAll() int {
	r.mu.Lock()
	r.closed = true
	var conns []Conn
	for _, set := range r.lists {
		for conn := range set {
			conns = append(conns, conn)
		}
	}
	r.lists = make(map[string]map[Conn]struct{})
	r.total = 0
	r.mu.Unlock()

	slices.SortFunc(conns, compareConns)
	for _, conn := range conns {
		conn.Close()
	}
	metrics.WSConnections.Set(0)
	return len(conns)
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

func compareConns(a, b Conn) int {
	switch {
	case a.ID() < b.ID():
		return -1
	case a.ID() > b.ID():
		return 1
	default:
		return 0
	}
}

func sendErrorType(err error) string {
	switch {
	case errors.Is(err, ErrSendBufferFull):
		return "buffer_full"
	case errors.Is(err, ErrClientClosed):
		return "closed"
	default:
		return "send_failed"
	}
}
