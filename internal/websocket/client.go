// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package websocket

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/blogflock/internal/logging"
	"github.com/tomtom215/blogflock/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients only ever send pings.
	maxMessageSize = 512

	sendBufferSize = 256
)

var (
	// ErrSendBufferFull is returned when a client is not draining its queue.
	ErrSendBufferFull = errors.New("websocket send buffer full")
	// ErrClientClosed is returned by Send after Close.
	ErrClientClosed = errors.New("websocket client closed")
)

// clientIDCounter generates unique, monotonically increasing IDs for clients.
var clientIDCounter atomic.Uint64

// Client is one viewer's websocket connection to a single list.
type Client struct {
	id       uint64
	listID   string
	conn     *websocket.Conn
	registry *Registry

	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

// NewClient wraps an upgraded connection for listID. Call Start to register
// it and run its pumps.
func NewClient(registry *Registry, listID string, conn *websocket.Conn) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		listID:   listID,
		conn:     conn,
		registry: registry,
		send:     make(chan Message, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// ID returns the client's unique identifier for deterministic ordering
func (c *Client) ID() uint64 {
	return c.id
}

// ListID returns the hash id of the list this client watches.
func (c *Client) ListID() string {
	return c.listID
}

// Send queues msg for the write pump without blocking.
func (c *Client) Send(msg Message) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	return c.closed.Load()
}

// Close stops the write pump, which sends a close frame and drops the
// connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
	})
}

// Start registers the client and begins reading and writing.
func (c *Client) Start() error {
	if err := c.registry.Register(c.listID, c); err != nil {
		c.Close()
		_ = c.conn.Close()
		return err
	}
	go c.writePump()
	go c.readPump()
	return nil
}

// readPump answers pings until the connection fails, then unregisters.
func (c *Client) readPump() {
	defer func() {
		c.registry.Unregister(c.listID, c)
		c.Close()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		msg, err := UnmarshalMessage(data)
		if err != nil {
			metrics.WSErrors.WithLabelValues("invalid_message").Inc()
			continue
		}
		if msg.Type == MessageTypePing {
			if err := c.Send(Message{Type: MessageTypePong}); err != nil {
				logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("pong not queued")
			}
		}
	}
}

// writePump drains the send queue and keeps the connection alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Debug().Err(err).Uint64("conn_id", c.id).Msg("failed to write websocket message")
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

func (c *Client) write(msg Message) error {
	data, err := MarshalMessage(msg)
	if err != nil {
		return err
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
