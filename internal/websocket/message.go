// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package websocket

import (
	"time"

	"github.com/goccy/go-json"
)

// Message types for WebSocket communication
const (
	MessageTypeNewPosts = "new_posts"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// NewPostsData is the payload of a new_posts notification.
type NewPostsData struct {
	ListID    string `json:"list_id"`
	Timestamp string `json:"timestamp"`
}

// NewPostsMessage builds the notification sent to viewers of listID.
func NewPostsMessage(listID string, at time.Time) Message {
	return Message{
		Type: MessageTypeNewPosts,
		Data: NewPostsData{
			ListID:    listID,
			Timestamp: at.UTC().Format(time.RFC3339),
		},
	}
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// UnmarshalMessage decodes an inbound frame. Only Type is meaningful for
// client messages.
func UnmarshalMessage(data []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(data, &msg)
	return msg, err
}
