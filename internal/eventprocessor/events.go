// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package eventprocessor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/blogflock/internal/validation"
)

// FlexInt64 decodes a JSON number or a string holding a base-10 integer.
// Producers written in other languages send blog ids either way.
type FlexInt64 int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt64) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%q is not an integer", s)
	}
	*n = FlexInt64(v)
	return nil
}

// CandidatePost is one feed item offered for ingestion on the post topic.
// PublishedAt is kept raw; ParsePublishedAt normalises it. URL is any
// string; DecodeCandidate blanks values that are not absolute http(s) URLs.
type CandidatePost struct {
	BlogID      FlexInt64 `json:"blog_id" validate:"required,gt=0"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"published_at"`
	GUID        string    `json:"guid"`
}

// MessageID derives the Nats-Msg-Id for c. Identical items republished
// within the stream's duplicate window share an id and are dropped.
func (c *CandidatePost) MessageID() string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		strconv.FormatInt(int64(c.BlogID), 10),
		c.GUID,
		c.URL,
		c.Title,
	}, "|")))
	return hex.EncodeToString(sum[:])
}

// DecodeCandidate parses and validates a candidate payload.
func DecodeCandidate(payload []byte) (*CandidatePost, error) {
	var c CandidatePost
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("decode candidate post: %w", err)
	}
	c.URL = strings.TrimSpace(c.URL)
	if c.URL != "" && !validation.IsHTTPURL(c.URL) {
		c.URL = ""
	}
	if verr := validation.ValidateStruct(&c); verr != nil {
		return nil, fmt.Errorf("invalid candidate post: %w", verr)
	}
	return &c, nil
}

// EncodeCandidate validates c and marshals it for publishing.
func EncodeCandidate(c *CandidatePost) ([]byte, error) {
	if verr := validation.ValidateStruct(c); verr != nil {
		return nil, fmt.Errorf("invalid candidate post: %w", verr)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal candidate post: %w", err)
	}
	return data, nil
}

// publishedAtLayouts are tried in order. RFC3339Nano also accepts values
// without fractional seconds.
var publishedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
}

// ParsePublishedAt returns the parsed timestamp, or now when raw is empty
// or matches no accepted layout.
func ParsePublishedAt(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return now
}

// EffectiveGUID picks the post's identity within its blog: the guid, else
// the url, else a hash of title and publication time in epoch milliseconds.
// Items with the same title published in the same millisecond collide.
func EffectiveGUID(c *CandidatePost, publishedAt time.Time) string {
	if guid := strings.TrimSpace(c.GUID); guid != "" {
		return guid
	}
	if u := strings.TrimSpace(c.URL); u != "" {
		return u
	}
	sum := sha256.Sum256([]byte(c.Title + strconv.FormatInt(publishedAt.UnixMilli(), 10)))
	return hex.EncodeToString(sum[:])
}

// FetchRequest is the part of a serialized models.Blog the fetch worker
// needs. Other Blog record fields are ignored on decode.
type FetchRequest struct {
	BlogID  FlexInt64 `json:"id" validate:"required,gt=0"`
	FeedURL string    `json:"feed_url" validate:"required,httpurl"`
}

// DecodeFetchRequest parses and validates a fetch request payload.
func DecodeFetchRequest(payload []byte) (*FetchRequest, error) {
	var r FetchRequest
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("decode fetch request: %w", err)
	}
	if verr := validation.ValidateStruct(&r); verr != nil {
		return nil, fmt.Errorf("invalid fetch request: %w", verr)
	}
	return &r, nil
}
