// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package feed

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned for input that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid feed url")

	// ErrNotFound is returned when no feed could be located for a URL.
	ErrNotFound = errors.New("feed not found")

	// ErrTimeout marks a resolution that ran out of its discovery budget.
	// It is always wrapped together with ErrNotFound.
	ErrTimeout = errors.New("feed discovery timed out")

	// ErrPrivateAddress is returned when a host resolves to a private,
	// loopback, link-local or unspecified address and private networks are
	// not allowed.
	ErrPrivateAddress = errors.New("destination resolves to a private address")

	// ErrBodyTooLarge is returned when a response exceeds MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body too large")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}
