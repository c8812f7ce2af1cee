// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

// Package hashid converts internal numeric IDs to short public identifiers
// and back. Every externally visible blog, list, user and post reference
// goes through a Codec; raw database IDs never leave the process.
package hashid

import (
	"errors"
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

// Default codec parameters. Changing either invalidates every issued identifier.
const (
	DefaultSalt      = "Blogflock"
	DefaultMinLength = 5
)

// ErrInvalidIdentifier is returned for identifiers that do not decode to
// exactly one canonical non-negative ID, and for negative IDs on encode.
// Callers treat it as "not found".
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Codec is safe for concurrent use.
type Codec struct {
	h *hashids.HashID
}

// New builds a codec for the given salt and minimum output length.
func New(salt string, minLength int) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create hashid codec: %w", err)
	}
	return &Codec{h: h}, nil
}

// MustDefault returns a codec with the default salt and length.
func MustDefault() *Codec {
	c, err := New(DefaultSalt, DefaultMinLength)
	if err != nil {
		panic(err)
	}
	return c
}

// Encode returns the public identifier for id.
func (c *Codec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", ErrInvalidIdentifier
	}
	s, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	return s, nil
}

// Decode returns the ID behind s. Strings that decode to several values or
// that would not re-encode to s are rejected.
func (c *Codec) Decode(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidIdentifier
	}

	ids, err := c.h.DecodeInt64WithError(s)
	if err != nil || len(ids) != 1 || ids[0] < 0 {
		return 0, ErrInvalidIdentifier
	}

	canonical, err := c.h.EncodeInt64(ids)
	if err != nil || canonical != s {
		return 0, ErrInvalidIdentifier
	}
	return ids[0], nil
}
