// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once and shared; it caches struct
// metadata and is safe for concurrent use. Error field names come from the
// struct's json tags so messages match the wire format:
//
//	type createBlogRequest struct {
//	    URL string `json:"url" validate:"required,max=2048"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError() // Code "BAD_REQUEST", Message "url is required"
//	}
//
// Custom tags:
//   - httpurl: absolute http or https URL with a host
package validation
