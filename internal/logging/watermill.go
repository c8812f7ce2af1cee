// Blogflock - Feed Aggregation and Real-Time List Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/blogflock

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter implements watermill.LoggerAdapter on zerolog.
// Watermill's info level is chatty (one line per subscribe/ack), so it is
// mapped to debug unless verbose is set.
type WatermillAdapter struct {
	logger  zerolog.Logger
	verbose bool
}

// NewWatermillAdapter returns an adapter over the global logger tagged
// with component=watermill.
func NewWatermillAdapter(verbose bool) *WatermillAdapter {
	return &WatermillAdapter{
		logger:  WithComponent("watermill"),
		verbose: verbose,
	}
}

// NewWatermillAdapterWithLogger wraps a specific zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewWatermillAdapterWithLogger(logger zerolog.Logger, verbose bool) *WatermillAdapter {
	return &WatermillAdapter{logger: logger, verbose: verbose}
}

// Error logs at error level.
func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

// Info logs at info level (debug unless verbose).
func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	event := a.logger.Debug()
	if a.verbose {
		event = a.logger.Info()
	}
	event.Fields(map[string]interface{}(fields)).Msg(msg)
}

// Debug logs at debug level.
func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Trace logs at trace level.
func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

// With returns an adapter with the given fields attached to every entry.
func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{
		logger:  a.logger.With().Fields(map[string]interface{}(fields)).Logger(),
		verbose: a.verbose,
	}
}
