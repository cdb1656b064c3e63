// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"errors"
	"log/slog"
)

// Handler consumes one successful sync result.
type Handler func(*Result)

// ErrorHandler observes one failed sync attempt. The loop retries
// regardless; the handler exists for surfacing "sync failed N times"
// to whatever owns the UI or status reporting.
type ErrorHandler func(*SyncError)

// LoopConfig configures a Loop.
type LoopConfig struct {
	// Driver performs the sync round trips. Required.
	Driver *Driver

	// Handler receives each successful Result. Required.
	Handler Handler

	// ErrorHandler receives each failed attempt. Optional.
	ErrorHandler ErrorHandler

	// Logger. Nil means slog.Default().
	Logger *slog.Logger
}

// Loop drives continuous synchronization. A single goroutine calls
// Run; that goroutine is the sole owner of the sync token and the
// attempt counter, so no two sync requests for a session can ever be
// in flight at once. Serialization comes from ownership, not a lock.
type Loop struct {
	driver     *Driver
	handler    Handler
	errHandler ErrorHandler
	logger     *slog.Logger
}

// NewLoop creates a Loop.
func NewLoop(config LoopConfig) *Loop {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		driver:     config.Driver,
		handler:    config.Handler,
		errHandler: config.ErrorHandler,
		logger:     logger,
	}
}

// Run synchronizes until ctx is cancelled, then returns the last
// token so the caller can persist it. An empty since token forces an
// initial sync.
//
// Failures are retried forever: the attempt counter increments after
// each failure and resets to zero on success. The token is replaced
// only after a fully successful cycle (request, transform, handler),
// so a failure never advances the stream position.
//
// Cancellation is cooperative: an in-flight long poll is abandoned via
// its request context and the loop simply stops issuing new requests.
func (l *Loop) Run(ctx context.Context, since string) string {
	var attempt uint32

	for {
		if ctx.Err() != nil {
			return since
		}

		result, err := l.driver.Sync(ctx, since, attempt)
		if err != nil {
			// Shutdown, not a sync failure.
			if ctx.Err() != nil {
				return since
			}
			var syncErr *SyncError
			if errors.As(err, &syncErr) && l.errHandler != nil {
				l.errHandler(syncErr)
			}
			attempt++
			continue
		}

		attempt = 0
		since = result.NextBatch

		if since == "" {
			// A server returning no token would otherwise re-trigger
			// an initial sync forever.
			l.logger.Warn("sync response missing next_batch token")
		}

		l.handler(result)
	}
}
