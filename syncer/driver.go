// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/hearth-im/hearth/lib/clock"
	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/messaging"
)

// SyncClient is the transport dependency of the driver, satisfied by
// *messaging.Session.
type SyncClient interface {
	Sync(ctx context.Context, opts messaging.SyncOptions) (*messaging.SyncResponse, error)
}

// DriverConfig configures a Driver.
type DriverConfig struct {
	// Session performs the actual /sync requests. Required.
	Session SyncClient

	// UserID is the logged-in account, used to exclude self-typing
	// from the extracted updates. Required.
	UserID ref.UserID

	// LongPoll overrides the incremental long-poll timeout. Zero means
	// DefaultLongPoll.
	LongPoll time.Duration

	// Clock is used for backoff sleeps. Nil means the real clock.
	Clock clock.Clock

	// Logger. Nil means slog.Default().
	Logger *slog.Logger
}

// Driver owns the per-request retry policy of the sync pipeline. Each
// call to Sync issues exactly one round trip; on failure it sleeps the
// computed backoff and returns a *SyncError for the caller to retry.
//
// The driver is stateless with respect to the sync token: it receives
// the token as an input and never stores it, so a failed call can be
// retried with the same token safely.
type Driver struct {
	session  SyncClient
	userID   ref.UserID
	longPoll time.Duration
	clock    clock.Clock
	logger   *slog.Logger
}

// NewDriver creates a Driver.
func NewDriver(config DriverConfig) *Driver {
	longPoll := config.LongPoll
	if longPoll <= 0 {
		longPoll = DefaultLongPoll * time.Millisecond
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		session:  config.Session,
		userID:   config.UserID,
		longPoll: longPoll,
		clock:    clk,
		logger:   logger,
	}
}

// Sync performs one sync round trip. An empty since token means
// initial sync.
//
// On success the raw response is transformed and returned. On failure
// the error is logged (token-redacted), the backoff delay is slept,
// and a *SyncError carrying the given attempt count is returned. The
// attempt counter is not incremented here — the caller owns it and
// bumps it before retrying, so rate-limit backoff grows exponentially
// across consecutive failures.
//
// Cancelling ctx aborts both the in-flight request and the backoff
// sleep.
func (d *Driver) Sync(ctx context.Context, since string, attempt uint32) (*Result, error) {
	isInitial := since == ""

	opts := BuildSyncOptions(isInitial, since)
	if !isInitial {
		opts.Timeout = int(d.longPoll.Milliseconds())
	}

	response, err := d.session.Sync(ctx, opts)
	if err != nil {
		delay := backoffDelay(err, attempt)
		d.logger.Error("sync request failed",
			"attempt", attempt,
			"backoff", delay,
			"error", messaging.RedactAccessToken(err.Error()))

		select {
		case <-d.clock.After(delay):
		case <-ctx.Done():
		}
		return nil, &SyncError{Err: err, Attempt: attempt}
	}

	return transformResponse(response, !isInitial, d.userID, d.logger), nil
}

// backoffDelay computes the sleep before the caller's next attempt:
// 10 * 2^attempt seconds for rate-limit errors, a flat 10 seconds for
// everything else.
func backoffDelay(err error, attempt uint32) time.Duration {
	if !messaging.IsRateLimited(err) {
		return 10 * time.Second
	}
	shift := attempt
	// Keeps the duration within int64.
	if shift > 29 {
		shift = 29
	}
	return 10 * time.Second << shift
}
