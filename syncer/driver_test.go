// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hearth-im/hearth/lib/clock"
	"github.com/hearth-im/hearth/lib/testutil"
	"github.com/hearth-im/hearth/messaging"
)

// scriptedClient returns canned responses or errors in sequence and
// records the options of each call.
type scriptedClient struct {
	responses []*messaging.SyncResponse
	errs      []error
	calls     []messaging.SyncOptions
}

func (c *scriptedClient) Sync(ctx context.Context, opts messaging.SyncOptions) (*messaging.SyncResponse, error) {
	index := len(c.calls)
	c.calls = append(c.calls, opts)
	if err := c.errs[index]; err != nil {
		return nil, err
	}
	return c.responses[index], nil
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	rateLimited := &messaging.MatrixError{Code: messaging.ErrCodeLimitExceeded, StatusCode: 429}
	network := errors.New("connection refused")

	tests := []struct {
		name    string
		err     error
		attempt uint32
		want    time.Duration
	}{
		{"rate limit attempt 0", rateLimited, 0, 10 * time.Second},
		{"rate limit attempt 1", rateLimited, 1, 20 * time.Second},
		{"rate limit attempt 2", rateLimited, 2, 40 * time.Second},
		{"rate limit attempt 5", rateLimited, 5, 320 * time.Second},
		{"network attempt 0", network, 0, 10 * time.Second},
		{"network attempt 7", network, 7, 10 * time.Second},
		{"forbidden attempt 3", &messaging.MatrixError{Code: messaging.ErrCodeForbidden, StatusCode: 403}, 3, 10 * time.Second},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			if got := backoffDelay(test.err, test.attempt); got != test.want {
				t.Errorf("backoffDelay(attempt=%d) = %v, want %v", test.attempt, got, test.want)
			}
		})
	}
}

func TestBackoffDelay_LargeAttemptDoesNotOverflow(t *testing.T) {
	t.Parallel()

	rateLimited := &messaging.MatrixError{Code: messaging.ErrCodeLimitExceeded, StatusCode: 429}
	delay := backoffDelay(rateLimited, 64)
	if delay <= 0 {
		t.Errorf("delay = %v, overflowed", delay)
	}
}

func TestDriver_Sync_Success(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		responses: []*messaging.SyncResponse{{NextBatch: "s2"}},
		errs:      []error{nil},
	}
	driver := NewDriver(DriverConfig{
		Session: client,
		UserID:  testSelf,
		Clock:   clock.Fake(time.Unix(0, 0)),
	})

	result, err := driver.Sync(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.NextBatch != "s2" {
		t.Errorf("next batch = %q", result.NextBatch)
	}
	if result.Updates == nil {
		t.Error("incremental sync must carry updates")
	}

	if len(client.calls) != 1 {
		t.Fatalf("calls = %d, want exactly one round trip", len(client.calls))
	}
	opts := client.calls[0]
	if opts.Since != "s1" || opts.Filter != "" || !opts.SetTimeout {
		t.Errorf("incremental options = %+v", opts)
	}
}

func TestDriver_Sync_InitialUsesFilter(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		responses: []*messaging.SyncResponse{{NextBatch: "s1"}},
		errs:      []error{nil},
	}
	driver := NewDriver(DriverConfig{
		Session: client,
		UserID:  testSelf,
		Clock:   clock.Fake(time.Unix(0, 0)),
	})

	result, err := driver.Sync(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Updates != nil {
		t.Error("initial sync must not carry updates")
	}

	opts := client.calls[0]
	if opts.Since != "" || opts.Filter == "" || opts.SetTimeout {
		t.Errorf("initial options = %+v", opts)
	}
}

func TestDriver_Sync_FailureSleepsBackoff(t *testing.T) {
	t.Parallel()

	transportErr := errors.New(`GET "https://hs/sync?access_token=syt_secret": connection reset`)
	client := &scriptedClient{
		responses: []*messaging.SyncResponse{nil},
		errs:      []error{transportErr},
	}
	fakeClock := clock.Fake(time.Unix(0, 0))
	logger, handler := newRecordingLogger()
	driver := NewDriver(DriverConfig{
		Session: client,
		UserID:  testSelf,
		Clock:   fakeClock,
		Logger:  logger,
	})

	done := make(chan error, 1)
	go func() {
		_, err := driver.Sync(context.Background(), "s1", 3)
		done <- err
	}()

	// The driver must be parked on the backoff timer until the clock
	// advances the flat 10 seconds.
	fakeClock.WaitForTimers(1)
	fakeClock.Advance(10 * time.Second)

	err := testutil.RequireReceive(t, done, 5*time.Second, "driver to return after backoff")
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("error = %T, want *SyncError", err)
	}
	if syncErr.Attempt != 3 {
		t.Errorf("attempt = %d, want 3 (not incremented by driver)", syncErr.Attempt)
	}
	if !errors.Is(err, transportErr) {
		t.Error("SyncError must wrap the transport error")
	}

	// The logged error text must not contain the raw token.
	for _, record := range handler.records {
		record.Attrs(func(attr slog.Attr) bool {
			if text, ok := attr.Value.Any().(string); ok && strings.Contains(text, "syt_secret") {
				t.Errorf("raw access token leaked into log: %q", text)
			}
			return true
		})
	}
}

func TestDriver_Sync_CancelAbortsBackoff(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{
		responses: []*messaging.SyncResponse{nil},
		errs:      []error{errors.New("boom")},
	}
	fakeClock := clock.Fake(time.Unix(0, 0))
	driver := NewDriver(DriverConfig{
		Session: client,
		UserID:  testSelf,
		Clock:   fakeClock,
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := driver.Sync(ctx, "s1", 0)
		done <- err
	}()

	fakeClock.WaitForTimers(1)
	cancel()

	err := testutil.RequireReceive(t, done, 5*time.Second, "driver to return on cancellation")
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("error = %T, want *SyncError", err)
	}
}
