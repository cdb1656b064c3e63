// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hearth-im/hearth/lib/clock"
	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/lib/testutil"
	"github.com/hearth-im/hearth/messaging"
)

// stoppingClient returns canned outcomes, then cancels the loop's
// context once the script is exhausted so Run terminates.
type stoppingClient struct {
	script []func() (*messaging.SyncResponse, error)
	cancel context.CancelFunc
	calls  []messaging.SyncOptions
}

func (c *stoppingClient) Sync(ctx context.Context, opts messaging.SyncOptions) (*messaging.SyncResponse, error) {
	index := len(c.calls)
	c.calls = append(c.calls, opts)
	if index >= len(c.script) {
		c.cancel()
		return nil, ctx.Err()
	}
	return c.script[index]()
}

func TestLoop_Run(t *testing.T) {
	t.Parallel()

	room := ref.MustParseRoomID("!loop:example.org")
	transientErr := errors.New("connection reset")

	success := func(token string) func() (*messaging.SyncResponse, error) {
		return func() (*messaging.SyncResponse, error) {
			return &messaging.SyncResponse{
				NextBatch: token,
				Rooms: messaging.RoomsSection{
					Join: map[ref.RoomID]messaging.JoinedRoom{room: {}},
				},
			}, nil
		}
	}
	failure := func() (*messaging.SyncResponse, error) {
		return nil, transientErr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial sync succeeds, two failures, then a recovery.
	client := &stoppingClient{
		script: []func() (*messaging.SyncResponse, error){
			success("s1"), failure, failure, success("s2"),
		},
		cancel: cancel,
	}

	fakeClock := clock.Fake(time.Unix(0, 0))
	logger, _ := newRecordingLogger()
	driver := NewDriver(DriverConfig{
		Session: client,
		UserID:  testSelf,
		Clock:   fakeClock,
		Logger:  logger,
	})

	var results []*Result
	var failures []*SyncError
	loop := NewLoop(LoopConfig{
		Driver:       driver,
		Handler:      func(result *Result) { results = append(results, result) },
		ErrorHandler: func(syncErr *SyncError) { failures = append(failures, syncErr) },
		Logger:       logger,
	})

	done := make(chan string, 1)
	go func() { done <- loop.Run(ctx, "") }()

	// Each failure parks the driver on a flat 10 second backoff.
	fakeClock.WaitForTimers(1)
	fakeClock.Advance(10 * time.Second)
	fakeClock.WaitForTimers(1)
	fakeClock.Advance(10 * time.Second)

	finalToken := testutil.RequireReceive(t, done, 5*time.Second, "loop to stop on cancellation")

	if finalToken != "s2" {
		t.Errorf("final token = %q, want token from last success", finalToken)
	}

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Updates != nil {
		t.Error("first result is the initial sync; updates must be nil")
	}
	if results[1].Updates == nil {
		t.Error("second result is incremental; updates must be non-nil")
	}

	// The attempt counter is owned by the loop: first failure carries
	// 0, second carries 1, and success resets it.
	if len(failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(failures))
	}
	if failures[0].Attempt != 0 || failures[1].Attempt != 1 {
		t.Errorf("attempts = %d, %d; want 0, 1", failures[0].Attempt, failures[1].Attempt)
	}

	// Request shape per call: initial (no since), then token-only.
	if client.calls[0].Since != "" || client.calls[0].Filter == "" {
		t.Errorf("call 0 = %+v, want initial sync", client.calls[0])
	}
	for i := 1; i <= 3 && i < len(client.calls); i++ {
		if client.calls[i].Since != "s1" {
			t.Errorf("call %d since = %q, want s1 (token unchanged across failures)", i, client.calls[i].Since)
		}
	}
}

func TestLoop_Run_ReturnsImmediatelyWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := NewDriver(DriverConfig{
		Session: &scriptedClient{},
		UserID:  testSelf,
		Clock:   clock.Fake(time.Unix(0, 0)),
	})
	loop := NewLoop(LoopConfig{
		Driver:  driver,
		Handler: func(*Result) { t.Error("handler called after cancellation") },
	})

	if token := loop.Run(ctx, "s5"); token != "s5" {
		t.Errorf("token = %q, want untouched s5", token)
	}
}
