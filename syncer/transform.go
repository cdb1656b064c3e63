// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"log/slog"

	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/messaging"
)

// Result is the output of one reconciliation pass.
type Result struct {
	// Rooms is built from every room in the response's joined section.
	// On an initial sync this set is authoritative and complete; the
	// consumer replaces its room state wholesale. On an incremental
	// sync it only means "touched" and Updates carries the deltas.
	Rooms []Room

	// NextBatch is the new sync token, copied through unconditionally.
	NextBatch string

	// Updates is nil exactly when this was an initial sync. An empty
	// incremental batch produces a non-nil Updates with empty
	// contents.
	Updates *Updates
}

// transformResponse converts a raw sync response into a Result.
// hasSince distinguishes incremental syncs (deltas extracted) from the
// initial sync (rooms authoritative, no deltas).
func transformResponse(response *messaging.SyncResponse, hasSince bool, userID ref.UserID, logger *slog.Logger) *Result {
	result := &Result{NextBatch: response.NextBatch}

	for roomID, joined := range response.Rooms.Join {
		result.Rooms = append(result.Rooms, buildRoom(roomID, joined, logger))
	}

	if hasSince {
		result.Updates = extractUpdates(response.Rooms.Join, userID, logger)
	}
	return result
}
