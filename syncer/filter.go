// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"encoding/json"
	"fmt"

	"github.com/hearth-im/hearth/messaging"
)

// PageLimit bounds the per-room timeline page size requested on the
// initial sync.
const PageLimit = 40

// DefaultLongPoll is the server-side hold time for incremental sync
// long polls, in milliseconds.
const DefaultLongPoll = 30000

// BuildSyncOptions constructs the /sync request parameters.
//
// The initial sync (empty since token) sends an inline filter that
// keeps the first payload small: presence and ephemeral events
// excluded entirely, the timeline restricted to messages and stickers
// with call events excluded and a page limit, and state limited to
// m.room.* with lazy-loaded members. No long-poll timeout is set; the
// server returns the initial payload as fast as it can build it.
//
// Incremental syncs send no filter at all — the server reuses the
// filter associated with the token — only the token and the long-poll
// timeout.
func BuildSyncOptions(isInitial bool, since string) messaging.SyncOptions {
	if isInitial {
		return messaging.SyncOptions{Filter: initialFilter}
	}
	return messaging.SyncOptions{
		Since:      since,
		Timeout:    DefaultLongPoll,
		SetTimeout: true,
	}
}

var initialFilter = buildInitialFilter()

func buildInitialFilter() string {
	filter := map[string]any{
		"presence": map[string]any{
			"types": []string{},
		},
		"room": map[string]any{
			"timeline": map[string]any{
				"types":     []string{"m.room.message", "m.sticker"},
				"not_types": []string{"m.call.*"},
				"limit":     PageLimit,
			},
			"ephemeral": map[string]any{
				"types": []string{},
			},
			"state": map[string]any{
				"types":                     []string{"m.room.*"},
				"lazy_load_members":         true,
				"include_redundant_members": false,
			},
		},
	}

	encoded, err := json.Marshal(filter)
	if err != nil {
		// Static input; cannot fail.
		panic(fmt.Sprintf("syncer: encoding initial filter: %v", err))
	}
	return string(encoded)
}
