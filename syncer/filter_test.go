// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"encoding/json"
	"testing"
)

func TestBuildSyncOptions_Initial(t *testing.T) {
	t.Parallel()

	opts := BuildSyncOptions(true, "")

	if opts.Since != "" {
		t.Errorf("since = %q, want empty on initial sync", opts.Since)
	}
	if opts.SetTimeout {
		t.Error("initial sync should not set a timeout")
	}
	if opts.Filter == "" {
		t.Fatal("initial sync must carry an inline filter")
	}

	var filter struct {
		Presence struct {
			Types []string `json:"types"`
		} `json:"presence"`
		Room struct {
			Timeline struct {
				Types    []string `json:"types"`
				NotTypes []string `json:"not_types"`
				Limit    int      `json:"limit"`
			} `json:"timeline"`
			Ephemeral struct {
				Types []string `json:"types"`
			} `json:"ephemeral"`
			State struct {
				Types                   []string `json:"types"`
				LazyLoadMembers         bool     `json:"lazy_load_members"`
				IncludeRedundantMembers bool     `json:"include_redundant_members"`
			} `json:"state"`
		} `json:"room"`
	}
	if err := json.Unmarshal([]byte(opts.Filter), &filter); err != nil {
		t.Fatalf("filter is not valid JSON: %v", err)
	}

	if filter.Presence.Types == nil || len(filter.Presence.Types) != 0 {
		t.Errorf("presence types = %v, want explicit empty list", filter.Presence.Types)
	}

	timeline := filter.Room.Timeline
	if len(timeline.Types) != 2 || timeline.Types[0] != "m.room.message" || timeline.Types[1] != "m.sticker" {
		t.Errorf("timeline types = %v", timeline.Types)
	}
	if len(timeline.NotTypes) != 1 || timeline.NotTypes[0] != "m.call.*" {
		t.Errorf("timeline not_types = %v", timeline.NotTypes)
	}
	if timeline.Limit != PageLimit {
		t.Errorf("timeline limit = %d, want %d", timeline.Limit, PageLimit)
	}

	if filter.Room.Ephemeral.Types == nil || len(filter.Room.Ephemeral.Types) != 0 {
		t.Errorf("ephemeral types = %v, want explicit empty list", filter.Room.Ephemeral.Types)
	}

	state := filter.Room.State
	if len(state.Types) != 1 || state.Types[0] != "m.room.*" {
		t.Errorf("state types = %v", state.Types)
	}
	if !state.LazyLoadMembers {
		t.Error("lazy_load_members = false, want true")
	}
	if state.IncludeRedundantMembers {
		t.Error("include_redundant_members = true, want false")
	}
}

func TestBuildSyncOptions_Incremental(t *testing.T) {
	t.Parallel()

	opts := BuildSyncOptions(false, "s72594_4483")

	if opts.Filter != "" {
		t.Errorf("incremental sync sent a filter: %q", opts.Filter)
	}
	if opts.Since != "s72594_4483" {
		t.Errorf("since = %q", opts.Since)
	}
	if !opts.SetTimeout || opts.Timeout != DefaultLongPoll {
		t.Errorf("timeout = %d (set=%v), want %d set", opts.Timeout, opts.SetTimeout, DefaultLongPoll)
	}
}
