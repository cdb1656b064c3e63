// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"encoding/json"
	"log/slog"

	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/messaging"
)

// Tag is the membership list category of a room, derived from m.tag
// account data.
type Tag int

const (
	// TagNone is the default category.
	TagNone Tag = iota
	// TagFavorite marks a room tagged m.favourite.
	TagFavorite
	// TagLowPriority marks a room tagged m.lowpriority.
	TagLowPriority
)

func (t Tag) String() string {
	switch t {
	case TagFavorite:
		return "favorite"
	case TagLowPriority:
		return "low-priority"
	default:
		return "none"
	}
}

// Member is a minimal member record. Typing lists carry members with
// only the user ID set; display name and avatar are resolved later by
// the model owner, not by this package.
type Member struct {
	UserID      ref.UserID
	DisplayName string
	AvatarURL   string
}

// Room is one room summary produced by a reconciliation pass. On an
// initial sync the room set is authoritative and complete; on an
// incremental sync rooms only mean "touched by this batch" and the
// consumer should rely on Updates for deltas.
type Room struct {
	ID        ref.RoomID
	Name      string
	Topic     string
	AvatarURL string
	Tag       Tag

	// Members holds the joined members visible in the lazy-loaded
	// state section.
	Members []Member

	// TypingUsers is only set on the synthetic rooms in
	// Updates.TypingRooms.
	TypingUsers []Member

	// PrevBatch is the pagination token for fetching history before
	// this sync window.
	PrevBatch string

	NotificationCounts messaging.UnreadNotifications
}

// buildRoom constructs one room summary from a joined-room section.
// Malformed state or account-data items are dropped with a warning;
// room construction never fails.
func buildRoom(roomID ref.RoomID, joined messaging.JoinedRoom, logger *slog.Logger) Room {
	room := Room{
		ID:                 roomID,
		PrevBatch:          joined.Timeline.PrevBatch,
		NotificationCounts: joined.UnreadNotifications,
	}

	for _, raw := range joined.State.Events {
		event, ok := decodeEvent(raw, roomID, "state", logger)
		if !ok {
			continue
		}
		applyStateEvent(&room, event)
	}

	room.Tag = roomTag(roomID, joined.AccountData.Events, logger)
	return room
}

// applyStateEvent folds one state event into the room summary. Later
// events win, matching the server's state resolution order within the
// section.
func applyStateEvent(room *Room, event messaging.Event) {
	switch event.Type {
	case "m.room.name":
		room.Name = event.ContentString("name")
	case "m.room.topic":
		room.Topic = event.ContentString("topic")
	case "m.room.avatar":
		room.AvatarURL = event.ContentString("url")
	case "m.room.member":
		if event.StateKey == nil || event.ContentString("membership") != "join" {
			return
		}
		memberID, err := ref.ParseUserID(*event.StateKey)
		if err != nil {
			return
		}
		room.Members = append(room.Members, Member{
			UserID:      memberID,
			DisplayName: event.ContentString("displayname"),
			AvatarURL:   event.ContentString("avatar_url"),
		})
	}
}

// roomTag extracts the list category from m.tag account data. Absent
// or malformed tag data yields TagNone; favourite wins over
// low-priority if both are somehow present.
func roomTag(roomID ref.RoomID, events []json.RawMessage, logger *slog.Logger) Tag {
	for _, raw := range events {
		event, ok := decodeEvent(raw, roomID, "account_data", logger)
		if !ok {
			continue
		}
		if event.Type != "m.tag" {
			continue
		}
		tags, ok := event.Content["tags"].(map[string]any)
		if !ok {
			continue
		}
		if _, ok := tags["m.favourite"]; ok {
			return TagFavorite
		}
		if _, ok := tags["m.lowpriority"]; ok {
			return TagLowPriority
		}
	}
	return TagNone
}
