// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"encoding/json"
	"log/slog"

	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/messaging"
)

// extractUpdates walks every joined room in an incremental response
// and produces the delta batch: notification counters copied verbatim,
// typing state flattened into synthetic room records, and timeline
// events classified into RoomElements.
//
// Rooms are visited in map order; only within-room event order is
// meaningful.
func extractUpdates(joined map[ref.RoomID]messaging.JoinedRoom, userID ref.UserID, logger *slog.Logger) *Updates {
	updates := &Updates{
		NotificationCounts: make(map[ref.RoomID]messaging.UnreadNotifications, len(joined)),
	}

	for roomID, room := range joined {
		updates.NotificationCounts[roomID] = room.UnreadNotifications

		updates.TypingRooms = append(updates.TypingRooms, Room{
			ID:          roomID,
			Tag:         TagNone,
			TypingUsers: typingMembers(roomID, room.Ephemeral.Events, userID, logger),
		})

		for _, raw := range room.Timeline.Events {
			event, ok := decodeEvent(raw, roomID, "timeline", logger)
			if !ok {
				continue
			}
			if element, ok := classifyEvent(roomID, event, logger); ok {
				updates.NewEvents = append(updates.NewEvents, element)
			}
		}
	}
	return updates
}

// classifyEvent maps one decoded timeline event to zero or one
// RoomElement.
//
// Messages and stickers are dropped silently here — they flow through
// the timeline-rendering path, not the delta batch. Any other
// unrecognized type is dropped with an error-level log: the sync
// filter should have excluded it, so its presence means the filter and
// this classifier disagree.
func classifyEvent(roomID ref.RoomID, event messaging.Event, logger *slog.Logger) (RoomElement, bool) {
	switch event.Type {
	case "m.room.name":
		// A missing or non-string name degrades to "", never an error.
		return NameChange{Room: roomID, Name: event.ContentString("name")}, true

	case "m.room.topic":
		return TopicChange{Room: roomID, Topic: event.ContentString("topic")}, true

	case "m.room.avatar":
		return AvatarChange{Room: roomID}, true

	case "m.room.member":
		return MemberChange{Room: roomID, Event: event}, true

	case "m.room.redaction":
		if event.Redacts.IsZero() {
			logger.Warn("dropping redaction without target",
				"room", roomID, "event", event.EventID)
			return nil, false
		}
		return MessageRemoval{Room: roomID, EventID: event.Redacts}, true

	case "m.room.message", "m.sticker":
		return nil, false

	default:
		logger.Error("unexpected event type in sync timeline",
			"room", roomID, "type", event.Type)
		return nil, false
	}
}

// typingMembers flattens m.typing ephemeral events into placeholder
// member records, preserving server order and excluding the logged-in
// user. Display names and avatars are left unresolved for the model
// owner to hydrate.
func typingMembers(roomID ref.RoomID, events []json.RawMessage, self ref.UserID, logger *slog.Logger) []Member {
	var members []Member
	for _, raw := range events {
		event, ok := decodeEvent(raw, roomID, "ephemeral", logger)
		if !ok {
			continue
		}
		if event.Type != "m.typing" {
			continue
		}

		userIDs, ok := event.Content["user_ids"].([]any)
		if !ok {
			logger.Warn("dropping typing event without user_ids", "room", roomID)
			continue
		}
		for _, entry := range userIDs {
			rawID, ok := entry.(string)
			if !ok {
				logger.Warn("dropping non-string typing user ID", "room", roomID)
				continue
			}
			memberID, err := ref.ParseUserID(rawID)
			if err != nil {
				logger.Warn("dropping malformed typing user ID",
					"room", roomID, "error", err)
				continue
			}
			if memberID == self {
				continue
			}
			members = append(members, Member{UserID: memberID})
		}
	}
	return members
}

// decodeEvent decodes one raw event, logging and dropping failures.
// A malformed item never aborts the batch.
func decodeEvent(raw json.RawMessage, roomID ref.RoomID, section string, logger *slog.Logger) (messaging.Event, bool) {
	var event messaging.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		logger.Warn("dropping malformed event",
			"room", roomID, "section", section, "error", err)
		return messaging.Event{}, false
	}
	return event, true
}
