// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/messaging"
)

// RoomElement is one typed mutation produced by a reconciliation pass
// for one room. It is a closed union: the five concrete types below
// are the only implementations, so consumers can type-switch
// exhaustively with a catch-all arm for safety.
//
// Elements are self-contained and order-independent within a room,
// with one exception: a MessageRemoval must win over the event it
// removes regardless of arrival order. Consumers must tolerate a
// removal for an event they have never seen and suppress any later
// insertion of that event.
type RoomElement interface {
	// RoomID returns the room the element applies to.
	RoomID() ref.RoomID

	isRoomElement()
}

// NameChange reports a new room name. An m.room.name event with no
// name content produces Name == "".
type NameChange struct {
	Room ref.RoomID
	Name string
}

// TopicChange reports a new room topic.
type TopicChange struct {
	Room  ref.RoomID
	Topic string
}

// AvatarChange signals that the room avatar changed and should be
// re-fetched. The event content is discarded; this is purely a refetch
// signal.
type AvatarChange struct {
	Room ref.RoomID
}

// MemberChange carries a full m.room.member state event. The consumer
// applies the join/leave/invite/ban transition itself; this package
// does not interpret membership semantics.
type MemberChange struct {
	Room  ref.RoomID
	Event messaging.Event
}

// MessageRemoval reports a redaction of the given event.
type MessageRemoval struct {
	Room    ref.RoomID
	EventID ref.EventID
}

func (e NameChange) RoomID() ref.RoomID     { return e.Room }
func (e TopicChange) RoomID() ref.RoomID    { return e.Room }
func (e AvatarChange) RoomID() ref.RoomID   { return e.Room }
func (e MemberChange) RoomID() ref.RoomID   { return e.Room }
func (e MessageRemoval) RoomID() ref.RoomID { return e.Room }

func (NameChange) isRoomElement()     {}
func (TopicChange) isRoomElement()    {}
func (AvatarChange) isRoomElement()   {}
func (MemberChange) isRoomElement()   {}
func (MessageRemoval) isRoomElement() {}

// Updates is the complete delta output of one incremental
// reconciliation pass. All fields are populated even when empty: an
// incremental sync with nothing new yields an Updates with an empty
// map and nil slices, never a nil *Updates.
type Updates struct {
	// NotificationCounts carries the server-computed unread counters,
	// copied verbatim per joined room.
	NotificationCounts map[ref.RoomID]messaging.UnreadNotifications

	// TypingRooms holds one synthetic room record per joined room
	// carrying the current typing-member list. These transport
	// ephemeral typing state only; they are not room-graph updates.
	TypingRooms []Room

	// NewEvents is the flattened element list: within a room, in
	// server arrival order; across rooms, in map iteration order
	// (unspecified).
	NewEvents []RoomElement
}
