// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/messaging"
	"github.com/hearth-im/hearth/syncer"
)

// Message is one timeline message held by the store.
type Message struct {
	ID     ref.EventID
	Sender ref.UserID
	Body   string
	// Timestamp is the event's origin_server_ts in milliseconds.
	Timestamp int64
}

// Room is the store's mutable per-room state.
type Room struct {
	ID        ref.RoomID
	Name      string
	Topic     string
	AvatarURL string
	// AvatarStale is set when a sync pass signals the avatar changed;
	// the consumer clears it after re-fetching.
	AvatarStale bool
	Tag         syncer.Tag

	// Members is keyed by user ID and holds currently-joined members.
	Members map[ref.UserID]syncer.Member

	// Typing is the current typing list, replaced wholesale each
	// incremental batch.
	Typing []syncer.Member

	NotificationCounts messaging.UnreadNotifications

	// Messages is the ordered timeline, oldest first.
	Messages []Message

	// PrevBatch is the pagination token for history before the oldest
	// known message.
	PrevBatch string

	// redacted tombstones event IDs removed by redaction, including
	// ones never inserted.
	redacted map[ref.EventID]struct{}
}

// Store holds all room state. It is safe for concurrent readers; the
// sync loop is the single writer.
type Store struct {
	mu     sync.RWMutex
	rooms  map[ref.RoomID]*Room
	logger *slog.Logger
}

// NewStore creates an empty Store. A nil logger means slog.Default().
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		rooms:  make(map[ref.RoomID]*Room),
		logger: logger,
	}
}

// ReplaceAll discards all current state and installs the given rooms
// as the complete set. Called with the authoritative room list from an
// initial sync.
func (s *Store) ReplaceAll(rooms []syncer.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms = make(map[ref.RoomID]*Room, len(rooms))
	for _, summary := range rooms {
		room := newRoom(summary.ID)
		room.Name = summary.Name
		room.Topic = summary.Topic
		room.AvatarURL = summary.AvatarURL
		room.Tag = summary.Tag
		room.PrevBatch = summary.PrevBatch
		room.NotificationCounts = summary.NotificationCounts
		for _, member := range summary.Members {
			room.Members[member.UserID] = member
		}
		s.rooms[summary.ID] = room
	}
}

// Apply folds one incremental update batch into the store. Elements
// referencing unknown rooms create the room record lazily — a delta
// can arrive for a room joined after the last initial sync.
func (s *Store) Apply(updates *syncer.Updates) {
	if updates == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for roomID, counts := range updates.NotificationCounts {
		s.room(roomID).NotificationCounts = counts
	}

	for _, typingRoom := range updates.TypingRooms {
		s.room(typingRoom.ID).Typing = typingRoom.TypingUsers
	}

	for _, element := range updates.NewEvents {
		s.applyElement(element)
	}
}

func (s *Store) applyElement(element syncer.RoomElement) {
	room := s.room(element.RoomID())

	switch delta := element.(type) {
	case syncer.NameChange:
		room.Name = delta.Name

	case syncer.TopicChange:
		room.Topic = delta.Topic

	case syncer.AvatarChange:
		room.AvatarStale = true

	case syncer.MemberChange:
		s.applyMembership(room, delta.Event)

	case syncer.MessageRemoval:
		s.removeMessage(room, delta.EventID)

	default:
		// Closed union; a new variant reaching here means this switch
		// was not extended with it.
		s.logger.Error("unhandled room element",
			"type", fmt.Sprintf("%T", element), "room", element.RoomID())
	}
}

// applyMembership applies one m.room.member state event. The state key
// names the target user; the membership field drives the transition.
func (s *Store) applyMembership(room *Room, event messaging.Event) {
	if event.StateKey == nil {
		s.logger.Warn("member event without state key", "room", room.ID)
		return
	}
	target, err := ref.ParseUserID(*event.StateKey)
	if err != nil {
		s.logger.Warn("member event with malformed state key",
			"room", room.ID, "error", err)
		return
	}

	switch membership := event.ContentString("membership"); membership {
	case "join":
		room.Members[target] = syncer.Member{
			UserID:      target,
			DisplayName: event.ContentString("displayname"),
			AvatarURL:   event.ContentString("avatar_url"),
		}
	case "leave", "ban":
		delete(room.Members, target)
	case "invite", "knock":
		// Not a member yet; nothing to track for the member list.
	default:
		s.logger.Warn("unknown membership state",
			"room", room.ID, "user", target, "membership", membership)
	}
}

// removeMessage applies a redaction: the event is tombstoned so a late
// insertion is suppressed, and dropped from the timeline if present.
func (s *Store) removeMessage(room *Room, eventID ref.EventID) {
	room.redacted[eventID] = struct{}{}

	for i, message := range room.Messages {
		if message.ID == eventID {
			room.Messages = append(room.Messages[:i], room.Messages[i+1:]...)
			return
		}
	}
}

// AddMessage appends a message to a room's timeline. Returns false if
// the message was suppressed: either already present (duplicate
// delivery) or previously redacted.
func (s *Store) AddMessage(roomID ref.RoomID, message Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.room(roomID)
	if _, ok := room.redacted[message.ID]; ok {
		return false
	}
	for _, existing := range room.Messages {
		if existing.ID == message.ID {
			return false
		}
	}
	room.Messages = append(room.Messages, message)
	return true
}

// Snapshot returns a copy of one room's state, or false if unknown.
func (s *Store) Snapshot(roomID ref.RoomID) (Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return Room{}, false
	}
	return copyRoom(room), true
}

// Rooms returns copies of all known rooms, in unspecified order.
func (s *Store) Rooms() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, copyRoom(room))
	}
	return rooms
}

// Len returns the number of known rooms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// room returns the state for roomID, creating it lazily. Caller must
// hold the write lock.
func (s *Store) room(roomID ref.RoomID) *Room {
	if room, ok := s.rooms[roomID]; ok {
		return room
	}
	room := newRoom(roomID)
	s.rooms[roomID] = room
	return room
}

func newRoom(roomID ref.RoomID) *Room {
	return &Room{
		ID:       roomID,
		Members:  make(map[ref.UserID]syncer.Member),
		redacted: make(map[ref.EventID]struct{}),
	}
}

// copyRoom deep-copies the exported state of a room. The tombstone set
// stays internal.
func copyRoom(room *Room) Room {
	copied := *room
	copied.redacted = nil

	copied.Members = make(map[ref.UserID]syncer.Member, len(room.Members))
	for userID, member := range room.Members {
		copied.Members[userID] = member
	}
	copied.Typing = append([]syncer.Member(nil), room.Typing...)
	copied.Messages = append([]Message(nil), room.Messages...)
	return copied
}
