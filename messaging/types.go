// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"

	"github.com/hearth-im/hearth/lib/ref"
)

// LoginRequest is the request body for /login.
type LoginRequest struct {
	Type       string     `json:"type"`
	Identifier Identifier `json:"identifier"`
	Password   string     `json:"password,omitempty"`
	DeviceID   string     `json:"device_id,omitempty"`
	// InitialDeviceDisplayName names the device in the user's session list.
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// Identifier identifies a user for login.
type Identifier struct {
	Type string `json:"type"` // "m.id.user"
	User string `json:"user"`
}

// AuthResponse is the response from /login.
type AuthResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	DeviceID    string `json:"device_id"`
}

// WhoAmIResponse is the response from /account/whoami.
type WhoAmIResponse struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
}

// Event is a Matrix room event. State events carry a non-nil StateKey;
// for most state event types it is the empty string, for membership
// events it is the target user ID.
type Event struct {
	EventID        ref.EventID    `json:"event_id,omitempty"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender,omitempty"`
	OriginServerTS int64          `json:"origin_server_ts,omitempty"`
	StateKey       *string        `json:"state_key,omitempty"`
	Content        map[string]any `json:"content"`
	// Redacts is the target of an m.room.redaction event.
	Redacts  ref.EventID    `json:"redacts,omitempty"`
	Unsigned map[string]any `json:"unsigned,omitempty"`
}

// IsState reports whether the event is a state event.
func (e *Event) IsState() bool {
	return e.StateKey != nil
}

// ContentString returns the named content field as a string, or ""
// when absent or not a string. Matrix event content is loosely typed;
// malformed fields degrade to the zero value rather than failing.
func (e *Event) ContentString(key string) string {
	value, _ := e.Content[key].(string)
	return value
}

// MessageContent is the content of an m.room.message event.
type MessageContent struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
}

// NewTextMessage creates content for a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: "m.text", Body: body}
}

// SyncOptions controls the behavior of a /sync request.
type SyncOptions struct {
	// Since is the sync token from a previous response; empty for an
	// initial sync.
	Since string
	// Timeout is the server-side long-poll hold in milliseconds. Only
	// sent when SetTimeout is true, so that 0 (return immediately) is
	// distinguishable from unset.
	Timeout    int
	SetTimeout bool
	// Filter is an inline JSON filter definition, or empty for none.
	Filter string
}

// SyncResponse is the response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection groups rooms by the account's membership.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite,omitempty"`
	Leave  map[ref.RoomID]LeftRoom    `json:"leave,omitempty"`
}

// JoinedRoom is the per-room payload for a room the account has joined.
//
// Event lists are json.RawMessage so that one malformed event cannot
// fail the whole response decode; the syncer decodes per event and
// drops failures individually.
type JoinedRoom struct {
	State               StateSection        `json:"state"`
	Timeline            TimelineSection     `json:"timeline"`
	Ephemeral           EphemeralSection    `json:"ephemeral"`
	AccountData         AccountDataSection  `json:"account_data"`
	UnreadNotifications UnreadNotifications `json:"unread_notifications"`
}

// InvitedRoom is the per-room payload for a pending invite. Invite
// state uses stripped events, which decode with the same Event shape.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// LeftRoom is the per-room payload for a room the account has left.
type LeftRoom struct {
	State    StateSection    `json:"state"`
	Timeline TimelineSection `json:"timeline"`
}

// StateSection holds state events as raw JSON.
type StateSection struct {
	Events []json.RawMessage `json:"events"`
}

// TimelineSection holds timeline events as raw JSON.
type TimelineSection struct {
	Events []json.RawMessage `json:"events"`
	// PrevBatch is a pagination token for fetching events before this
	// window.
	PrevBatch string `json:"prev_batch,omitempty"`
	// Limited indicates the server truncated the timeline to the
	// filter's limit; there is a gap before the first event.
	Limited bool `json:"limited,omitempty"`
}

// EphemeralSection holds ephemeral events (typing, receipts) as raw JSON.
type EphemeralSection struct {
	Events []json.RawMessage `json:"events"`
}

// AccountDataSection holds per-room account data events as raw JSON.
type AccountDataSection struct {
	Events []json.RawMessage `json:"events"`
}

// UnreadNotifications carries the server-computed unread counters.
type UnreadNotifications struct {
	HighlightCount    int `json:"highlight_count"`
	NotificationCount int `json:"notification_count"`
}

// SendEventResponse is the response from sending an event.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// JoinRoomResponse is the response from /join.
type JoinRoomResponse struct {
	RoomID string `json:"room_id"`
}

// JoinedRoomsResponse is the response from /joined_rooms.
type JoinedRoomsResponse struct {
	JoinedRooms []ref.RoomID `json:"joined_rooms"`
}

// ServerVersionsResponse is the response from /_matrix/client/versions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}
