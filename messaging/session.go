// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/lib/secret"
)

// Session is an authenticated connection to a Matrix homeserver.
// Sessions are created by Client.Login or Client.SessionFromToken.
//
// The access token is held in locked memory; Close releases it. A
// Session is safe for concurrent use, but the /sync loop assumes a
// single caller owns the sync token.
type Session struct {
	client      *Client
	userID      string
	deviceID    string
	accessToken *secret.Buffer
}

// UserID returns the Matrix user ID this session is authenticated as.
func (s *Session) UserID() string {
	return s.userID
}

// DeviceID returns the device ID assigned at login, or "" for sessions
// restored from a bare token.
func (s *Session) DeviceID() string {
	return s.deviceID
}

// Close releases the locked memory holding the access token. The
// session is unusable afterward.
func (s *Session) Close() error {
	return s.accessToken.Close()
}

// CloseIdleConnections closes idle connections in the shared HTTP
// transport.
func (s *Session) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// WhoAmI verifies the access token against the server and returns the
// identity it belongs to.
func (s *Session) WhoAmI(ctx context.Context) (*WhoAmIResponse, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, apiPrefix+"/account/whoami", s.accessToken, nil, nil)
	if err != nil {
		return nil, err
	}
	var whoami WhoAmIResponse
	if err := json.Unmarshal(body, &whoami); err != nil {
		return nil, fmt.Errorf("messaging: decoding whoami response: %w", err)
	}
	return &whoami, nil
}

// Sync performs a single /sync request and returns the decoded
// response. The request blocks server-side for up to opts.Timeout
// milliseconds when there are no new events; cancel ctx to abort
// early.
func (s *Session) Sync(ctx context.Context, opts SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if opts.Since != "" {
		query.Set("since", opts.Since)
	}
	if opts.SetTimeout {
		query.Set("timeout", strconv.Itoa(opts.Timeout))
	}
	if opts.Filter != "" {
		query.Set("filter", opts.Filter)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, apiPrefix+"/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, err
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: decoding sync response: %w", err)
	}
	return &response, nil
}

// JoinRoom joins a room by ID or alias.
func (s *Session) JoinRoom(ctx context.Context, roomIDOrAlias string) (ref.RoomID, error) {
	path := apiPrefix + "/join/" + url.PathEscape(roomIDOrAlias)
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{}, nil)
	if err != nil {
		return ref.RoomID{}, err
	}
	var joined JoinRoomResponse
	if err := json.Unmarshal(body, &joined); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: decoding join response: %w", err)
	}
	return ref.ParseRoomID(joined.RoomID)
}

// LeaveRoom leaves a room.
func (s *Session) LeaveRoom(ctx context.Context, roomID ref.RoomID) error {
	path := apiPrefix + "/rooms/" + url.PathEscape(roomID.String()) + "/leave"
	_, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{}, nil)
	return err
}

// JoinedRooms lists the rooms this account is currently joined to.
func (s *Session) JoinedRooms(ctx context.Context) ([]ref.RoomID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, apiPrefix+"/joined_rooms", s.accessToken, nil, nil)
	if err != nil {
		return nil, err
	}
	var rooms JoinedRoomsResponse
	if err := json.Unmarshal(body, &rooms); err != nil {
		return nil, fmt.Errorf("messaging: decoding joined rooms response: %w", err)
	}
	return rooms.JoinedRooms, nil
}

// SendMessage sends a text message to a room.
func (s *Session) SendMessage(ctx context.Context, roomID ref.RoomID, body string) (string, error) {
	return s.SendEvent(ctx, roomID, "m.room.message", NewTextMessage(body))
}

// SendEvent sends an event of the given type to a room, returning the
// new event's ID. A fresh transaction ID is used per call, so retries
// at this level are not deduplicated.
func (s *Session) SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (string, error) {
	path := apiPrefix + "/rooms/" + url.PathEscape(roomID.String()) +
		"/send/" + url.PathEscape(string(eventType)) +
		"/" + url.PathEscape(s.client.nextTransactionID())

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content, nil)
	if err != nil {
		return "", err
	}
	var sent SendEventResponse
	if err := json.Unmarshal(body, &sent); err != nil {
		return "", fmt.Errorf("messaging: decoding send response: %w", err)
	}
	return sent.EventID, nil
}

// Logout invalidates the access token server-side. The session must
// still be Closed afterward to release the local buffer.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.client.doRequest(ctx, http.MethodPost, apiPrefix+"/logout", s.accessToken, struct{}{}, nil)
	return err
}
