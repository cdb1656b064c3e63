// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/hearth-im/hearth/lib/codec"
	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/syncer"
)

// Snapshot is the durable session state written between runs.
type Snapshot struct {
	// UserID identifies the account the snapshot belongs to. Loaders
	// must discard a snapshot for a different account.
	UserID ref.UserID `json:"user_id"`

	// DeviceID is the device the access token was issued to, if known.
	DeviceID string `json:"device_id,omitempty"`

	// HomeserverURL pins the snapshot to one homeserver.
	HomeserverURL string `json:"homeserver_url"`

	// SinceToken is the sync position. Empty forces an initial sync on
	// the next start.
	SinceToken string `json:"since_token"`

	// SavedAt is the wall-clock save time in Unix milliseconds.
	SavedAt int64 `json:"saved_at"`

	// Rooms carries the room summaries so the next start can present
	// state before the first sync completes.
	Rooms []RoomRecord `json:"rooms,omitempty"`
}

// RoomRecord is the persisted subset of a room summary.
type RoomRecord struct {
	ID        ref.RoomID `json:"id"`
	Name      string     `json:"name,omitempty"`
	Topic     string     `json:"topic,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	Tag       syncer.Tag `json:"tag,omitempty"`
	PrevBatch string     `json:"prev_batch,omitempty"`
}

// Save writes the snapshot atomically to path, creating parent
// directories as needed.
func Save(path string, snapshot *Snapshot) error {
	encoded, err := codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("cache: encoding snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("cache: creating %s: %w", dir, err)
	}

	// Temp file in the same directory so the rename is atomic.
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("cache: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: setting permissions: %w", err)
	}

	writer, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("cache: creating compressor: %w", err)
	}
	if _, err := writer.Write(encoded); err != nil {
		writer.Close()
		tmp.Close()
		return fmt.Errorf("cache: writing snapshot: %w", err)
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: flushing compressor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("cache: replacing %s: %w", path, err)
	}
	return nil
}

// Load reads a snapshot from path. A missing file returns an error
// satisfying errors.Is(err, fs.ErrNotExist); callers treat that as "no
// cache, do an initial sync".
func Load(path string) (*Snapshot, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("cache: creating decompressor: %w", err)
	}
	defer decoder.Close()

	encoded, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: decompressing %s: %w", path, err)
	}

	var snapshot Snapshot
	if err := codec.Unmarshal(encoded, &snapshot); err != nil {
		return nil, fmt.Errorf("cache: decoding %s: %w", path, err)
	}
	return &snapshot, nil
}

// Destroy removes the snapshot. Removing a snapshot that does not
// exist is not an error.
func Destroy(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache: removing %s: %w", path, err)
	}
	return nil
}
