// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/hearth-im/hearth/lib/ref"
	"github.com/hearth-im/hearth/syncer"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		UserID:        ref.MustParseUserID("@alice:example.org"),
		DeviceID:      "HEARTHDEV",
		HomeserverURL: "https://matrix.example.org",
		SinceToken:    "s72594_4483",
		SavedAt:       1700000000000,
		Rooms: []RoomRecord{
			{
				ID:        ref.MustParseRoomID("!room:example.org"),
				Name:      "Kitchen",
				Tag:       syncer.TagFavorite,
				PrevBatch: "p1",
			},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "session.cache")

	if err := Save(path, sampleSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.UserID.String() != "@alice:example.org" {
		t.Errorf("user ID = %q", loaded.UserID)
	}
	if loaded.SinceToken != "s72594_4483" {
		t.Errorf("since token = %q", loaded.SinceToken)
	}
	if len(loaded.Rooms) != 1 {
		t.Fatalf("rooms = %v", loaded.Rooms)
	}
	room := loaded.Rooms[0]
	if room.ID.String() != "!room:example.org" || room.Name != "Kitchen" || room.Tag != syncer.TagFavorite {
		t.Errorf("room = %+v", room)
	}
}

func TestSave_Permissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.cache")
	if err := Save(path, sampleSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}
}

func TestSave_ReplacesExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.cache")

	first := sampleSnapshot()
	if err := Save(path, first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := sampleSnapshot()
	second.SinceToken = "s99999_1"
	if err := Save(path, second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SinceToken != "s99999_1" {
		t.Errorf("since token = %q, want replacement to win", loaded.SinceToken)
	}

	// No temp file residue.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the cache file", len(entries))
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.cache"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.cache")
	if err := os.WriteFile(path, []byte("definitely not zstd"), 0600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for corrupt cache")
	}
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.cache")
	if err := Save(path, sampleSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := Destroy(path); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cache file still present after Destroy")
	}

	// Idempotent.
	if err := Destroy(path); err != nil {
		t.Errorf("second Destroy failed: %v", err)
	}
}
