// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache persists the session snapshot between runs: the sync
// position, account identity, and room summaries.
//
// Snapshots are CBOR-encoded (deterministic encoding via lib/codec),
// zstd-compressed, and written atomically — encode to a temp file in
// the target directory, then rename over the destination — so a crash
// mid-save never leaves a truncated cache. Files are created with 0600
// permissions: the snapshot names the account and homeserver, and
// leaking the sync token reveals stream position.
//
// Destroy removes the snapshot; the next start then performs a fresh
// initial sync, which is the logout/cache-clear semantics.
package cache
