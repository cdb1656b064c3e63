// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncer implements the sync reconciliation pipeline: it turns
// raw Matrix /sync responses into typed, ordered deltas for the room
// model.
//
// The pipeline has four stages:
//
//   - BuildSyncOptions constructs the request: an inline filter on the
//     first sync, token plus long-poll timeout on every later one.
//   - Driver issues exactly one /sync round trip per call, classifies
//     failures, and sleeps the backoff before returning a *SyncError
//     with the caller's attempt counter.
//   - The transformer converts a successful response into a *Result:
//     the rooms now known plus, on incremental syncs only, an *Updates
//     batch of typed deltas.
//   - The classifier maps one raw room event to zero or one
//     RoomElement; malformed items are dropped with a warning, never
//     failing the batch.
//
// Loop ties the stages together: a single goroutine owns the sync
// token and the attempt counter, retries forever on failure, and
// delivers each Result to a registered handler. There are no fatal
// errors in this package; every failure mode is drop-and-continue or
// retry-with-backoff, and the loop stops only when its context is
// cancelled.
package syncer
