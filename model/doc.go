// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package model owns the in-memory room/timeline state that the sync
// pipeline's deltas are applied to.
//
// Store is the single consumer of syncer output: ReplaceAll installs
// the authoritative room set from an initial sync, Apply folds an
// incremental Updates batch in. The store is the only component that
// interprets membership transitions and redaction semantics; the
// syncer only produces the delta values.
//
// Redactions tombstone the target event ID. A removal may arrive for
// an event the store has never seen (server-side ordering is not
// guaranteed across batches), so tombstones are kept and any later
// insertion of a tombstoned event is suppressed as already removed.
package model
