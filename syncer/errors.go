// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import "fmt"

// SyncError wraps a failed sync attempt together with the number of
// consecutive failures so far. The driver does not increment Attempt;
// the caller passes the current count in and bumps it before the next
// retry, so the count stays accurate for backoff and for any "sync
// failed N times" signal surfaced to the user.
type SyncError struct {
	Err     error
	Attempt uint32
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync attempt %d failed: %v", e.Attempt, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
