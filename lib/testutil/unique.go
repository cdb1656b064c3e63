// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now() when
// tests need unique identifiers for event IDs, sync tokens, or
// message bodies that must be distinguishable across test cases.
//
//	token := testutil.UniqueID("batch")   // "batch-1", "batch-2", ...
//	body := testutil.UniqueID("message")  // "message-3", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
