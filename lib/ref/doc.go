// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for Matrix identifiers:
// room IDs, user IDs, event IDs, and event types.
//
// Raw identifier strings from the wire are parsed into these types at
// the boundary (JSON decoding uses the TextUnmarshaler implementations)
// so that the rest of the codebase never handles an unvalidated or
// mis-kinded identifier. All types are immutable values; the zero value
// is "unset" and reports true from IsZero.
package ref
