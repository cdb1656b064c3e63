// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API for Hearth.
//
// The package provides two core types. [Client] is an unauthenticated
// Matrix client that handles password login, returning authenticated
// [Session] values. Client holds the homeserver URL and HTTP transport,
// shared across all Sessions derived from it.
//
// [Session] wraps a Client with an access token for authenticated
// operations: /sync long-polling, room membership (join, leave, joined
// rooms), messaging, logout, and identity verification (WhoAmI).
//
// Sessions are lightweight (a pointer to the parent Client plus an
// access token in mmap-backed secret.Buffer memory). The access token
// is locked against swap and excluded from core dumps; callers must
// call Session.Close to release the protected memory.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_LIMIT_EXCEEDED, etc.) and HTTP
// status code. [IsMatrixError] tests for a specific error code;
// [IsRateLimited] tests for rate limiting. Request URLs are built by
// string concatenation rather than url.URL to avoid double-encoding of
// path segments that contain URL-encoded characters.
//
// Error strings from the transport can embed the access token (it
// travels as a header, but proxies and redirects have been observed to
// reflect it into messages); anything destined for logs must pass
// through [RedactAccessToken] first.
package messaging
