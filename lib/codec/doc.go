// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Hearth's standard CBOR encoding configuration.
//
// Hearth uses two serialization formats with a clear boundary:
//
//   - JSON for external interfaces: the Matrix Client-Server API.
//   - CBOR for internal data at rest: the on-disk session cache
//     (login session, sync position, room summaries).
//
// This package provides the shared CBOR encoding and decoding modes so
// that every Hearth package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (compressed cache files):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Types that serialize to both JSON and CBOR carry only `json` struct
// tags: fxamacker/cbor v2 reads `json` tags as fallback when `cbor`
// tags are absent, so a single tag controls field naming and omitempty
// for both formats.
package codec
