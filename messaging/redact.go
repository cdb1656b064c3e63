// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "regexp"

// Access tokens surface in error text two ways: as an access_token
// query parameter echoed back in a URL, and as a Bearer authorization
// value quoted by an intermediary.
var (
	tokenQueryPattern  = regexp.MustCompile(`(access_token=)[^&\s"']+`)
	tokenBearerPattern = regexp.MustCompile(`(Bearer )[^\s"']+`)
)

// RedactAccessToken replaces any Matrix access token embedded in s with
// a fixed placeholder. Every error string or URL that reaches a log
// line must pass through this first; the token grants full account
// access and must never be persisted in plaintext.
func RedactAccessToken(s string) string {
	s = tokenQueryPattern.ReplaceAllString(s, "${1}REDACTED")
	s = tokenBearerPattern.ReplaceAllString(s, "${1}REDACTED")
	return s
}
