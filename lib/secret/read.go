// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// ReadFromPath reads a secret into a protected Buffer. A path of "-"
// reads from stdin instead of a file. Surrounding whitespace (shells
// and editors love trailing newlines) is trimmed before storing, and
// every intermediate copy of the secret is zeroed before returning.
// An empty secret after trimming is an error.
func ReadFromPath(path string) (*Buffer, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret at %s is empty", path)
	}

	buffer, err := NewFromBytes(trimmed)
	// trimmed aliases data; zero the whole original including the
	// whitespace NewFromBytes did not see.
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

func readSource(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading secret from stdin: %w", err)
		}
		return data, nil
	}
	return os.ReadFile(path)
}
