// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"os"
)

// ReadFile reads a secret from path into a Buffer. Trailing line
// endings are removed (files written by echo or editors usually end
// with one); other whitespace is part of the secret. The caller must
// close the Buffer.
func ReadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer Zero(data)

	trimmed := bytes.TrimRight(data, "\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret: %s is empty (after stripping trailing newlines)", path)
	}
	return NewFromBytes(trimmed)
}
