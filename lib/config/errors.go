// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is matched by every [KeyNotFoundError] via errors.Is.
var ErrKeyNotFound = errors.New("key not found")

// KeyNotFoundError reports a top-level key that is absent from the
// store, either because the file has no such key or because the file
// does not exist.
type KeyNotFoundError struct {
	// Path is the backing file.
	Path string

	// Key is the requested top-level key.
	Key string
}

func (err *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found in %s", err.Key, err.Path)
}

// Is reports whether target is [ErrKeyNotFound].
func (err *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}
