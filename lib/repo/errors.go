// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package repo

import "fmt"

// NotFoundError reports that a report repository or instance directory
// does not exist or is not a directory.
type NotFoundError struct {
	// Kind names what was looked for, for example "report repository".
	Kind string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found at %s", e.Kind, e.Path)
}

// MissingMetadataError reports that a required field is absent from an
// nbreport.yaml metadata file.
type MissingMetadataError struct {
	// Path is the metadata file.
	Path string

	// Field is the missing top-level key.
	Field string

	// Remedy, when set, tells the user how to add the field.
	Remedy string
}

func (e *MissingMetadataError) Error() string {
	message := fmt.Sprintf("field %q not found in %s", e.Field, e.Path)
	if e.Remedy != "" {
		message += ". " + e.Remedy
	}
	return message
}
