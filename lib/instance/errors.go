// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package instance

import "fmt"

// DirectoryExistsError reports that the target of FromReportRepo
// already exists and overwriting was not requested.
type DirectoryExistsError struct {
	Path string
}

func (e *DirectoryExistsError) Error() string {
	return fmt.Sprintf("instance directory already exists: %s", e.Path)
}
