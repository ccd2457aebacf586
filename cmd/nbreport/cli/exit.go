// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. When a command handler returns an ExitError, main exits
// with the specified code without printing the error string; the command
// is expected to have already written its own output (for example,
// "nbreport register" when the user declines the confirmation).
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface on
// returned errors to distinguish a handled non-zero exit from an error
// to display.
func (e *ExitError) ExitCode() int {
	return e.Code
}
