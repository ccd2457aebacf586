// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compute

import (
	"fmt"
	"strings"
)

// CellExecutionError reports a notebook cell that raised during
// execution, or an execution that stopped on a cell timeout.
type CellExecutionError struct {
	// CellIndex is the failing cell's position in the notebook, or
	// -1 when the engine could not tell which cell failed.
	CellIndex int

	// Name and Value are the exception's type name and message.
	Name  string
	Value string

	// Traceback is the kernel's formatted traceback, one entry per
	// line. May contain terminal escape sequences.
	Traceback []string

	// RecoveryPath is the partially computed notebook saved for
	// inspection. Set by Compute.
	RecoveryPath string
}

func (e *CellExecutionError) Error() string {
	var builder strings.Builder
	if e.CellIndex >= 0 {
		fmt.Fprintf(&builder, "error executing notebook cell %d", e.CellIndex)
	} else {
		builder.WriteString("error executing notebook")
	}
	if e.Name != "" {
		fmt.Fprintf(&builder, ": %s", e.Name)
		if e.Value != "" {
			fmt.Fprintf(&builder, ": %s", e.Value)
		}
	}
	if e.RecoveryPath != "" {
		fmt.Fprintf(&builder, " (see %s for the traceback)", e.RecoveryPath)
	}
	return builder.String()
}
