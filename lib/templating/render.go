// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templating

import (
	"fmt"

	"github.com/bureau-foundation/nbreport/lib/notebook"
)

// RenderCell replaces the cell's source with its rendered form. Other
// cell fields are left alone. On error the source is unchanged.
func RenderCell(cell *notebook.Cell, name string, engine *Engine) error {
	rendered, err := engine.Render(name, cell.Source)
	if err != nil {
		return err
	}
	cell.Source = rendered
	return nil
}

// RenderNotebook renders every cell in document order. It stops at the
// first failing cell: earlier cells stay rendered, the failing cell
// and everything after it keep their template source.
//
// Rendering is not idempotent. Rendered text that happens to contain
// "{{" would be expanded again, so an instance must be rendered at most
// once.
func RenderNotebook(document *notebook.Notebook, engine *Engine) error {
	for index, cell := range document.Cells {
		if err := RenderCell(cell, fmt.Sprintf("cell[%d]", index), engine); err != nil {
			return err
		}
	}
	return nil
}
