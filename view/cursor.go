// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: view/cursor.go
// Summary: Insertion-point painting for DrawCursor records.
// Usage: Called from the batch dispatch; shapes are grid ops, not text.

package view

import (
	"image"

	"github.com/framegrace/vexel/protocol"
	"github.com/framegrace/vexel/surface"
)

// barThickness scales a cell dimension by percent, rounding up so a nonzero
// percent always yields a visible bar.
func barThickness(dim int, percent int32) int {
	if percent <= 0 {
		return 1
	}
	t := (dim*int(percent) + 99) / 100
	if t < 1 {
		t = 1
	}
	if t > dim {
		t = dim
	}
	return t
}

func (v *View) paintCursor(c *surface.Canvas, r protocol.DrawCursor) {
	cell := v.metrics.RectForCells(int(r.Row), int(r.Col), int(r.Row), int(r.Col))
	col := v.colors.resolve(r.Color)

	switch r.Shape {
	case protocol.CursorBlock:
		c.FillRect(cell, col)

	case protocol.CursorHorizontalBar:
		h := barThickness(cell.Dy(), r.Percent)
		c.FillRect(image.Rect(cell.Min.X, cell.Max.Y-h, cell.Max.X, cell.Max.Y), col)

	case protocol.CursorVerticalBarLeft:
		w := barThickness(cell.Dx(), r.Percent)
		c.FillRect(image.Rect(cell.Min.X, cell.Min.Y, cell.Min.X+w, cell.Max.Y), col)

	case protocol.CursorVerticalBarRight:
		w := barThickness(cell.Dx(), r.Percent)
		c.FillRect(image.Rect(cell.Max.X-w, cell.Min.Y, cell.Max.X, cell.Max.Y), col)

	case protocol.CursorHollow:
		c.FillRect(image.Rect(cell.Min.X, cell.Min.Y, cell.Max.X, cell.Min.Y+1), col)
		c.FillRect(image.Rect(cell.Min.X, cell.Max.Y-1, cell.Max.X, cell.Max.Y), col)
		c.FillRect(image.Rect(cell.Min.X, cell.Min.Y, cell.Min.X+1, cell.Max.Y), col)
		c.FillRect(image.Rect(cell.Max.X-1, cell.Min.Y, cell.Max.X, cell.Max.Y), col)

	default:
		// Unknown shape values fall back to a block so the cursor never
		// silently disappears.
		c.FillRect(cell, col)
	}
}
