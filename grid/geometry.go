// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: grid/geometry.go
// Summary: Pure cell-to-pixel geometry for the character grid.
// Usage: Shared by the view, the surface and the host bridge during resize.
// Notes: Surface-local coordinates have no inset; view coordinates do.

package grid

import "image"

// Minimum grid extent offered to the window system during resize. Policy
// constants, not derived from anything.
const (
	MinRows    = 4
	MinColumns = 20
)

// CellSize is the pixel extent of one grid cell. Both dimensions are kept
// positive by construction; Constrain additionally clamps before dividing.
type CellSize struct {
	Width  int
	Height int
}

// Size is a logical grid extent in rows and columns.
type Size struct {
	Rows    int
	Columns int
}

// Metrics bundles the cell size with the fixed pixel inset surrounding the
// grid inside the view.
type Metrics struct {
	Cell  CellSize
	Inset image.Point
}

// OriginForCell returns the surface-local pixel origin of a cell. Row 0 is
// the top row.
func (m Metrics) OriginForCell(row, col int) image.Point {
	return image.Point{X: col * m.Cell.Width, Y: row * m.Cell.Height}
}

// RectForCells returns the surface-local pixel rect covering the inclusive
// cell range (row1,col1)-(row2,col2).
func (m Metrics) RectForCells(row1, col1, row2, col2 int) image.Rectangle {
	origin := m.OriginForCell(row1, col1)
	return image.Rectangle{
		Min: origin,
		Max: image.Point{
			X: origin.X + (col2-col1+1)*m.Cell.Width,
			Y: origin.Y + (row2-row1+1)*m.Cell.Height,
		},
	}
}

// SurfaceSize returns the pixel extent of the off-screen surface backing a
// grid of the given logical size. No inset: the surface holds cells only.
func (m Metrics) SurfaceSize(s Size) image.Point {
	return image.Point{X: s.Columns * m.Cell.Width, Y: s.Rows * m.Cell.Height}
}

// DesiredSize returns the view pixel size needed to show the given grid,
// including the inset on all four sides.
func (m Metrics) DesiredSize(s Size) image.Point {
	return image.Point{
		X: s.Columns*m.Cell.Width + 2*m.Inset.X,
		Y: s.Rows*m.Cell.Height + 2*m.Inset.Y,
	}
}

// MinSize returns the view pixel size of the minimum grid.
func (m Metrics) MinSize() image.Point {
	return m.DesiredSize(Size{Rows: MinRows, Columns: MinColumns})
}

// Constrain computes the largest grid that fits inside target and the
// snapped pixel size consistent with that integral grid. Snapping prevents
// fractional-cell artifacts during live resize. Cell dimensions are clamped
// to at least 1 before dividing.
func (m Metrics) Constrain(target image.Point) (Size, image.Point) {
	cw := max(m.Cell.Width, 1)
	ch := max(m.Cell.Height, 1)

	cols := (target.X - 2*m.Inset.X) / cw
	rows := (target.Y - 2*m.Inset.Y) / ch
	s := Size{Rows: max(rows, 1), Columns: max(cols, 1)}
	return s, m.DesiredSize(s)
}

// CellAt maps a view-local pixel point to a cell. It reports ok=false while
// the cell size is not yet positive (uninitialized font state).
func (m Metrics) CellAt(p image.Point) (row, col int, ok bool) {
	if m.Cell.Width <= 0 || m.Cell.Height <= 0 {
		return 0, 0, false
	}
	col = (p.X - m.Inset.X) / m.Cell.Width
	row = (p.Y - m.Inset.Y) / m.Cell.Height
	return row, col, true
}
