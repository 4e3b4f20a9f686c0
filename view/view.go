// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: view/view.go
// Summary: Presenter owning the grid state, surface and batch application.
// Usage: The host bridge feeds SetGridSize and ApplyBatch from its single
//        apply goroutine; the frontend blits Image() on each flush callback.
// Notes: Grid size changes are remembered immediately but the surface is
//        only resynchronized at the start of the next batch (lazy resize).

package view

import (
	"errors"
	"image"
	"image/color"
	"log"

	"github.com/framegrace/vexel/glyph"
	"github.com/framegrace/vexel/grid"
	"github.com/framegrace/vexel/protocol"
	"github.com/framegrace/vexel/surface"
)

// View interprets draw-command batches against an off-screen surface. It is
// not internally locked: the host serializes all calls through one goroutine.
type View struct {
	metrics   grid.Metrics
	requested grid.Size
	applied   grid.Size

	surf    *surface.Surface
	painter glyph.Painter

	defaultBg color.RGBA
	defaultFg color.RGBA
	defaultSp color.RGBA
	colors    colorCache

	// cursorHint is the last SetCursorPos record, kept for an accessibility
	// collaborator. It has no visual effect here.
	cursorHintRow int32
	cursorHintCol int32

	onFlush func()
}

// New creates a view with the given geometry and rasterizer. The surface
// starts empty; the first batch allocates it.
func New(metrics grid.Metrics, painter glyph.Painter) *View {
	return &View{
		metrics:   metrics,
		requested: grid.Size{Rows: grid.MinRows, Columns: grid.MinColumns},
		surf:      surface.New(image.Point{}),
		painter:   painter,
		defaultBg: color.RGBA{A: 255},
		defaultFg: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		defaultSp: color.RGBA{R: 255, A: 255},
	}
}

// SetGridSize remembers a new logical extent. No resize side effect; the
// surface catches up when the next batch begins.
func (v *View) SetGridSize(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	v.requested = grid.Size{Rows: rows, Columns: cols}
}

// GridSize returns the requested logical extent.
func (v *View) GridSize() grid.Size { return v.requested }

// SetMetrics installs new cell geometry, typically after a font or
// linespace change. Must never run concurrently with ApplyBatch; the next
// batch picks up the new surface size.
func (v *View) SetMetrics(m grid.Metrics) { v.metrics = m }

// Metrics returns the current geometry.
func (v *View) Metrics() grid.Metrics { return v.metrics }

// SetDefaultColors installs the packed background/foreground/special colors
// used by ClearAll and as the frontend's canvas defaults.
func (v *View) SetDefaultColors(bg, fg, sp uint32) {
	v.defaultBg = unpackColor(bg)
	v.defaultFg = unpackColor(fg)
	v.defaultSp = unpackColor(sp)
}

// DefaultBackground returns the resolved default background color.
func (v *View) DefaultBackground() color.RGBA { return v.defaultBg }

// DesiredSize returns the view pixel size for the requested grid.
func (v *View) DesiredSize() image.Point { return v.metrics.DesiredSize(v.requested) }

// MinSize returns the smallest acceptable view pixel size.
func (v *View) MinSize() image.Point { return v.metrics.MinSize() }

// Constrain snaps an arbitrary candidate size to the integral grid.
func (v *View) Constrain(target image.Point) (grid.Size, image.Point) {
	return v.metrics.Constrain(target)
}

// Image exposes the surface pixels for blitting.
func (v *View) Image() *image.RGBA { return v.surf.Image() }

// CursorHint returns the last accessibility cursor position.
func (v *View) CursorHint() (row, col int32) { return v.cursorHintRow, v.cursorHintCol }

// OnFlush registers the single-repaint callback invoked after each batch.
func (v *View) OnFlush(fn func()) { v.onFlush = fn }

// reconcileSurface brings the surface in line with the requested grid. Runs
// at batch start only, so a burst of SetGridSize calls costs one realloc.
func (v *View) reconcileSurface() {
	want := v.metrics.SurfaceSize(v.requested)
	if v.applied != v.requested || v.surf.Size() != want {
		v.surf.Resize(want)
		v.applied = v.requested
	}
}

// ApplyBatch decodes and applies one draw-command buffer in stream order,
// then triggers a single repaint. A malformed or unknown record stops the
// batch; records applied before the stop remain visible. The error return
// is reserved for surface bracket misuse, not for batch content.
func (v *View) ApplyBatch(buf []byte) error {
	v.reconcileSurface()

	err := v.surf.Batch(func(c *surface.Canvas) error {
		d := protocol.NewDecoder(buf)
		for d.More() {
			rec, err := d.Next()
			if err != nil {
				if errors.Is(err, protocol.ErrUnknownTag) || errors.Is(err, protocol.ErrShortRecord) {
					log.Printf("view: stopping batch: %v", err)
					return nil
				}
				return err
			}
			v.apply(c, rec)
		}
		return nil
	})

	// One repaint per batch, even when decoding stopped early. The host's
	// resize notifications and batch content can arrive out of order, so a
	// forced repaint avoids stale-content artifacts during live resize.
	if v.onFlush != nil {
		v.onFlush()
	}
	return err
}

func (v *View) apply(c *surface.Canvas, rec protocol.Record) {
	m := v.metrics
	switch r := rec.(type) {
	case protocol.ClearAll:
		c.ClearAll(v.defaultBg)

	case protocol.ClearBlock:
		rect := m.RectForCells(int(r.Row1), int(r.Col1), int(r.Row2), int(r.Col2))
		c.FillRect(rect, v.colors.resolve(r.Color))

	case protocol.DeleteLines:
		// Shift the rows below the deleted band up, then fill the exposed
		// band at the bottom.
		moved := m.RectForCells(int(r.Row+r.Count), int(r.Left), int(r.Bottom), int(r.Right))
		c.CopyRegion(moved, -int(r.Count)*m.Cell.Height)
		exposed := m.RectForCells(int(r.Bottom-r.Count+1), int(r.Left), int(r.Bottom), int(r.Right))
		c.FillRect(exposed, v.colors.resolve(r.Color))

	case protocol.InsertLines:
		moved := m.RectForCells(int(r.Row), int(r.Left), int(r.Bottom-r.Count), int(r.Right))
		c.CopyRegion(moved, int(r.Count)*m.Cell.Height)
		exposed := m.RectForCells(int(r.Row), int(r.Left), int(r.Row+r.Count-1), int(r.Right))
		c.FillRect(exposed, v.colors.resolve(r.Color))

	case protocol.DrawString:
		if r.Cells <= 0 {
			return
		}
		rect := m.RectForCells(int(r.Row), int(r.Col), int(r.Row), int(r.Col+r.Cells-1))
		if r.Flags&protocol.FlagWide != 0 {
			rect.Max.X = rect.Min.X + 2*rect.Dx()
		}
		v.painter.DrawRun(c.RGBA(), rect, r.Text, r.Flags,
			v.colors.resolve(r.Fg), v.colors.resolve(r.Bg), v.colors.resolve(r.Sp))

	case protocol.DrawCursor:
		v.paintCursor(c, r)

	case protocol.DrawInvertedRect:
		rect := m.RectForCells(int(r.Row), int(r.Col), int(r.Row+r.NumRows-1), int(r.Col+r.NumCols-1))
		c.InvertRect(rect)

	case protocol.SetCursorPos:
		v.cursorHintRow, v.cursorHintCol = r.Row, r.Col
	}
}
