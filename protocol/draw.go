// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/draw.go
// Summary: Draw-command record types and batch encoding.
// Usage: Shared vocabulary between the editor core (producer) and the view (consumer).
// Notes: Field order per tag is a wire contract; do not reorder.

package protocol

import (
	"encoding/binary"

	"github.com/mattn/go-runewidth"
)

// Tag discriminates draw-command records inside a batch buffer. Tag 0 is
// deliberately unassigned so a zeroed buffer never decodes as a valid record.
type Tag uint32

const (
	TagClearAll Tag = iota + 1
	TagClearBlock
	TagDeleteLines
	TagInsertLines
	TagDrawString
	TagDrawCursor
	TagDrawInvertedRect
	TagSetCursorPos
)

// DrawFlags is a bitmask of independent decoration hints attached to a glyph
// run. Flags are consumed by the rasterizer and never persisted.
type DrawFlags uint32

const (
	// FlagTransparent skips the background fill before painting the run.
	FlagTransparent DrawFlags = 1 << iota
	FlagBold
	FlagUnderline
	FlagUndercurl
	FlagItalic
	// FlagWide marks a run whose glyphs each occupy two adjacent cells.
	FlagWide
	// FlagCursor marks the run as being drawn under the insertion point.
	FlagCursor
)

// CursorShape selects how DrawCursor paints the insertion point.
type CursorShape int32

const (
	CursorBlock CursorShape = iota
	CursorHorizontalBar
	CursorVerticalBarLeft
	CursorVerticalBarRight
	CursorHollow
)

// Record is one decoded grid-mutation operation. The concrete types below are
// the only implementations.
type Record interface {
	tag() Tag
}

// ClearAll clears the entire surface to the default background color.
type ClearAll struct{}

// ClearBlock fills the inclusive cell rect (Row1,Col1)-(Row2,Col2).
type ClearBlock struct {
	Color                  uint32
	Row1, Col1, Row2, Col2 int32
}

// DeleteLines removes Count rows at Row inside the scroll region bounded by
// Bottom/Left/Right, shifting the rows below up and filling the exposed band
// at the bottom with Color.
type DeleteLines struct {
	Color                            uint32
	Row, Count, Bottom, Left, Right int32
}

// InsertLines is the exact mirror of DeleteLines: rows shift down and the
// exposed band at Row is filled with Color.
type InsertLines struct {
	Color                            uint32
	Row, Count, Bottom, Left, Right int32
}

// DrawString paints a glyph run of Cells cells starting at (Row,Col).
// Text is UTF-8; the Cells field is the displayed width in cells, which is
// independent of the encoded byte length.
type DrawString struct {
	Bg, Fg, Sp uint32
	Row, Col   int32
	Cells      int32
	Flags      DrawFlags
	Text       string
}

// DrawCursor paints the insertion point at (Row,Col). Percent scales bar
// thickness; thickness = ceil(dimension * Percent / 100).
type DrawCursor struct {
	Color    uint32
	Row, Col int32
	Shape    CursorShape
	Percent  int32
}

// DrawInvertedRect inverts a cell rect via a difference blend, used for
// visual selection without knowing the underlying colors. The trailing
// reserved field is carried but ignored.
type DrawInvertedRect struct {
	Row, Col, NumRows, NumCols int32
	Reserved                   int32
}

// SetCursorPos is an accessibility-position hint. The renderer consumes it
// without visual effect; it is reserved for a screen-reader bridge.
type SetCursorPos struct {
	Row, Col int32
}

func (ClearAll) tag() Tag         { return TagClearAll }
func (ClearBlock) tag() Tag       { return TagClearBlock }
func (DeleteLines) tag() Tag      { return TagDeleteLines }
func (InsertLines) tag() Tag      { return TagInsertLines }
func (DrawString) tag() Tag       { return TagDrawString }
func (DrawCursor) tag() Tag       { return TagDrawCursor }
func (DrawInvertedRect) tag() Tag { return TagDrawInvertedRect }
func (SetCursorPos) tag() Tag     { return TagSetCursorPos }

// CellCount returns the number of grid cells a string occupies, counting
// East-Asian wide runes as two cells.
func CellCount(text string) int32 {
	return int32(runewidth.StringWidth(text))
}

// BatchBuilder accumulates draw-command records into a flat batch buffer.
// Records are appended in native byte order, matching what the decoder
// expects from the paired core process.
type BatchBuilder struct {
	buf []byte
}

// Bytes returns the encoded batch. The slice aliases the builder's buffer.
func (b *BatchBuilder) Bytes() []byte { return b.buf }

// Len returns the current encoded size in bytes.
func (b *BatchBuilder) Len() int { return len(b.buf) }

// Reset discards all appended records, retaining the allocation.
func (b *BatchBuilder) Reset() { b.buf = b.buf[:0] }

func (b *BatchBuilder) u32(v uint32) {
	b.buf = binary.NativeEndian.AppendUint32(b.buf, v)
}

func (b *BatchBuilder) i32(v int32) {
	b.buf = binary.NativeEndian.AppendUint32(b.buf, uint32(v))
}

// ClearAll appends a ClearAll record.
func (b *BatchBuilder) ClearAll() {
	b.u32(uint32(TagClearAll))
}

// ClearBlock appends a ClearBlock record for the inclusive cell rect.
func (b *BatchBuilder) ClearBlock(color uint32, row1, col1, row2, col2 int32) {
	b.u32(uint32(TagClearBlock))
	b.u32(color)
	b.i32(row1)
	b.i32(col1)
	b.i32(row2)
	b.i32(col2)
}

// DeleteLines appends a DeleteLines record.
func (b *BatchBuilder) DeleteLines(color uint32, row, count, bottom, left, right int32) {
	b.u32(uint32(TagDeleteLines))
	b.u32(color)
	b.i32(row)
	b.i32(count)
	b.i32(bottom)
	b.i32(left)
	b.i32(right)
}

// InsertLines appends an InsertLines record.
func (b *BatchBuilder) InsertLines(color uint32, row, count, bottom, left, right int32) {
	b.u32(uint32(TagInsertLines))
	b.u32(color)
	b.i32(row)
	b.i32(count)
	b.i32(bottom)
	b.i32(left)
	b.i32(right)
}

// DrawString appends a DrawString record with an explicit cell count.
func (b *BatchBuilder) DrawString(bg, fg, sp uint32, row, col, cells int32, flags DrawFlags, text string) {
	b.u32(uint32(TagDrawString))
	b.u32(bg)
	b.u32(fg)
	b.u32(sp)
	b.i32(row)
	b.i32(col)
	b.i32(cells)
	b.u32(uint32(flags))
	b.i32(int32(len(text)))
	b.buf = append(b.buf, text...)
}

// DrawText appends a DrawString record, deriving the cell count from the
// text's display width.
func (b *BatchBuilder) DrawText(bg, fg, sp uint32, row, col int32, flags DrawFlags, text string) {
	b.DrawString(bg, fg, sp, row, col, CellCount(text), flags, text)
}

// DrawCursor appends a DrawCursor record.
func (b *BatchBuilder) DrawCursor(color uint32, row, col int32, shape CursorShape, percent int32) {
	b.u32(uint32(TagDrawCursor))
	b.u32(color)
	b.i32(row)
	b.i32(col)
	b.i32(int32(shape))
	b.i32(percent)
}

// DrawInvertedRect appends a DrawInvertedRect record.
func (b *BatchBuilder) DrawInvertedRect(row, col, nrows, ncols int32) {
	b.u32(uint32(TagDrawInvertedRect))
	b.i32(row)
	b.i32(col)
	b.i32(nrows)
	b.i32(ncols)
	b.i32(0) // reserved
}

// SetCursorPos appends a SetCursorPos record.
func (b *BatchBuilder) SetCursorPos(row, col int32) {
	b.u32(uint32(TagSetCursorPos))
	b.i32(row)
	b.i32(col)
}
