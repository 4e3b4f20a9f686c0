// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/decoder.go
// Summary: Single-pass streaming decoder for draw-command batches.
// Usage: The view walks one Decoder per inbound batch, applying records in stream order.
// Notes: There is no per-record length field; every record must be consumed
//        exactly or the cursor loses synchronization. On an unknown tag the
//        decoder stops for good; the record's shape is unknowable.

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnknownTag reports a tag the decoder has no layout for. Decoding
	// cannot continue past it.
	ErrUnknownTag = errors.New("protocol: unknown draw tag")
	// ErrShortRecord reports a batch that ends in the middle of a record.
	ErrShortRecord = errors.New("protocol: truncated draw record")
)

// Decoder reads draw-command records from a flat batch buffer. The zero
// value is empty; use NewDecoder.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a decoder positioned at the start of buf. The decoder
// borrows buf; callers must not mutate it while decoding.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// More reports whether any bytes remain. The buffer's own length is the only
// framing; More is the loop condition for a batch.
func (d *Decoder) More() bool { return d.off < len(d.buf) }

// Offset returns the current read position, for diagnostics.
func (d *Decoder) Offset() int { return d.off }

func (d *Decoder) u32() (uint32, bool) {
	if len(d.buf)-d.off < 4 {
		return 0, false
	}
	v := binary.NativeEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, true
}

func (d *Decoder) i32() (int32, bool) {
	v, ok := d.u32()
	return int32(v), ok
}

// ints reads n consecutive 32-bit fields into dst.
func (d *Decoder) ints(dst ...*int32) bool {
	for _, p := range dst {
		v, ok := d.i32()
		if !ok {
			return false
		}
		*p = v
	}
	return true
}

// Next decodes the record at the cursor. It returns ErrShortRecord when the
// buffer ends mid-record and a wrapped ErrUnknownTag when the leading tag is
// unrecognized; in both cases the cursor is left where decoding stopped and
// no further records can be read.
func (d *Decoder) Next() (Record, error) {
	start := d.off
	tag, ok := d.u32()
	if !ok {
		return nil, ErrShortRecord
	}

	switch Tag(tag) {
	case TagClearAll:
		return ClearAll{}, nil

	case TagClearBlock:
		var r ClearBlock
		color, ok := d.u32()
		if !ok || !d.ints(&r.Row1, &r.Col1, &r.Row2, &r.Col2) {
			return nil, d.short(start)
		}
		r.Color = color
		return r, nil

	case TagDeleteLines:
		var r DeleteLines
		color, ok := d.u32()
		if !ok || !d.ints(&r.Row, &r.Count, &r.Bottom, &r.Left, &r.Right) {
			return nil, d.short(start)
		}
		r.Color = color
		return r, nil

	case TagInsertLines:
		var r InsertLines
		color, ok := d.u32()
		if !ok || !d.ints(&r.Row, &r.Count, &r.Bottom, &r.Left, &r.Right) {
			return nil, d.short(start)
		}
		r.Color = color
		return r, nil

	case TagDrawString:
		var r DrawString
		var flags, length int32
		bg, ok1 := d.u32()
		fg, ok2 := d.u32()
		sp, ok3 := d.u32()
		if !ok1 || !ok2 || !ok3 || !d.ints(&r.Row, &r.Col, &r.Cells, &flags, &length) {
			return nil, d.short(start)
		}
		if length < 0 || len(d.buf)-d.off < int(length) {
			return nil, d.short(start)
		}
		r.Bg, r.Fg, r.Sp = bg, fg, sp
		r.Flags = DrawFlags(flags)
		r.Text = string(d.buf[d.off : d.off+int(length)])
		d.off += int(length)
		return r, nil

	case TagDrawCursor:
		var r DrawCursor
		var shape int32
		color, ok := d.u32()
		if !ok || !d.ints(&r.Row, &r.Col, &shape, &r.Percent) {
			return nil, d.short(start)
		}
		r.Color = color
		r.Shape = CursorShape(shape)
		return r, nil

	case TagDrawInvertedRect:
		var r DrawInvertedRect
		if !d.ints(&r.Row, &r.Col, &r.NumRows, &r.NumCols, &r.Reserved) {
			return nil, d.short(start)
		}
		return r, nil

	case TagSetCursorPos:
		var r SetCursorPos
		if !d.ints(&r.Row, &r.Col) {
			return nil, d.short(start)
		}
		return r, nil
	}

	// Rewind to the tag so Offset points at the unrecognized record.
	d.off = start
	return nil, fmt.Errorf("%w 0x%08x at offset %d", ErrUnknownTag, tag, start)
}

// short rewinds to the record start and reports a truncation.
func (d *Decoder) short(start int) error {
	d.off = start
	return ErrShortRecord
}
