// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func TestBatchRoundTrip(t *testing.T) {
	var b BatchBuilder
	b.ClearAll()
	b.ClearBlock(0xFF202020, 1, 2, 3, 4)
	b.DeleteLines(0xFF000000, 2, 1, 9, 0, 79)
	b.InsertLines(0xFF000000, 2, 1, 9, 0, 79)
	b.DrawString(0xFF101010, 0xFFDDDDDD, 0xFFFF0000, 5, 10, 5, FlagBold|FlagUnderline, "hello")
	b.DrawCursor(0xFF00FF00, 7, 3, CursorVerticalBarLeft, 25)
	b.DrawInvertedRect(0, 0, 2, 4)
	b.SetCursorPos(12, 40)

	want := []Record{
		ClearAll{},
		ClearBlock{Color: 0xFF202020, Row1: 1, Col1: 2, Row2: 3, Col2: 4},
		DeleteLines{Color: 0xFF000000, Row: 2, Count: 1, Bottom: 9, Left: 0, Right: 79},
		InsertLines{Color: 0xFF000000, Row: 2, Count: 1, Bottom: 9, Left: 0, Right: 79},
		DrawString{Bg: 0xFF101010, Fg: 0xFFDDDDDD, Sp: 0xFFFF0000, Row: 5, Col: 10, Cells: 5, Flags: FlagBold | FlagUnderline, Text: "hello"},
		DrawCursor{Color: 0xFF00FF00, Row: 7, Col: 3, Shape: CursorVerticalBarLeft, Percent: 25},
		DrawInvertedRect{Row: 0, Col: 0, NumRows: 2, NumCols: 4},
		SetCursorPos{Row: 12, Col: 40},
	}

	d := NewDecoder(b.Bytes())
	var got []Record
	for d.More() {
		rec, err := d.Next()
		if err != nil {
			t.Fatalf("decode failed at offset %d: %v", d.Offset(), err)
		}
		got = append(got, rec)
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("decoded records mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestDrawTextCellsIndependentOfByteLength(t *testing.T) {
	// Multi-byte code points: 3 runes, 5 cells (two wide CJK + one ASCII),
	// but 7 encoded bytes.
	text := "日本x"
	var b BatchBuilder
	b.DrawText(0, 0xFFFFFFFF, 0, 0, 0, 0, text)

	d := NewDecoder(b.Bytes())
	rec, err := d.Next()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	ds, ok := rec.(DrawString)
	if !ok {
		t.Fatalf("expected DrawString, got %T", rec)
	}
	if ds.Text != text {
		t.Fatalf("text mismatch: %q vs %q", ds.Text, text)
	}
	if ds.Cells != 5 {
		t.Fatalf("expected 5 cells, got %d", ds.Cells)
	}
	if len(ds.Text) == int(ds.Cells) {
		t.Fatalf("test should exercise cells != byte length")
	}
}

func TestUnknownTagStopsDecoding(t *testing.T) {
	var b BatchBuilder
	b.ClearAll()
	b.SetCursorPos(1, 1)
	b.ClearBlock(0, 0, 0, 1, 1)
	okLen := b.Len()
	b.u32(0xFFFFFFFF) // unrecognized tag
	b.SetCursorPos(9, 9)

	d := NewDecoder(b.Bytes())
	for i := 0; i < 3; i++ {
		if _, err := d.Next(); err != nil {
			t.Fatalf("record %d failed: %v", i, err)
		}
	}
	_, err := d.Next()
	if !errors.Is(err, ErrUnknownTag) {
		t.Fatalf("expected ErrUnknownTag, got %v", err)
	}
	if d.Offset() != okLen {
		t.Fatalf("cursor should stop at the unknown tag: offset %d, want %d", d.Offset(), okLen)
	}
}

func TestTruncatedRecord(t *testing.T) {
	var b BatchBuilder
	b.DrawCursor(0xFF00FF00, 7, 3, CursorBlock, 100)

	for _, cut := range []int{1, 4, 5, 12, b.Len() - 1} {
		d := NewDecoder(b.Bytes()[:cut])
		if _, err := d.Next(); !errors.Is(err, ErrShortRecord) {
			t.Fatalf("cut=%d: expected ErrShortRecord, got %v", cut, err)
		}
	}
}

func TestTruncatedDrawStringText(t *testing.T) {
	var b BatchBuilder
	b.DrawText(0, 0, 0, 0, 0, 0, "truncated")

	d := NewDecoder(b.Bytes()[:b.Len()-3])
	if _, err := d.Next(); !errors.Is(err, ErrShortRecord) {
		t.Fatalf("expected ErrShortRecord, got %v", err)
	}
}

func TestEmptyBatch(t *testing.T) {
	d := NewDecoder(nil)
	if d.More() {
		t.Fatalf("empty batch should report no more records")
	}
}

func TestBuilderReset(t *testing.T) {
	var b BatchBuilder
	b.ClearAll()
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("expected empty builder after reset, got %d bytes", b.Len())
	}
	b.SetCursorPos(1, 2)
	d := NewDecoder(b.Bytes())
	rec, err := d.Next()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rec != (SetCursorPos{Row: 1, Col: 2}) {
		t.Fatalf("unexpected record %#v", rec)
	}
	if d.More() {
		t.Fatalf("stale records survived the reset")
	}
}
