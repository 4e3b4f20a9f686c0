// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package recorder

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/framegrace/vexel/protocol"
)

func TestRecordReplayRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	rec, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var b protocol.BatchBuilder
	b.ClearAll()
	b.SetCursorPos(3, 4)
	frames := []struct {
		hdr     protocol.Header
		payload []byte
	}{
		{protocol.Header{Type: protocol.MsgSetGridSize, Sequence: 1}, []byte{24, 0, 80, 0}},
		{protocol.Header{Type: protocol.MsgDrawBatch, Sequence: 2}, b.Bytes()},
		{protocol.Header{Type: protocol.MsgDrawBatch, Sequence: 3}, nil},
	}
	for _, f := range frames {
		if err := rec.Record(f.hdr, f.payload); err != nil {
			t.Fatalf("record seq %d: %v", f.hdr.Sequence, err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []Frame
	if err := Replay(path, func(f Frame) error {
		got = append(got, f)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(got) != len(frames) {
		t.Fatalf("replayed %d frames, want %d", len(got), len(frames))
	}
	for i, f := range frames {
		if got[i].Type != f.hdr.Type || got[i].Sequence != f.hdr.Sequence {
			t.Fatalf("frame %d header mismatch: %+v", i, got[i])
		}
		if !bytes.Equal(got[i].Payload, f.payload) {
			t.Fatalf("frame %d payload mismatch", i)
		}
	}
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	rec, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for seq := uint64(1); seq <= 3; seq++ {
		if err := rec.Record(protocol.Header{Type: protocol.MsgPing, Sequence: seq}, nil); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	rec.Close()

	stop := errors.New("stop")
	seen := 0
	err = Replay(path, func(Frame) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if seen != 2 {
		t.Fatalf("replay should stop at the failing frame, saw %d", seen)
	}
}
