// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package host

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/framegrace/vexel/protocol"
)

type call struct {
	kind    string
	rows    int
	cols    int
	font    protocol.SetFont
	payload []byte
}

type recordingFrontend struct {
	mu    sync.Mutex
	calls []call
}

func (f *recordingFrontend) add(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *recordingFrontend) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call{}, f.calls...)
}

func (f *recordingFrontend) SetGridSize(rows, cols int) {
	f.add(call{kind: "grid", rows: rows, cols: cols})
}

func (f *recordingFrontend) SetFont(font protocol.SetFont) {
	f.add(call{kind: "font", font: font})
}

func (f *recordingFrontend) ApplyBatch(buf []byte) {
	f.add(call{kind: "batch", payload: append([]byte{}, buf...)})
}

func sendFrame(t *testing.T, conn net.Conn, msgType protocol.MessageType, seq uint64, payload []byte) {
	t.Helper()
	err := protocol.WriteMessage(conn, protocol.Header{
		Version:  protocol.Version,
		Type:     msgType,
		Flags:    protocol.FlagChecksum,
		Sequence: seq,
	}, payload)
	if err != nil {
		t.Fatalf("write frame type %d: %v", msgType, err)
	}
}

func startBridge(t *testing.T, frontend Frontend, tap Tap) (net.Conn, chan error) {
	t.Helper()
	core, client := net.Pipe()
	t.Cleanup(func() {
		core.Close()
		client.Close()
	})

	bridge := New(client, frontend)
	if tap != nil {
		bridge.SetTap(tap)
	}
	done := make(chan error, 1)
	go func() { done <- bridge.Run("vexel-test") }()
	return core, done
}

func performHello(t *testing.T, core net.Conn) {
	t.Helper()
	hello, err := protocol.EncodeHello(protocol.Hello{CoreName: "core-test", Capabilities: 0x1})
	if err != nil {
		t.Fatalf("encode hello: %v", err)
	}
	sendFrame(t, core, protocol.MsgHello, 1, hello)

	hdr, payload, err := protocol.ReadMessage(core)
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if hdr.Type != protocol.MsgWelcome {
		t.Fatalf("expected welcome, got type %d", hdr.Type)
	}
	welcome, err := protocol.DecodeWelcome(payload)
	if err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.ClientName != "vexel-test" {
		t.Fatalf("welcome client name = %q", welcome.ClientName)
	}
}

func waitDone(t *testing.T, done chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("bridge did not terminate")
		return nil
	}
}

func TestBridgeAppliesFramesInOrder(t *testing.T) {
	frontend := &recordingFrontend{}
	core, done := startBridge(t, frontend, nil)
	performHello(t, core)

	size, _ := protocol.EncodeSetGridSize(protocol.SetGridSize{Rows: 24, Columns: 80})
	sendFrame(t, core, protocol.MsgSetGridSize, 2, size)

	font, _ := protocol.EncodeSetFont(protocol.SetFont{Name: "Go Mono", Size: 13, WidthScale: 1, Antialias: true})
	sendFrame(t, core, protocol.MsgSetFont, 3, font)

	var b protocol.BatchBuilder
	b.ClearAll()
	sendFrame(t, core, protocol.MsgDrawBatch, 4, b.Bytes())

	sendFrame(t, core, protocol.MsgBye, 5, nil)
	if err := waitDone(t, done); err != nil {
		t.Fatalf("run: %v", err)
	}

	calls := frontend.snapshot()
	if len(calls) != 3 {
		t.Fatalf("got %d frontend calls, want 3", len(calls))
	}
	if calls[0].kind != "grid" || calls[0].rows != 24 || calls[0].cols != 80 {
		t.Fatalf("first call = %+v", calls[0])
	}
	if calls[1].kind != "font" || calls[1].font.Name != "Go Mono" {
		t.Fatalf("second call = %+v", calls[1])
	}
	if calls[2].kind != "batch" || !bytes.Equal(calls[2].payload, b.Bytes()) {
		t.Fatalf("third call = %+v", calls[2])
	}
}

func TestBridgeRepliesToPing(t *testing.T) {
	core, done := startBridge(t, &recordingFrontend{}, nil)
	performHello(t, core)

	sendFrame(t, core, protocol.MsgPing, 2, []byte{0xAB, 0xCD})

	hdr, payload, err := protocol.ReadMessage(core)
	if err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if hdr.Type != protocol.MsgPong {
		t.Fatalf("expected pong, got type %d", hdr.Type)
	}
	if !bytes.Equal(payload, []byte{0xAB, 0xCD}) {
		t.Fatalf("pong should echo the ping payload, got %x", payload)
	}

	sendFrame(t, core, protocol.MsgBye, 3, nil)
	if err := waitDone(t, done); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestBridgeTapSeesEveryFrame(t *testing.T) {
	var tapped []protocol.MessageType
	tap := func(hdr protocol.Header, _ []byte) {
		tapped = append(tapped, hdr.Type)
	}
	core, done := startBridge(t, &recordingFrontend{}, tap)
	performHello(t, core)

	var b protocol.BatchBuilder
	b.SetCursorPos(1, 2)
	sendFrame(t, core, protocol.MsgDrawBatch, 2, b.Bytes())
	sendFrame(t, core, protocol.MsgBye, 3, nil)
	if err := waitDone(t, done); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []protocol.MessageType{protocol.MsgDrawBatch, protocol.MsgBye}
	if len(tapped) != len(want) {
		t.Fatalf("tap saw %v, want %v", tapped, want)
	}
	for i, mt := range want {
		if tapped[i] != mt {
			t.Fatalf("tap order %v, want %v", tapped, want)
		}
	}
}

func TestBridgeRejectsNonHelloFirstFrame(t *testing.T) {
	core, done := startBridge(t, &recordingFrontend{}, nil)

	sendFrame(t, core, protocol.MsgPing, 1, nil)
	if err := waitDone(t, done); err == nil {
		t.Fatalf("expected handshake error")
	}
}

func TestServerServesSocketSession(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "vexel.sock")
	frontend := &recordingFrontend{}

	srv, err := Serve(socket, "vexel-test", func() Frontend { return frontend }, nil)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	conn, err := net.Dial("unix", socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	performHello(t, conn)

	var b protocol.BatchBuilder
	b.ClearAll()
	sendFrame(t, conn, protocol.MsgDrawBatch, 2, b.Bytes())
	sendFrame(t, conn, protocol.MsgBye, 3, nil)

	// Bye ends the session; the server keeps accepting until Close.
	deadline := time.Now().Add(2 * time.Second)
	for len(frontend.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	calls := frontend.snapshot()
	if len(calls) != 1 || calls[0].kind != "batch" {
		t.Fatalf("frontend calls = %+v", calls)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatalf("run after close: %v", err)
	}
	if _, err := os.Stat(socket); !os.IsNotExist(err) {
		t.Fatalf("socket file should be removed on close")
	}
}

func TestServerCloseEndsActiveSession(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "vexel.sock")
	frontend := &recordingFrontend{}

	srv, err := Serve(socket, "vexel-test", func() Frontend { return frontend }, nil)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	conn, err := net.Dial("unix", socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	performHello(t, conn)

	// The core stays connected and idle; Close must still interrupt the
	// session read and let Run return.
	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := waitDone(t, done); err != nil {
		t.Fatalf("run after close: %v", err)
	}
}

func TestBridgeStopsOnPeerClose(t *testing.T) {
	core, done := startBridge(t, &recordingFrontend{}, nil)
	performHello(t, core)

	core.Close()
	if err := waitDone(t, done); err != nil {
		t.Fatalf("close should end the session cleanly, got %v", err)
	}
}
