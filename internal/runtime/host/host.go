// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/runtime/host/host.go
// Summary: Bridge between the editor-core socket and a render frontend.
// Usage: cmd/vexel-view runs one Bridge per connection; Run blocks until the
//        peer disconnects or says Bye.
// Notes: All frontend calls happen on the Run goroutine. That single
//        exclusive path is what lets the view and surface stay lock-free.

package host

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/framegrace/vexel/protocol"
)

// Frontend consumes inbound render commands. view.View and the terminal
// preview both satisfy it through thin adapters in cmd.
type Frontend interface {
	SetGridSize(rows, cols int)
	SetFont(protocol.SetFont)
	ApplyBatch(buf []byte)
}

// Tap observes every inbound frame before it is applied, e.g. the session
// recorder.
type Tap func(protocol.Header, []byte)

// Bridge pumps frames from one core connection into a frontend.
type Bridge struct {
	conn     net.Conn
	frontend Frontend
	tap      Tap

	writeMu sync.Mutex
	seq     uint64
}

// New creates a bridge for an accepted or dialed connection.
func New(conn net.Conn, frontend Frontend) *Bridge {
	return &Bridge{conn: conn, frontend: frontend}
}

// SetTap installs a frame observer. Must be called before Run.
func (b *Bridge) SetTap(tap Tap) { b.tap = tap }

// Run performs the handshake and then applies frames in arrival order until
// the connection closes. Batches are never interleaved or reordered: the
// loop finishes applying one frame before reading the next.
func (b *Bridge) Run(clientName string) error {
	if err := b.handshake(clientName); err != nil {
		return err
	}

	for {
		hdr, payload, err := protocol.ReadMessage(b.conn)
		if err != nil {
			if errors.Is(err, io.EOF) || isNetworkClosed(err) {
				return nil
			}
			return fmt.Errorf("host: read frame: %w", err)
		}
		if b.tap != nil {
			b.tap(hdr, payload)
		}
		if done := b.dispatch(hdr, payload); done {
			return nil
		}
	}
}

func (b *Bridge) handshake(clientName string) error {
	hdr, payload, err := protocol.ReadMessage(b.conn)
	if err != nil {
		return fmt.Errorf("host: read hello: %w", err)
	}
	if hdr.Type != protocol.MsgHello {
		return fmt.Errorf("host: expected hello, got type %d", hdr.Type)
	}
	hello, err := protocol.DecodeHello(payload)
	if err != nil {
		return fmt.Errorf("host: decode hello: %w", err)
	}
	log.Printf("host: core %q connected (caps 0x%x)", hello.CoreName, hello.Capabilities)

	welcome, err := protocol.EncodeWelcome(protocol.Welcome{ClientName: clientName})
	if err != nil {
		return fmt.Errorf("host: encode welcome: %w", err)
	}
	return b.send(protocol.MsgWelcome, welcome)
}

// dispatch applies one frame. It reports true when the peer said Bye.
func (b *Bridge) dispatch(hdr protocol.Header, payload []byte) bool {
	switch hdr.Type {
	case protocol.MsgSetGridSize:
		size, err := protocol.DecodeSetGridSize(payload)
		if err != nil {
			log.Printf("host: decode grid size failed: %v", err)
			return false
		}
		b.frontend.SetGridSize(int(size.Rows), int(size.Columns))

	case protocol.MsgSetFont:
		font, err := protocol.DecodeSetFont(payload)
		if err != nil {
			log.Printf("host: decode font failed: %v", err)
			return false
		}
		b.frontend.SetFont(font)

	case protocol.MsgDrawBatch:
		b.frontend.ApplyBatch(payload)

	case protocol.MsgPing:
		if err := b.send(protocol.MsgPong, payload); err != nil {
			log.Printf("host: send pong failed: %v", err)
		}

	case protocol.MsgBye:
		return true

	default:
		// Unknown frame types are skippable: the framing carries the
		// length, unlike draw records inside a batch.
		log.Printf("host: ignoring unknown frame type %d", hdr.Type)
	}
	return false
}

// NotifyFontChanged tells the core the user picked a different font.
func (b *Bridge) NotifyFontChanged(name string, size float64) error {
	payload, err := protocol.EncodeFontChanged(protocol.FontChanged{Name: name, Size: size})
	if err != nil {
		return fmt.Errorf("host: encode font change: %w", err)
	}
	return b.send(protocol.MsgFontChanged, payload)
}

func (b *Bridge) send(msgType protocol.MessageType, payload []byte) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.seq++
	return protocol.WriteMessage(b.conn, protocol.Header{
		Version:  protocol.Version,
		Type:     msgType,
		Flags:    protocol.FlagChecksum,
		Sequence: b.seq,
	}, payload)
}

func isNetworkClosed(err error) bool {
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// Server accepts core connections on a unix socket and runs one bridge per
// connection, sequentially: the renderer serves a single paired core at a
// time.
type Server struct {
	ln         net.Listener
	socketPath string
	clientName string
	frontend   func() Frontend
	tap        Tap

	mu     sync.Mutex
	active net.Conn
	closed bool
}

// Serve binds the socket, replacing any stale socket file from a previous
// run. The accept loop starts on Run.
func Serve(socketPath, clientName string, frontend func() Frontend, tap Tap) (*Server, error) {
	_ = os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("host: listen %s: %w", socketPath, err)
	}
	return &Server{
		ln:         ln,
		socketPath: socketPath,
		clientName: clientName,
		frontend:   frontend,
		tap:        tap,
	}, nil
}

// Run accepts and serves connections until Close.
func (s *Server) Run() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("host: accept failed: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if !s.setActive(conn) {
			conn.Close()
			return nil
		}
		bridge := New(conn, s.frontend())
		bridge.SetTap(s.tap)
		if err := bridge.Run(s.clientName); err != nil {
			log.Printf("host: session ended: %v", err)
		}
		s.clearActive(conn)
	}
}

// setActive registers the session connection so Close can interrupt it. It
// reports false when the server is already closed.
func (s *Server) setActive(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.active = conn
	return true
}

func (s *Server) clearActive(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == conn {
		s.active = nil
	}
	conn.Close()
}

// Close stops the accept loop, interrupts any in-flight session read, and
// removes the socket file.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	active := s.active
	s.active = nil
	s.mu.Unlock()

	err := s.ln.Close()
	if active != nil {
		active.Close()
	}
	_ = os.Remove(s.socketPath)
	return err
}
