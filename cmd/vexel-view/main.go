// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/vexel-view/main.go
// Summary: Terminal viewer for live or journaled render sessions.
// Usage: Run `vexel-view` to serve the render socket, `-record` to journal
//        the session, `-replay <file>` to play a journal back.

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/framegrace/vexel/config"
	"github.com/framegrace/vexel/internal/preview"
	"github.com/framegrace/vexel/internal/recorder"
	"github.com/framegrace/vexel/internal/runtime/host"
	"github.com/framegrace/vexel/protocol"
)

const clientName = "vexel-view"

// maxReplayGap caps pacing between journaled frames so idle recordings do
// not stall playback.
const maxReplayGap = 250 * time.Millisecond

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet(clientName, flag.ContinueOnError)
	socketPath := fs.String("socket", "", "Unix socket path (default: from config)")
	dial := fs.Bool("dial", false, "Connect to an existing socket instead of serving one")
	recordPath := fs.String("record", "", "Journal inbound frames to a SQLite file")
	replayPath := fs.String("replay", "", "Replay a journaled session instead of serving")
	instant := fs.Bool("instant", false, "Replay without pacing")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("%s needs a terminal", clientName)
	}

	if err := config.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed, using defaults: %v\n", err)
	}
	settings := config.Load()
	if *socketPath == "" {
		*socketPath = settings.SocketPath
	}

	// tcell owns the terminal from here on; logs go to a file.
	restoreLog, err := redirectLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging unavailable: %v\n", err)
	} else {
		defer restoreLog()
	}

	scr, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := scr.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer scr.Fini()

	target := preview.New(scr)
	target.SetDefaultColors(settings.PackedBackground(), settings.PackedForeground())

	if *replayPath != "" {
		return replay(scr, target, *replayPath, *instant)
	}
	if *dial {
		return connect(scr, target, *socketPath, *recordPath)
	}
	return serve(scr, target, *socketPath, *recordPath)
}

// redirectLog points the standard logger at a per-run file under the config
// log directory.
func redirectLog() (func(), error) {
	dir, err := config.LogDir()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, clientName+".log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

// previewFrontend adapts the terminal target to the host bridge. Grid and
// font changes are meaningless in a terminal and are dropped.
type previewFrontend struct {
	target *preview.Screen
}

func (f *previewFrontend) SetGridSize(rows, cols int) {}
func (f *previewFrontend) SetFont(protocol.SetFont)   {}
func (f *previewFrontend) ApplyBatch(buf []byte)      { f.target.ApplyBatch(buf) }

// journalTap opens the journal and returns a tap writing to it, or a nil tap
// when no journal was requested.
func journalTap(recordPath string) (host.Tap, func(), error) {
	if recordPath == "" {
		return nil, func() {}, nil
	}
	journal, err := recorder.Open(recordPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	tap := func(hdr protocol.Header, payload []byte) {
		if err := journal.Record(hdr, payload); err != nil {
			log.Printf("journal write failed: %v", err)
		}
	}
	return tap, func() { journal.Close() }, nil
}

func serve(scr tcell.Screen, target *preview.Screen, socketPath, recordPath string) error {
	tap, closeJournal, err := journalTap(recordPath)
	if err != nil {
		return err
	}
	defer closeJournal()

	srv, err := host.Serve(socketPath, clientName, func() host.Frontend {
		return &previewFrontend{target: target}
	}, tap)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	// The event loop runs until the user quits, then closing the server
	// unblocks Run.
	waitForQuit(scr)
	srv.Close()
	return <-done
}

// connect dials a socket the core already serves, reversing who listens.
func connect(scr tcell.Screen, target *preview.Screen, socketPath, recordPath string) error {
	tap, closeJournal, err := journalTap(recordPath)
	if err != nil {
		return err
	}
	defer closeJournal()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("dial %s: %w", socketPath, err)
	}
	defer conn.Close()

	bridge := host.New(conn, &previewFrontend{target: target})
	bridge.SetTap(tap)
	done := make(chan error, 1)
	go func() { done <- bridge.Run(clientName) }()

	waitForQuit(scr)
	conn.Close()
	return <-done
}

// batchApplier is the slice of the preview target the player needs.
type batchApplier interface {
	ApplyBatch(buf []byte)
}

// errReplayStopped cancels an in-flight journal playback.
var errReplayStopped = errors.New("replay stopped")

// playJournal streams journaled batches into target, pacing by the recorded
// timestamps unless instant. Closing stop ends playback before the next
// frame; the target is never touched after playJournal returns.
func playJournal(target batchApplier, path string, instant bool, stop <-chan struct{}) error {
	var prev time.Time
	err := recorder.Replay(path, func(f recorder.Frame) error {
		if !instant && !prev.IsZero() {
			gap := f.Recorded.Sub(prev)
			if gap > maxReplayGap {
				gap = maxReplayGap
			}
			if gap > 0 {
				select {
				case <-stop:
					return errReplayStopped
				case <-time.After(gap):
				}
			}
		}
		select {
		case <-stop:
			return errReplayStopped
		default:
		}
		prev = f.Recorded
		if f.Type == protocol.MsgDrawBatch {
			target.ApplyBatch(f.Payload)
		}
		return nil
	})
	if errors.Is(err, errReplayStopped) {
		return nil
	}
	return err
}

func replay(scr tcell.Screen, target *preview.Screen, path string, instant bool) error {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := playJournal(target, path, instant, stop); err != nil {
			log.Printf("replay failed: %v", err)
		}
	}()

	// Wait for the playback goroutine before returning: the screen is
	// finalized right after, and the player must not paint past that.
	waitForQuit(scr)
	close(stop)
	<-done
	return nil
}

// waitForQuit consumes terminal events until Escape, 'q' or Ctrl-C.
func waitForQuit(scr tcell.Screen) {
	for {
		switch ev := scr.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				return
			}
		case *tcell.EventResize:
			scr.Sync()
		case nil:
			return
		}
	}
}
