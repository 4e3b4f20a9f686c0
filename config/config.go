// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Render settings store for vexel (vexel.json).
// Usage: Cmds load settings at startup; changes from the host are saved back.

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

const configName = "vexel.json"

// Settings holds everything that feeds cell-size and color computation.
// All fields are recomputation triggers for the view's metrics.
type Settings struct {
	// FontName is a display name reported back to the core on font change.
	// An empty name selects the embedded Go Mono face.
	FontName string `json:"font_name"`
	FontSize float64 `json:"font_size"`
	// WidthScale multiplies the font advance when deriving the cell width.
	WidthScale float64 `json:"width_scale"`
	// Linespace is extra pixels added to each line.
	Linespace int  `json:"linespace"`
	Antialias bool `json:"antialias"`

	// Colors are "#RRGGBB" strings in the file, packed for the wire.
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Special    string `json:"special"`

	// SocketPath is where the editor core connects.
	SocketPath string `json:"socket_path"`
}

// Default returns the settings used when no config file exists or a field
// is missing.
func Default() Settings {
	return Settings{
		FontSize:   12,
		WidthScale: 1,
		Antialias:  true,
		Background: "#1c1c1c",
		Foreground: "#e4e4e4",
		Special:    "#ff5f5f",
		SocketPath: defaultSocketPath(),
	}
}

var (
	mu      sync.RWMutex
	once    sync.Once
	current Settings
	loadErr error
)

// Err returns the most recent load error.
func Err() error {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return loadErr
}

// Load returns the active settings, reading the config file on first use.
func Load() Settings {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set replaces the in-memory settings.
func Set(s Settings) {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	current = s.normalized()
}

// Save persists the active settings to disk.
func Save() error {
	once.Do(initStore)
	mu.RLock()
	s := current
	mu.RUnlock()

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Reload re-reads the config file.
func Reload() error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	loadErr = loadLocked()
	return loadErr
}

func initStore() {
	mu.Lock()
	defer mu.Unlock()
	loadErr = loadLocked()
}

func loadLocked() error {
	current = Default()
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	current = s.normalized()
	return nil
}

// normalized clamps degenerate values so downstream geometry never divides
// by zero.
func (s Settings) normalized() Settings {
	if s.FontSize <= 0 {
		s.FontSize = Default().FontSize
	}
	if s.WidthScale <= 0 {
		s.WidthScale = 1
	}
	if s.Linespace < 0 {
		s.Linespace = 0
	}
	if s.SocketPath == "" {
		s.SocketPath = defaultSocketPath()
	}
	return s
}

// PackColor parses a "#RRGGBB" string into a packed opaque 0xFFRRGGBB
// value. Malformed strings fall back to fallback.
func PackColor(value string, fallback uint32) uint32 {
	if len(value) == 7 && value[0] == '#' {
		if rgb, err := strconv.ParseUint(value[1:], 16, 32); err == nil {
			return 0xFF000000 | uint32(rgb)
		}
	}
	return fallback
}

// PackedBackground returns the background as a wire color.
func (s Settings) PackedBackground() uint32 { return PackColor(s.Background, 0xFF1C1C1C) }

// PackedForeground returns the foreground as a wire color.
func (s Settings) PackedForeground() uint32 { return PackColor(s.Foreground, 0xFFE4E4E4) }

// PackedSpecial returns the decoration color as a wire color.
func (s Settings) PackedSpecial() uint32 { return PackColor(s.Special, 0xFFFF5F5F) }
