// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/vexel-render/highlight.go
// Summary: Source tokenization and draw-batch synthesis for the offline renderer.

package main

import (
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-enry/go-enry/v2"

	"github.com/framegrace/vexel/grid"
	"github.com/framegrace/vexel/protocol"
)

const defaultStyleName = "catppuccin-mocha"

// styleFor resolves a style name, falling back to the default. styles.Get
// never returns nil; unknown names resolve to the swapoff fallback.
func styleFor(name string) *chroma.Style {
	if name == "" {
		name = defaultStyleName
	}
	return styles.Get(name)
}

// lexerFor picks a lexer for the file. An explicit language name wins, then
// enry's detection over filename and content, then chroma's own analysis.
func lexerFor(path string, content []byte, language string) chroma.Lexer {
	if language != "" {
		if l := lexers.Get(language); l != nil {
			return chroma.Coalesce(l)
		}
	}
	if lang := enry.GetLanguage(filepath.Base(path), content); lang != "" {
		if l := lexers.Get(lang); l != nil {
			return chroma.Coalesce(l)
		}
	}
	if l := lexers.Match(filepath.Base(path)); l != nil {
		return chroma.Coalesce(l)
	}
	if l := lexers.Analyse(string(content)); l != nil {
		return chroma.Coalesce(l)
	}
	return lexers.Fallback
}

// packColour converts a chroma colour to the packed opaque wire format.
func packColour(c chroma.Colour, fallback uint32) uint32 {
	if !c.IsSet() {
		return fallback
	}
	return 0xFF000000 | uint32(c.Red())<<16 | uint32(c.Green())<<8 | uint32(c.Blue())
}

// tokenFlags maps style attributes to run decoration flags. The page
// background comes from ClearAll, so every run paints transparent.
func tokenFlags(entry chroma.StyleEntry) protocol.DrawFlags {
	flags := protocol.FlagTransparent
	if entry.Bold == chroma.Yes {
		flags |= protocol.FlagBold
	}
	if entry.Italic == chroma.Yes {
		flags |= protocol.FlagItalic
	}
	if entry.Underline == chroma.Yes {
		flags |= protocol.FlagUnderline
	}
	return flags
}

// renderTokens encodes the token stream as one draw batch and reports the
// grid extent it occupies. maxCols > 0 clips lines at that column; tab stops
// are every tabWidth cells.
func renderTokens(b *protocol.BatchBuilder, tokens []chroma.Token, style *chroma.Style, maxCols int) grid.Size {
	const tabWidth = 8

	baseFg := packColour(style.Get(chroma.Text).Colour, 0xFFE4E4E4)
	b.ClearAll()

	var row, col, widest int32
	emit := func(text string, fg uint32, flags protocol.DrawFlags) {
		cells := protocol.CellCount(text)
		if cells == 0 {
			return
		}
		if maxCols > 0 && col >= int32(maxCols) {
			return
		}
		b.DrawText(0, fg, 0, row, col, flags, text)
		col += cells
		if col > widest {
			widest = col
		}
	}

	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		entry := style.Get(tok.Type)
		fg := packColour(entry.Colour, baseFg)
		flags := tokenFlags(entry)

		start := 0
		for i, r := range tok.Value {
			switch r {
			case '\n':
				emit(tok.Value[start:i], fg, flags)
				row++
				col = 0
				start = i + 1
			case '\t':
				emit(tok.Value[start:i], fg, flags)
				col += tabWidth - col%tabWidth
				start = i + 1
			}
		}
		emit(tok.Value[start:], fg, flags)
	}

	rows := int(row) + 1
	if col == 0 && row > 0 {
		// Trailing newline: the final empty row is not part of the page.
		rows = int(row)
	}
	cols := int(widest)
	if maxCols > 0 && cols > maxCols {
		cols = maxCols
	}
	if cols < 1 {
		cols = 1
	}
	return grid.Size{Rows: rows, Columns: cols}
}
