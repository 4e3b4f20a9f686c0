// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/preview/preview.go
// Summary: Terminal render target applying draw batches to a tcell screen.
// Usage: cmd/vexel-view uses it to inspect live or replayed sessions in a
//        terminal, without the pixel pipeline.
// Notes: Cell-granular sibling of view.View; same decode policy, one
//        Show() per batch.

package preview

import (
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/framegrace/vexel/protocol"
)

// Screen applies draw-command batches at cell granularity.
type Screen struct {
	scr      tcell.Screen
	defStyle tcell.Style
}

// New wraps an initialized tcell screen.
func New(scr tcell.Screen) *Screen {
	style := tcell.StyleDefault.
		Background(tcell.NewRGBColor(0x1c, 0x1c, 0x1c)).
		Foreground(tcell.NewRGBColor(0xe4, 0xe4, 0xe4))
	scr.SetStyle(style)
	return &Screen{scr: scr, defStyle: style}
}

// SetDefaultColors rebuilds the default style from packed wire colors.
func (p *Screen) SetDefaultColors(bg, fg uint32) {
	p.defStyle = tcell.StyleDefault.
		Background(colorFromPacked(bg)).
		Foreground(colorFromPacked(fg))
	p.scr.SetStyle(p.defStyle)
}

// colorFromPacked converts a packed 0xAARRGGBB wire color to a tcell color.
// The alpha byte is dropped; terminals have no alpha.
func colorFromPacked(v uint32) tcell.Color {
	return tcell.NewRGBColor(
		int32((v>>16)&0xFF),
		int32((v>>8)&0xFF),
		int32(v&0xFF),
	)
}

// ApplyBatch decodes one batch and applies it to the screen, then shows it.
// Decode policy matches the pixel view: stop on the first malformed or
// unknown record, keep what was applied.
func (p *Screen) ApplyBatch(buf []byte) {
	d := protocol.NewDecoder(buf)
	for d.More() {
		rec, err := d.Next()
		if err != nil {
			log.Printf("preview: stopping batch: %v", err)
			break
		}
		p.apply(rec)
	}
	p.scr.Show()
}

func (p *Screen) apply(rec protocol.Record) {
	switch r := rec.(type) {
	case protocol.ClearAll:
		p.scr.Fill(' ', p.defStyle)

	case protocol.ClearBlock:
		style := p.defStyle.Background(colorFromPacked(r.Color))
		p.fill(int(r.Col1), int(r.Row1), int(r.Col2), int(r.Row2), style)

	case protocol.DeleteLines:
		p.shiftRows(int(r.Row), int(r.Count), int(r.Bottom), int(r.Left), int(r.Right), -1, colorFromPacked(r.Color))

	case protocol.InsertLines:
		p.shiftRows(int(r.Row), int(r.Count), int(r.Bottom), int(r.Left), int(r.Right), 1, colorFromPacked(r.Color))

	case protocol.DrawString:
		p.drawString(r)

	case protocol.DrawCursor:
		p.scr.ShowCursor(int(r.Col), int(r.Row))

	case protocol.DrawInvertedRect:
		p.invert(int(r.Col), int(r.Row), int(r.NumCols), int(r.NumRows))

	case protocol.SetCursorPos:
		// Accessibility hint; nothing to show in a terminal.
	}
}

func (p *Screen) fill(x1, y1, x2, y2 int, style tcell.Style) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			p.scr.SetContent(x, y, ' ', nil, style)
		}
	}
}

// shiftRows moves the band below (dir<0, delete) or above (dir>0, insert)
// by count rows and fills the exposed band with fillColor.
func (p *Screen) shiftRows(row, count, bottom, left, right, dir int, fillColor tcell.Color) {
	if dir < 0 {
		for y := row; y <= bottom-count; y++ {
			p.copyRow(y+count, y, left, right)
		}
		p.fill(left, bottom-count+1, right, bottom, p.defStyle.Background(fillColor))
		return
	}
	for y := bottom; y >= row+count; y-- {
		p.copyRow(y-count, y, left, right)
	}
	p.fill(left, row, right, row+count-1, p.defStyle.Background(fillColor))
}

func (p *Screen) copyRow(srcY, dstY, left, right int) {
	for x := left; x <= right; x++ {
		ch, combining, style, _ := p.scr.GetContent(x, srcY)
		p.scr.SetContent(x, dstY, ch, combining, style)
	}
}

func (p *Screen) drawString(r protocol.DrawString) {
	style := p.defStyle.
		Foreground(colorFromPacked(r.Fg)).
		Bold(r.Flags&protocol.FlagBold != 0).
		Italic(r.Flags&protocol.FlagItalic != 0).
		Underline(r.Flags&protocol.FlagUnderline != 0 || r.Flags&protocol.FlagUndercurl != 0)
	if r.Flags&protocol.FlagTransparent == 0 {
		style = style.Background(colorFromPacked(r.Bg))
	}

	x := int(r.Col)
	for _, ch := range r.Text {
		p.scr.SetContent(x, int(r.Row), ch, nil, style)
		x += runewidth.RuneWidth(ch)
	}
}

func (p *Screen) invert(x1, y1, ncols, nrows int) {
	for y := y1; y < y1+nrows; y++ {
		for x := x1; x < x1+ncols; x++ {
			ch, combining, style, _ := p.scr.GetContent(x, y)
			_, _, attrs := style.Decompose()
			p.scr.SetContent(x, y, ch, combining, style.Reverse(attrs&tcell.AttrReverse == 0))
		}
	}
}
