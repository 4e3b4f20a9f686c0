// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glyph/face.go
// Summary: Font face loading and cell-size derivation.
// Usage: The view rebuilds the face whenever font or linespace config changes.
// Notes: Cell dimensions are clamped positive; everything downstream divides
//        by them.

package glyph

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/framegrace/vexel/grid"
)

// FaceConfig selects the font and the cell shaping parameters.
type FaceConfig struct {
	// TTF is raw OpenType/TrueType data. Nil selects the embedded Go Mono
	// face so the renderer works without any font files installed.
	TTF []byte
	// Size is the point size. Values <= 0 fall back to 12.
	Size float64
	// DPI defaults to 72.
	DPI float64
	// WidthScale multiplies the advance width when deriving the cell width.
	// Values <= 0 fall back to 1.
	WidthScale float64
	// Linespace is extra pixels added to the cell height.
	Linespace int
	// Antialias toggles hinting on the rasterizer. The opentype renderer is
	// always grayscale; this only controls glyph snapping.
	Antialias bool
}

// Face wraps a sized font face together with the derived cell geometry.
type Face struct {
	face   font.Face
	cell   grid.CellSize
	ascent int
}

// NewFace parses and sizes a font face per cfg.
func NewFace(cfg FaceConfig) (*Face, error) {
	data := cfg.TTF
	if data == nil {
		data = gomono.TTF
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("glyph: parse font: %w", err)
	}

	size := cfg.Size
	if size <= 0 {
		size = 12
	}
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = 72
	}
	hinting := font.HintingNone
	if cfg.Antialias {
		hinting = font.HintingFull
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: hinting,
	})
	if err != nil {
		return nil, fmt.Errorf("glyph: size font: %w", err)
	}

	scale := cfg.WidthScale
	if scale <= 0 {
		scale = 1
	}

	metrics := face.Metrics()
	advance, ok := face.GlyphAdvance('M')
	if !ok {
		advance = metrics.Height / 2
	}

	width := int(float64(advance.Ceil()) * scale)
	height := metrics.Height.Ceil() + cfg.Linespace
	f := &Face{
		face:   face,
		cell:   grid.CellSize{Width: max(width, 1), Height: max(height, 1)},
		ascent: metrics.Ascent.Ceil(),
	}
	return f, nil
}

// CellSize returns the derived cell extent in pixels. Both dimensions are
// always positive.
func (f *Face) CellSize() grid.CellSize { return f.cell }

// Ascent returns the baseline offset from the cell top.
func (f *Face) Ascent() int { return f.ascent }

// advanceFor returns the fixed-point advance for r, substituting the
// replacement glyph when the face has no coverage.
func (f *Face) advanceFor(r rune) (fixed.Int26_6, rune, bool) {
	if adv, ok := f.face.GlyphAdvance(r); ok {
		return adv, r, true
	}
	if adv, ok := f.face.GlyphAdvance('�'); ok {
		return adv, '�', true
	}
	return 0, r, false
}
