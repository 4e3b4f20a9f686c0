// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glyph/raster.go
// Summary: Pixel rasterizer implementing Painter over an x/image font face.
// Usage: Default Painter for the off-screen surface; one per view, not
//        concurrency-safe (all painting happens on the apply goroutine).
// Notes: Bold and italic are synthesized at render time; no font variants
//        are loaded. Ligatures never form because every rune is placed on
//        its own cell boundary.

package glyph

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/framegrace/vexel/protocol"
)

// italicShearDivisor controls the synthetic slant: each scratch row shifts
// right by (rowsBelow / italicShearDivisor) pixels.
const italicShearDivisor = 4

// FaceRasterizer paints glyph runs with a Face. It reuses one scratch image
// across calls for the italic shear pass.
type FaceRasterizer struct {
	face    *Face
	scratch *image.RGBA
}

// NewRasterizer returns a rasterizer over face.
func NewRasterizer(face *Face) *FaceRasterizer {
	return &FaceRasterizer{face: face}
}

// SetFace swaps the active face, e.g. after a font change notification.
func (p *FaceRasterizer) SetFace(face *Face) { p.face = face }

// DrawRun implements Painter.
func (p *FaceRasterizer) DrawRun(dst *image.RGBA, rect image.Rectangle, text string, flags protocol.DrawFlags, fg, bg, sp color.RGBA) {
	if flags&protocol.FlagTransparent == 0 {
		// The transparent flag's background nuance beyond skipping this
		// fill is deliberately not modeled.
		draw.Draw(dst, rect, image.NewUniform(bg), image.Point{}, draw.Src)
	}
	if p.face == nil {
		// Fail closed: background only, never a partial glyph pass.
		return
	}

	if flags&protocol.FlagItalic != 0 {
		p.drawItalic(dst, rect, text, flags, fg)
	} else {
		p.drawGlyphs(dst, rect.Min, rect, text, flags, fg)
	}

	if flags&protocol.FlagUnderline != 0 {
		line := image.Rect(rect.Min.X, rect.Max.Y-2, rect.Max.X, rect.Max.Y-1)
		draw.Draw(dst, line, image.NewUniform(fg), image.Point{}, draw.Src)
	}
	if flags&protocol.FlagUndercurl != 0 {
		p.drawUndercurl(dst, rect, sp)
	}
}

// drawGlyphs places each rune at a fixed cell boundary inside clip, starting
// at origin. Wide runs advance two cells per glyph.
func (p *FaceRasterizer) drawGlyphs(dst draw.Image, origin image.Point, clip image.Rectangle, text string, flags protocol.DrawFlags, fg color.RGBA) {
	cellW := p.face.cell.Width
	if flags&protocol.FlagWide != 0 {
		cellW *= 2
	}

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: p.face.face,
	}

	x := origin.X
	baseline := origin.Y + p.face.ascent
	for _, r := range text {
		if x >= clip.Max.X {
			break
		}
		_, glyphRune, ok := p.face.advanceFor(r)
		if !ok {
			x += cellW
			continue
		}
		d.Dot = fixed.P(x, baseline)
		d.DrawString(string(glyphRune))
		if flags&protocol.FlagBold != 0 {
			// Synthetic bold: double strike one pixel right.
			d.Dot = fixed.P(x+1, baseline)
			d.DrawString(string(glyphRune))
		}
		x += cellW
	}
}

// drawItalic renders the run into a scratch buffer and blits it with a
// per-row shear, approximating an oblique face.
func (p *FaceRasterizer) drawItalic(dst *image.RGBA, rect image.Rectangle, text string, flags protocol.DrawFlags, fg color.RGBA) {
	maxShift := rect.Dy() / italicShearDivisor
	w := rect.Dx() + maxShift
	h := rect.Dy()
	if p.scratch == nil || p.scratch.Bounds().Dx() < w || p.scratch.Bounds().Dy() < h {
		p.scratch = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	clear := image.Rect(0, 0, w, h)
	draw.Draw(p.scratch, clear, image.Transparent, image.Point{}, draw.Src)

	p.drawGlyphs(p.scratch, image.Point{}, clear, text, flags, fg)

	for y := 0; y < h; y++ {
		shift := (h - 1 - y) / italicShearDivisor
		dstRow := image.Rect(rect.Min.X+shift, rect.Min.Y+y, rect.Max.X+shift, rect.Min.Y+y+1)
		dstRow = dstRow.Intersect(dst.Bounds())
		draw.Draw(dst, dstRow, p.scratch, image.Point{X: 0, Y: y}, draw.Over)
	}
}

// drawUndercurl paints alternating 2x2 dots spaced 2 pixels apart along the
// baseline region, a low-fidelity stand-in for a real curl.
func (p *FaceRasterizer) drawUndercurl(dst *image.RGBA, rect image.Rectangle, sp color.RGBA) {
	top := rect.Max.Y - 3
	uniform := image.NewUniform(sp)
	for x := rect.Min.X; x+2 <= rect.Max.X; x += 4 {
		dot := image.Rect(x, top, x+2, top+2)
		draw.Draw(dst, dot, uniform, image.Point{}, draw.Src)
	}
}
