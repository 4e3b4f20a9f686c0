// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: surface/surface.go
// Summary: Off-screen RGBA pixel buffer backing the character grid.
// Usage: Owned by the view; the decoder borrows it for one batch via Batch().
// Notes: No internal clipping. Callers pass in-bounds rects; the producer is
//        a trusted paired process, not adversarial input.

package surface

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
)

// ErrBatchInProgress reports a nested Batch call. The surface supports one
// drawing bracket at a time.
var ErrBatchInProgress = errors.New("surface: batch already in progress")

// Surface owns the off-screen pixel buffer. Stale buffers are discarded and
// reallocated on resize, never resized in place.
type Surface struct {
	img  *image.RGBA
	open bool
}

// New allocates a surface of the given pixel size. A zero or negative
// dimension yields an empty surface that Resize can later replace.
func New(size image.Point) *Surface {
	s := &Surface{}
	s.Resize(size)
	return s
}

// Size returns the current pixel extent.
func (s *Surface) Size() image.Point {
	if s.img == nil {
		return image.Point{}
	}
	return s.img.Bounds().Size()
}

// Resize discards the buffer and allocates a fresh one. Content is not
// preserved; the next batch repaints everything it needs.
func (s *Surface) Resize(size image.Point) {
	if size.X < 0 {
		size.X = 0
	}
	if size.Y < 0 {
		size.Y = 0
	}
	s.img = image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
}

// Image exposes the buffer for blitting to the screen. The returned image
// must not be written outside a Batch bracket.
func (s *Surface) Image() *image.RGBA { return s.img }

// Batch runs fn with a drawing handle. The bracket is released on every exit
// path, including panics and decode errors, so a malformed record can never
// leave the drawing target locked.
func (s *Surface) Batch(fn func(*Canvas) error) error {
	if s.open {
		return ErrBatchInProgress
	}
	s.open = true
	defer func() { s.open = false }()
	return fn(&Canvas{img: s.img})
}

// Canvas is the drawing handle handed out by Batch. It is only valid for the
// duration of the bracket.
type Canvas struct {
	img *image.RGBA
}

// RGBA returns the underlying pixel buffer for glyph painting.
func (c *Canvas) RGBA() *image.RGBA { return c.img }

// ClearAll fills the whole surface with col.
func (c *Canvas) ClearAll(col color.RGBA) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// FillRect fills r with col. r must be in bounds.
func (c *Canvas) FillRect(r image.Rectangle, col color.RGBA) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// CopyRegion shifts the pixels inside r vertically by dy (negative is up).
// Rows are copied in an order safe for overlapping source and destination,
// which is what makes insert/delete lines cheap compared to a redraw.
func (c *Canvas) CopyRegion(r image.Rectangle, dy int) {
	if dy == 0 || r.Empty() {
		return
	}
	stride := c.img.Stride
	x0 := r.Min.X * 4
	x1 := r.Max.X * 4

	if dy < 0 {
		// Moving up: walk top to bottom.
		for y := r.Min.Y; y < r.Max.Y; y++ {
			src := c.img.Pix[y*stride+x0 : y*stride+x1]
			dst := c.img.Pix[(y+dy)*stride+x0 : (y+dy)*stride+x1]
			copy(dst, src)
		}
		return
	}
	// Moving down: walk bottom to top so unread rows are not clobbered.
	for y := r.Max.Y - 1; y >= r.Min.Y; y-- {
		src := c.img.Pix[y*stride+x0 : y*stride+x1]
		dst := c.img.Pix[(y+dy)*stride+x0 : (y+dy)*stride+x1]
		copy(dst, src)
	}
}

// InvertRect replaces every pixel in r with its RGB complement, a difference
// blend against white. Applying it twice restores the original pixels.
func (c *Canvas) InvertRect(r image.Rectangle) {
	stride := c.img.Stride
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := c.img.Pix[y*stride+r.Min.X*4 : y*stride+r.Max.X*4]
		for i := 0; i+3 < len(row); i += 4 {
			row[i] = 255 - row[i]
			row[i+1] = 255 - row[i+1]
			row[i+2] = 255 - row[i+2]
			// Alpha untouched.
		}
	}
}
