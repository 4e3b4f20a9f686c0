// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package surface

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func pixel(s *Surface, x, y int) color.RGBA {
	return s.Image().RGBAAt(x, y)
}

func TestFillAndClear(t *testing.T) {
	s := New(image.Point{X: 8, Y: 8})
	err := s.Batch(func(c *Canvas) error {
		c.ClearAll(red)
		c.FillRect(image.Rect(2, 2, 4, 4), green)
		return nil
	})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if pixel(s, 0, 0) != red {
		t.Fatalf("clear missed corner: %v", pixel(s, 0, 0))
	}
	if pixel(s, 2, 2) != green || pixel(s, 3, 3) != green {
		t.Fatalf("fill missed interior")
	}
	if pixel(s, 4, 4) == green {
		t.Fatalf("fill leaked past exclusive max")
	}
}

func TestCopyRegionUpAndDown(t *testing.T) {
	s := New(image.Point{X: 4, Y: 6})
	_ = s.Batch(func(c *Canvas) error {
		c.ClearAll(red)
		c.FillRect(image.Rect(0, 2, 4, 3), green) // stripe at y=2
		c.CopyRegion(image.Rect(0, 2, 4, 6), -2)  // shift up
		return nil
	})
	if pixel(s, 0, 0) != green {
		t.Fatalf("upward copy did not land at y=0: %v", pixel(s, 0, 0))
	}

	_ = s.Batch(func(c *Canvas) error {
		c.ClearAll(red)
		c.FillRect(image.Rect(0, 1, 4, 2), blue)
		c.CopyRegion(image.Rect(0, 0, 4, 4), 2) // shift down, overlapping
		return nil
	})
	if pixel(s, 0, 3) != blue {
		t.Fatalf("downward copy did not land at y=3: %v", pixel(s, 0, 3))
	}
	if pixel(s, 0, 1) != blue {
		t.Fatalf("source row should be intact before the fill step: %v", pixel(s, 0, 1))
	}
}

func TestCopyRegionOverlapPreservesContent(t *testing.T) {
	// Distinct row values; shifting down by one must not smear.
	s := New(image.Point{X: 2, Y: 5})
	_ = s.Batch(func(c *Canvas) error {
		for y := 0; y < 5; y++ {
			c.FillRect(image.Rect(0, y, 2, y+1), color.RGBA{R: uint8(10 * y), A: 255})
		}
		c.CopyRegion(image.Rect(0, 0, 2, 4), 1)
		return nil
	})
	for y := 1; y < 5; y++ {
		want := color.RGBA{R: uint8(10 * (y - 1)), A: 255}
		if got := pixel(s, 0, y); got != want {
			t.Fatalf("row %d: got %v want %v", y, got, want)
		}
	}
}

func TestInvertRectIsInvolution(t *testing.T) {
	s := New(image.Point{X: 4, Y: 4})
	_ = s.Batch(func(c *Canvas) error {
		c.ClearAll(color.RGBA{R: 10, G: 200, B: 77, A: 255})
		c.InvertRect(image.Rect(0, 0, 2, 2))
		return nil
	})
	if got := pixel(s, 0, 0); got != (color.RGBA{R: 245, G: 55, B: 178, A: 255}) {
		t.Fatalf("inverted pixel %v", got)
	}
	if got := pixel(s, 3, 3); got != (color.RGBA{R: 10, G: 200, B: 77, A: 255}) {
		t.Fatalf("pixel outside rect changed: %v", got)
	}
	_ = s.Batch(func(c *Canvas) error {
		c.InvertRect(image.Rect(0, 0, 2, 2))
		return nil
	})
	if got := pixel(s, 0, 0); got != (color.RGBA{R: 10, G: 200, B: 77, A: 255}) {
		t.Fatalf("double inversion should restore: %v", got)
	}
}

func TestResizeDiscardsBuffer(t *testing.T) {
	s := New(image.Point{X: 4, Y: 4})
	old := s.Image()
	_ = s.Batch(func(c *Canvas) error {
		c.ClearAll(red)
		return nil
	})
	s.Resize(image.Point{X: 8, Y: 2})
	if s.Image() == old {
		t.Fatalf("resize must reallocate, not reuse")
	}
	if s.Size() != (image.Point{X: 8, Y: 2}) {
		t.Fatalf("unexpected size %v", s.Size())
	}
	if pixel(s, 0, 0) != (color.RGBA{}) {
		t.Fatalf("new buffer should start zeroed")
	}
}

func TestBatchReleasedOnError(t *testing.T) {
	s := New(image.Point{X: 2, Y: 2})
	wantErr := errors.New("malformed record")
	if err := s.Batch(func(*Canvas) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("batch should surface fn error, got %v", err)
	}
	// Bracket must be released; a second batch succeeds.
	if err := s.Batch(func(*Canvas) error { return nil }); err != nil {
		t.Fatalf("bracket leaked after error: %v", err)
	}
}

func TestNestedBatchRejected(t *testing.T) {
	s := New(image.Point{X: 2, Y: 2})
	err := s.Batch(func(*Canvas) error {
		return s.Batch(func(*Canvas) error { return nil })
	})
	if !errors.Is(err, ErrBatchInProgress) {
		t.Fatalf("expected ErrBatchInProgress, got %v", err)
	}
}
