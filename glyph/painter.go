// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glyph/painter.go
// Summary: Glyph-run rasterizer interface consumed by the view.
// Usage: Swap the implementation per target platform without touching the decoder.

package glyph

import (
	"image"
	"image/color"

	"github.com/framegrace/vexel/protocol"
)

// Painter paints one glyph run into a pixel rect. Implementations degrade
// gracefully: a run that cannot be styled or shaped renders undecorated (or
// not at all) rather than failing the batch, so the method returns nothing.
type Painter interface {
	// DrawRun paints text into rect on dst. rect is the full run rect
	// already sized by the caller (doubled for wide runs). fg paints the
	// glyphs, bg fills the rect unless protocol.FlagTransparent is set, and
	// sp colors the undercurl.
	DrawRun(dst *image.RGBA, rect image.Rectangle, text string, flags protocol.DrawFlags, fg, bg, sp color.RGBA)
}
