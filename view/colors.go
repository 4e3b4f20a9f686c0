// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: view/colors.go
// Summary: Packed-color resolution for draw records.
// Usage: Every record color passes through the view's small resolve cache.

package view

import "image/color"

// unpackColor resolves a packed alpha+RGB integer (0xAARRGGBB) to an RGBA
// value. A zero alpha byte means the producer sent plain RGB; treat it as
// opaque.
func unpackColor(v uint32) color.RGBA {
	a := uint8(v >> 24)
	if a == 0 {
		a = 0xFF
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: a,
	}
}

// colorCache memoizes unpackColor results. The working set per session is a
// handful of theme colors, so the map stays tiny; it is reset when it grows
// past a sanity bound.
type colorCache struct {
	m map[uint32]color.RGBA
}

const colorCacheLimit = 4096

func (c *colorCache) resolve(v uint32) color.RGBA {
	if got, ok := c.m[v]; ok {
		return got
	}
	if c.m == nil || len(c.m) >= colorCacheLimit {
		c.m = make(map[uint32]color.RGBA, 64)
	}
	rgba := unpackColor(v)
	c.m[v] = rgba
	return rgba
}
