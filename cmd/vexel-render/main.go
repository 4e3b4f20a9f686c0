// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/vexel-render/main.go
// Summary: Offline renderer producing a PNG snapshot of a highlighted source file.
// Usage: `vexel-render -o out.png main.go` rasterizes through the same
//        surface pipeline the live client uses.

package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"github.com/alecthomas/chroma/v2"

	"github.com/framegrace/vexel/config"
	"github.com/framegrace/vexel/glyph"
	"github.com/framegrace/vexel/grid"
	"github.com/framegrace/vexel/protocol"
	"github.com/framegrace/vexel/view"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("vexel-render", flag.ContinueOnError)
	outPath := fs.String("o", "", "Output PNG path (default: <input>.png)")
	styleName := fs.String("style", defaultStyleName, "Chroma style name")
	language := fs.String("lang", "", "Language name override (default: detect)")
	fontSize := fs.Float64("font-size", 0, "Point size (default: from config)")
	maxCols := fs.Int("cols", 0, "Clip lines at this column (0 = no clip)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: vexel-render [flags] <file>")
	}
	inPath := fs.Arg(0)
	if *outPath == "" {
		*outPath = inPath + ".png"
	}

	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	settings := config.Load()
	size := *fontSize
	if size <= 0 {
		size = settings.FontSize
	}

	face, err := glyph.NewFace(glyph.FaceConfig{
		Size:       size,
		WidthScale: settings.WidthScale,
		Linespace:  settings.Linespace,
		Antialias:  settings.Antialias,
	})
	if err != nil {
		return err
	}

	style := styleFor(*styleName)
	lexer := lexerFor(inPath, content, *language)
	tokens, err := chroma.Tokenise(lexer, nil, string(content))
	if err != nil {
		return fmt.Errorf("tokenize %s: %w", inPath, err)
	}

	var batch protocol.BatchBuilder
	extent := renderTokens(&batch, tokens, style, *maxCols)

	v := view.New(grid.Metrics{Cell: face.CellSize()}, glyph.NewRasterizer(face))
	v.SetDefaultColors(
		packColour(style.Get(chroma.Background).Background, settings.PackedBackground()),
		packColour(style.Get(chroma.Text).Colour, settings.PackedForeground()),
		settings.PackedSpecial(),
	)
	v.SetGridSize(extent.Rows, extent.Columns)
	if err := v.ApplyBatch(batch.Bytes()); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, v.Image()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
