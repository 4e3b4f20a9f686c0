// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package preview

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/vexel/protocol"
)

func newSimScreen(t *testing.T) (*Screen, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	if err := sim.Init(); err != nil {
		t.Fatalf("init simulation screen: %v", err)
	}
	t.Cleanup(sim.Fini)
	sim.SetSize(80, 24)
	return New(sim), sim
}

func runeAt(sim tcell.SimulationScreen, x, y int) rune {
	ch, _, _, _ := sim.GetContent(x, y)
	return ch
}

func TestDrawStringPlacesRunes(t *testing.T) {
	p, sim := newSimScreen(t)

	var b protocol.BatchBuilder
	b.ClearAll()
	b.DrawText(0xFF000000, 0xFFFFFFFF, 0, 2, 5, 0, "hi there")
	p.ApplyBatch(b.Bytes())

	want := "hi there"
	for i, r := range want {
		if got := runeAt(sim, 5+i, 2); got != r {
			t.Fatalf("cell (2,%d) = %q, want %q", 5+i, got, r)
		}
	}
}

func TestWideRunesAdvanceTwoCells(t *testing.T) {
	p, sim := newSimScreen(t)

	var b protocol.BatchBuilder
	b.DrawText(0, 0xFFFFFF, 0, 0, 0, protocol.FlagWide, "日本")
	p.ApplyBatch(b.Bytes())

	if runeAt(sim, 0, 0) != '日' {
		t.Fatalf("first wide rune missing")
	}
	if runeAt(sim, 2, 0) != '本' {
		t.Fatalf("second wide rune should start two cells over, got %q", runeAt(sim, 2, 0))
	}
}

func TestDeleteLinesShiftsContent(t *testing.T) {
	p, sim := newSimScreen(t)

	var b protocol.BatchBuilder
	b.ClearAll()
	for row := int32(0); row < 10; row++ {
		b.DrawText(0, 0xFFFFFF, 0, row, 0, 0, string(rune('a'+row)))
	}
	p.ApplyBatch(b.Bytes())

	b.Reset()
	b.DeleteLines(0xFF000000, 2, 1, 9, 0, 79)
	p.ApplyBatch(b.Bytes())

	if got := runeAt(sim, 0, 2); got != 'd' {
		t.Fatalf("row 2 should hold old row 3 ('d'), got %q", got)
	}
	if got := runeAt(sim, 0, 9); got != ' ' {
		t.Fatalf("exposed bottom row should be blank, got %q", got)
	}
	if got := runeAt(sim, 0, 1); got != 'b' {
		t.Fatalf("row above the region must be untouched, got %q", got)
	}
}

func TestUnknownTagStopsPreviewBatch(t *testing.T) {
	p, sim := newSimScreen(t)

	var b protocol.BatchBuilder
	b.DrawText(0, 0xFFFFFF, 0, 0, 0, 0, "ok")
	raw := append([]byte{}, b.Bytes()...)
	raw = append(raw, 0xFF, 0xFF, 0xFF, 0xFF)
	var tail protocol.BatchBuilder
	tail.DrawText(0, 0xFFFFFF, 0, 1, 0, 0, "no")
	raw = append(raw, tail.Bytes()...)

	p.ApplyBatch(raw)

	if runeAt(sim, 0, 0) != 'o' || runeAt(sim, 1, 0) != 'k' {
		t.Fatalf("records before the unknown tag should be applied")
	}
	if runeAt(sim, 0, 1) == 'n' {
		t.Fatalf("records after the unknown tag must not be applied")
	}
}
