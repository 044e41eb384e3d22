package zones

import (
	"fmt"
	"strings"
	"testing"
)

// testGrid is a TileMap built from rows of '.' land, '~' water and '#' cliff.
type testGrid struct {
	w, h  int
	tiles []byte
	flags []bool
}

func newTestGrid(rows ...string) *testGrid {
	g := &testGrid{w: len(rows[0]), h: len(rows)}
	for _, r := range rows {
		if len(r) != g.w {
			panic(fmt.Sprintf("ragged test grid row %q", r))
		}
		g.tiles = append(g.tiles, r...)
	}
	g.flags = make([]bool, len(g.tiles))
	return g
}

func landGrid(w, h int) *testGrid {
	rows := make([]string, h)
	for i := range rows {
		rows[i] = strings.Repeat(".", w)
	}
	return newTestGrid(rows...)
}

func (g *testGrid) Width() int  { return g.w }
func (g *testGrid) Height() int { return g.h }

func (g *testGrid) IsWater(x, y int) bool     { return g.tiles[y*g.w+x] == '~' }
func (g *testGrid) IsCliffFace(x, y int) bool { return g.tiles[y*g.w+x] == '#' }
func (g *testGrid) GatewayFlag(x, y int) bool { return g.flags[y*g.w+x] }

func (g *testGrid) SetGatewayFlag(x, y int, on bool) {
	g.flags[y*g.w+x] = on
}

// process registers the gateways and runs a full processing pass.
func process(t testing.TB, g *testGrid, specs ...GatewaySpec) *Processor {
	t.Helper()
	reg := NewRegistry(g)
	if err := reg.AddAll(specs); err != nil {
		t.Fatalf("adding gateways: %v", err)
	}
	p := NewProcessor(reg, Options{})
	if err := p.Run(); err != nil {
		t.Fatalf("processing: %v", err)
	}
	return p
}

func countZone(zm *ZoneMap, z ZoneID) int {
	n := 0
	for y := 0; y < zm.Height(); y++ {
		for _, v := range zm.Row(y) {
			if v == z {
				n++
			}
		}
	}
	return n
}

func linkIDs(links []Link) []GatewayID {
	ids := make([]GatewayID, len(links))
	for i, l := range links {
		ids[i] = l.Gateway
	}
	return ids
}

func sameIDs(a, b []GatewayID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
