package zones

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestVerticalGatewaySplitsMap(t *testing.T) {
	g := landGrid(4, 4)
	p := process(t, g, GatewaySpec{X1: 2, Y1: 0, X2: 2, Y2: 3})

	gw := p.Gateways().All()[0]
	if gw.Zone1 == NoZone || gw.Zone2 == NoZone || gw.Zone1 == gw.Zone2 {
		t.Fatalf("expected two distinct zones, got %d/%d", gw.Zone1, gw.Zone2)
	}
	if p.NumZones() != 2 {
		t.Errorf("expected exactly 2 zones, got %d", p.NumZones())
	}
	for _, z := range []ZoneID{gw.Zone1, gw.Zone2} {
		if n := countZone(p.Zones(), z); n != 8 {
			t.Errorf("zone %d: expected 8 tiles, got %d", z, n)
		}
	}
	if p.Zones().Zone(3, 0) != gw.Zone1 || p.Zones().Zone(0, 0) != gw.Zone2 {
		t.Error("expected zone1 on the right of the gateway and zone2 on the left")
	}
}

func TestHorizontalGatewaySplitsMap(t *testing.T) {
	g := landGrid(3, 5)
	p := process(t, g, GatewaySpec{X1: 0, Y1: 2, X2: 2, Y2: 2})

	gw := p.Gateways().All()[0]
	if n := countZone(p.Zones(), gw.Zone1); n != 9 {
		t.Errorf("expected 9 tiles below and on the gateway, got %d", n)
	}
	if n := countZone(p.Zones(), gw.Zone2); n != 6 {
		t.Errorf("expected 6 tiles above the gateway, got %d", n)
	}
}

func TestFullCoverageAndSelfMembership(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 40; i++ {
		g := randomGrid(rng, 8+rng.Intn(12), 6+rng.Intn(10), 0.15)
		reg := NewRegistry(g)
		for n := 0; n < 6; n++ {
			addRandomGateway(rng, g, reg)
		}
		if rng.Intn(2) == 0 {
			reg.AddWaterLink(rng.Intn(g.w), rng.Intn(g.h))
		}

		p := NewProcessor(reg, Options{})
		if err := p.SeedZones(); err != nil {
			t.Fatalf("map %d: seeding: %v", i, err)
		}
		if err := p.CompleteZones(); err != nil {
			t.Fatalf("map %d: completing: %v", i, err)
		}
		if pt, ok := p.Zones().Unassigned(); ok {
			t.Fatalf("map %d: tile (%d,%d) left without a zone", i, pt.X, pt.Y)
		}
		if err := p.LinkGateways(); err != nil {
			t.Fatalf("map %d: linking: %v", i, err)
		}

		reg.Each(func(gw *Gateway) {
			if gw.IsWaterLink() {
				return
			}
			for _, pt := range gw.Tiles() {
				if z := p.Zones().Zone(pt.X, pt.Y); z != gw.Zone1 {
					t.Errorf("map %d: %s tile (%d,%d) in zone %d, want zone1 %d", i, gw, pt.X, pt.Y, z, gw.Zone1)
				}
			}
		})
		checkLinksAgreeWithZones(t, p)
	}
}

// addRandomGateway adds a short gateway that does not overlap another one.
func addRandomGateway(rng *rand.Rand, g *testGrid, reg *Registry) {
	x1, y1 := rng.Intn(g.w), rng.Intn(g.h)
	x2, y2 := x1, y1
	if rng.Intn(2) == 0 {
		x2 = min(g.w-1, x1+rng.Intn(4))
	} else {
		y2 = min(g.h-1, y1+rng.Intn(4))
	}
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if g.GatewayFlag(x, y) {
				return
			}
		}
	}
	reg.Add(x1, y1, x2, y2)
}

func TestZoneCapacity(t *testing.T) {
	// Land tiles separated by cliffs: one zone per land tile.
	comb := func(zones int) *testGrid {
		return newTestGrid(strings.Repeat(".#", zones-1) + ".")
	}

	p := NewProcessor(NewRegistry(comb(255)), Options{})
	if err := p.Run(); err != nil {
		t.Fatalf("expected 255 zones to fit, got %v", err)
	}
	if p.NumZones() != 255 {
		t.Errorf("expected 255 zones, got %d", p.NumZones())
	}

	p = NewProcessor(NewRegistry(comb(256)), Options{})
	err := p.Run()
	if !errors.Is(err, ErrTooManyZones) {
		t.Fatalf("expected ErrTooManyZones, got %v", err)
	}
	if p.State() != StateFailed {
		t.Errorf("expected failed state, got %s", p.State())
	}
	if err := p.Run(); !errors.Is(err, ErrWrongState) {
		t.Errorf("expected a failed run to need a reset, got %v", err)
	}
}

func TestStepsMustRunInOrder(t *testing.T) {
	p := NewProcessor(NewRegistry(landGrid(3, 3)), Options{})
	if err := p.CompleteZones(); !errors.Is(err, ErrWrongState) {
		t.Errorf("expected ErrWrongState completing before seeding, got %v", err)
	}
	if err := p.LinkGateways(); !errors.Is(err, ErrWrongState) {
		t.Errorf("expected ErrWrongState linking before completing, got %v", err)
	}
	if err := p.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.SeedZones(); !errors.Is(err, ErrWrongState) {
		t.Errorf("expected ErrWrongState re-seeding a linked map, got %v", err)
	}
	if err := p.Run(); err != nil {
		t.Errorf("expected Run on a linked map to be a no-op, got %v", err)
	}
}

func TestRegistryChangeNeedsReset(t *testing.T) {
	g := landGrid(5, 5)
	reg := NewRegistry(g)
	reg.Add(2, 0, 2, 4)
	p := NewProcessor(reg, Options{})
	if err := p.SeedZones(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg.Add(0, 2, 1, 2)
	if err := p.CompleteZones(); !errors.Is(err, ErrRegistryChanged) {
		t.Fatalf("expected ErrRegistryChanged, got %v", err)
	}

	p.Reset()
	if err := p.Run(); err != nil {
		t.Fatalf("expected a reset run to succeed, got %v", err)
	}
	for _, gw := range reg.All() {
		if !gw.Resolved() {
			t.Errorf("%s left unresolved", gw)
		}
	}
}

func TestResetClearsResults(t *testing.T) {
	g := landGrid(4, 4)
	p := process(t, g,
		GatewaySpec{X1: 1, Y1: 0, X2: 1, Y2: 3},
		GatewaySpec{X1: 2, Y1: 0, X2: 2, Y2: 3},
	)
	first := p.Zones().Row(0)

	p.Reset()
	if p.State() != StateUnprocessed {
		t.Errorf("expected unprocessed, got %s", p.State())
	}
	if _, ok := p.Zones().Unassigned(); !ok {
		t.Error("expected a blank zone map")
	}
	for _, gw := range p.Gateways().All() {
		if gw.Zone1 != NoZone || gw.Zone2 != NoZone || gw.Links != nil {
			t.Errorf("%s kept results after reset", gw)
		}
	}

	if err := p.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	again := p.Zones().Row(0)
	for x := range first {
		if first[x] != again[x] {
			t.Fatalf("expected identical zones on rerun, got %v then %v", first, again)
		}
	}
}

func TestWaterLinkOnDryLand(t *testing.T) {
	g := landGrid(5, 5)
	p := process(t, g, GatewaySpec{X1: 2, Y1: 2, X2: 2, Y2: 2, Flags: FlagWaterLink})

	gw := p.Gateways().All()[0]
	if gw.Zone1 == NoZone {
		t.Error("expected the water link to get a zone")
	}
	if gw.Zone2 != NoZone {
		t.Errorf("expected no second zone, got %d", gw.Zone2)
	}
	if p.Equivalence().Len() != 0 {
		t.Errorf("expected an empty equivalence table, got %d zones", p.Equivalence().Len())
	}
	if p.NumZones() != 1 {
		t.Errorf("expected the whole map in one zone, got %d", p.NumZones())
	}
}

func TestGatewayOnMapEdge(t *testing.T) {
	g := landGrid(4, 3)
	p := process(t, g, GatewaySpec{X1: 0, Y1: 0, X2: 0, Y2: 2})

	gw := p.Gateways().All()[0]
	if gw.Zone1 == NoZone || gw.Zone2 != gw.Zone1 {
		t.Errorf("expected the off-map side to share zone1, got %d/%d", gw.Zone1, gw.Zone2)
	}
}

func TestSmoothingCoversBlockedTiles(t *testing.T) {
	g := newTestGrid(
		"#..",
		"###",
		"..#",
	)
	p := process(t, g)
	zm := p.Zones()

	want := [][]ZoneID{
		{1, 1, 1},
		{1, 1, 1},
		{2, 2, 2},
	}
	for y, row := range want {
		got := zm.Row(y)
		for x := range row {
			if got[x] != row[x] {
				t.Errorf("row %d: expected %v, got %v", y, row, got)
				break
			}
		}
	}
}

func TestAllCliffMapGetsOneZone(t *testing.T) {
	g := newTestGrid("###", "###")
	p := process(t, g)
	if p.NumZones() != 1 {
		t.Errorf("expected a single fallback zone, got %d", p.NumZones())
	}
	if n := countZone(p.Zones(), 1); n != 6 {
		t.Errorf("expected all 6 tiles in zone 1, got %d", n)
	}
}

func TestProgressReported(t *testing.T) {
	var states []State
	reg := NewRegistry(landGrid(4, 4))
	reg.Add(2, 0, 2, 3)
	p := NewProcessor(reg, Options{OnProgress: func(pr Progress) {
		states = append(states, pr.State)
		if pr.Gateways != 1 {
			t.Errorf("expected 1 gateway in progress report, got %d", pr.Gateways)
		}
	}})
	if err := p.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []State{StateZonesSeeded, StateZonesComplete, StateGatewaysLinked}
	if len(states) != len(want) {
		t.Fatalf("expected %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("report %d: expected %s, got %s", i, want[i], states[i])
		}
	}
}

func TestFillOverflowFailsRun(t *testing.T) {
	reg := NewRegistry(landGrid(10, 10))
	p := NewProcessor(reg, Options{FillStackLimit: 1})
	if err := p.Run(); !errors.Is(err, ErrFillOverflow) {
		t.Fatalf("expected ErrFillOverflow, got %v", err)
	}
	if p.State() != StateFailed {
		t.Errorf("expected failed state, got %s", p.State())
	}
}
