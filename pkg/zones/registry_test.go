package zones

import (
	"errors"
	"testing"
)

func TestAddNormalizesAndFlags(t *testing.T) {
	g := landGrid(6, 6)
	reg := NewRegistry(g)

	id, err := reg.Add(4, 1, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gw := reg.Get(id)
	if gw.X1 != 1 || gw.X2 != 4 || gw.Y1 != 1 || gw.Y2 != 1 {
		t.Errorf("expected endpoints normalized to (1,1)-(4,1), got %s", gw)
	}
	for x := 0; x < 6; x++ {
		want := x >= 1 && x <= 4
		if g.GatewayFlag(x, 1) != want {
			t.Errorf("tile (%d,1): flag = %v, want %v", x, g.GatewayFlag(x, 1), want)
		}
	}
	if gw.Vertical() || gw.Len() != 4 {
		t.Errorf("expected a horizontal gateway of 4 tiles, got vertical=%v len=%d", gw.Vertical(), gw.Len())
	}
}

func TestAddRejectsBadGeometry(t *testing.T) {
	g := landGrid(5, 5)
	reg := NewRegistry(g)

	cases := []struct {
		name           string
		x1, y1, x2, y2 int
	}{
		{"diagonal", 0, 0, 3, 3},
		{"off the right edge", 2, 0, 5, 0},
		{"negative", -1, 2, 1, 2},
		{"off the bottom", 1, 4, 1, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := reg.Add(c.x1, c.y1, c.x2, c.y2); !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("expected ErrInvalidGeometry, got %v", err)
			}
		})
	}

	if reg.Count() != 0 {
		t.Errorf("expected no gateways registered, got %d", reg.Count())
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if g.GatewayFlag(x, y) {
				t.Fatalf("tile (%d,%d) flagged by a rejected gateway", x, y)
			}
		}
	}
	if _, err := reg.AddWaterLink(5, 0); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry for an off-map water link, got %v", err)
	}
}

func TestWaterLinkDoesNotFlag(t *testing.T) {
	g := landGrid(3, 3)
	reg := NewRegistry(g)
	id, err := reg.AddWaterLink(1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.GatewayFlag(1, 1) {
		t.Error("expected water link tile to stay unflagged")
	}
	if gw := reg.Get(id); !gw.IsWaterLink() || gw.Len() != 1 {
		t.Errorf("expected a single tile water link, got %s", gw)
	}
}

func TestRemove(t *testing.T) {
	g := landGrid(5, 5)
	reg := NewRegistry(g)
	a, _ := reg.Add(0, 2, 4, 2)
	b, _ := reg.Add(2, 0, 2, 4)
	rev := reg.Revision()

	if err := reg.Remove(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Revision() == rev {
		t.Error("expected revision to change on removal")
	}
	if g.GatewayFlag(0, 2) || g.GatewayFlag(4, 2) {
		t.Error("expected removed gateway tiles cleared")
	}
	if !g.GatewayFlag(2, 2) {
		t.Error("expected the crossing tile to stay flagged by the other gateway")
	}
	if reg.Get(a) != nil || reg.Get(b) == nil {
		t.Error("expected only the removed gateway to disappear")
	}
	if err := reg.Remove(a); !errors.Is(err, ErrGatewayNotFound) {
		t.Errorf("expected ErrGatewayNotFound, got %v", err)
	}

	c, _ := reg.Add(0, 0, 0, 1)
	if c == a || c == b {
		t.Errorf("expected a fresh id, got %d", c)
	}
}

func TestIterationOrderAndClear(t *testing.T) {
	g := landGrid(5, 5)
	reg := NewRegistry(g)
	var ids []GatewayID
	for x := 0; x < 5; x++ {
		id, _ := reg.Add(x, 0, x, 1)
		ids = append(ids, id)
	}
	var seen []GatewayID
	reg.Each(func(gw *Gateway) { seen = append(seen, gw.ID) })
	if !sameIDs(ids, seen) {
		t.Errorf("expected insertion order %v, got %v", ids, seen)
	}

	reg.Clear()
	if reg.Count() != 0 || g.GatewayFlag(0, 0) {
		t.Error("expected Clear to drop gateways and their flags")
	}
}
