package zones

// Zone1 lies on the right of a vertical gateway and below a horizontal one,
// zone2 on the left or above.
const (
	sideZone1 = 1
	sideZone2 = -1
)

// gatewayProbe finds the tile one step off a gateway on the given side that a
// fill could start from. The tile beside the midpoint is tried first, then
// the rest of the segment.
func gatewayProbe(tiles TileMap, g *Gateway, side int) (Point, bool) {
	candidate := func(i int) Point {
		if g.Vertical() {
			return Point{g.X1 + side, g.Y1 + i}
		}
		return Point{g.X1 + i, g.Y1 + side}
	}

	n := g.Len()
	mid := (n - 1) / 2
	if pt := candidate(mid); passableAt(tiles, pt) {
		return pt, true
	}
	for i := 0; i < n; i++ {
		if i == mid {
			continue
		}
		if pt := candidate(i); passableAt(tiles, pt) {
			return pt, true
		}
	}
	return Point{}, false
}

// waterLinkProbe returns the tile a water-link gateway takes its zone from:
// the gateway tile itself, or failing that its first passable neighbour.
func waterLinkProbe(tiles TileMap, g *Gateway) (Point, bool) {
	self := Point{g.X1, g.Y1}
	if passableAt(tiles, self) {
		return self, true
	}
	for _, d := range [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}} {
		pt := Point{self.X + d.X, self.Y + d.Y}
		if passableAt(tiles, pt) {
			return pt, true
		}
	}
	return Point{}, false
}

func passableAt(tiles TileMap, pt Point) bool {
	if pt.X < 0 || pt.X >= tiles.Width() || pt.Y < 0 || pt.Y >= tiles.Height() {
		return false
	}
	return Passable(tiles, pt.X, pt.Y)
}
