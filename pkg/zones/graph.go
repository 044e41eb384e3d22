package zones

// BuildGraph links every gateway to every other gateway it can reach through
// one of its zones, weighted by the distance between midpoints. Zone1 links
// come first in each gateway's Links, then zone2 links, each in registry
// order. It returns the total number of links created.
func BuildGraph(zm *ZoneMap, reg *Registry, eq *Equivalence) int {
	tiles := reg.Tiles()
	all := reg.All()

	for _, g := range all {
		refreshZones(tiles, zm, g)
	}

	total := 0
	for _, g := range all {
		var side1, side2 []*Gateway
		for _, l := range all {
			if l == g {
				continue
			}
			if side1Link(g, l, eq) {
				side1 = append(side1, l)
			}
			if side2Link(g, l, eq) {
				side2 = append(side2, l)
			}
		}

		g.Links = make([]Link, 0, len(side1)+len(side2))
		for _, l := range side1 {
			g.Links = append(g.Links, Link{Gateway: l.ID, Distance: g.DistanceTo(l)})
		}
		for _, l := range side2 {
			g.Links = append(g.Links, Link{Gateway: l.ID, Distance: g.DistanceTo(l)})
		}
		g.Zone1Links = len(side1)
		g.Zone2Links = len(side2)
		total += len(g.Links)
	}
	return total
}

// refreshZones reads a gateway's zones back from its probe tiles.
func refreshZones(tiles TileMap, zm *ZoneMap, g *Gateway) {
	if g.IsWaterLink() {
		if pt, ok := waterLinkProbe(tiles, g); ok {
			g.Zone1 = zm.Zone(pt.X, pt.Y)
		}
		return
	}
	if pt, ok := gatewayProbe(tiles, g, sideZone1); ok {
		g.Zone1 = zm.Zone(pt.X, pt.Y)
	}
	if pt, ok := gatewayProbe(tiles, g, sideZone2); ok {
		g.Zone2 = zm.Zone(pt.X, pt.Y)
	}
}

// side1Link reports whether l is reachable from g through g.Zone1. A water
// link only counts through equivalence when it is not also equivalent to
// g's other side.
func side1Link(g, l *Gateway, eq *Equivalence) bool {
	if sameZone(l.Zone1, g.Zone1) || sameZone(l.Zone2, g.Zone1) {
		return true
	}
	return l.IsWaterLink() &&
		eq.Equivalent(l.Zone1, g.Zone1) &&
		!eq.Equivalent(l.Zone1, g.Zone2)
}

// side2Link reports whether l is reachable from g through g.Zone2. A water
// link g has no real second side: everything equivalent to its zone counts.
func side2Link(g, l *Gateway, eq *Equivalence) bool {
	if g.IsWaterLink() {
		return eq.Equivalent(l.Zone1, g.Zone1) || eq.Equivalent(l.Zone2, g.Zone1)
	}
	if sameZone(l.Zone1, g.Zone2) || sameZone(l.Zone2, g.Zone2) {
		return true
	}
	return l.IsWaterLink() &&
		eq.Equivalent(l.Zone1, g.Zone2) &&
		!eq.Equivalent(l.Zone1, g.Zone1)
}

func sameZone(a, b ZoneID) bool {
	return a != NoZone && a == b
}
