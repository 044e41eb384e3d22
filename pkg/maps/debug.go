package maps

import (
	"fmt"
	"strings"

	"zonegraph/pkg/zones"
)

// Debug returns a string visualization of the map.
func (m *Map) Debug() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Map: %s (%s)\n", m.Name, m.ID))
	sb.WriteString(fmt.Sprintf("Size: %dx%d\n", m.Width(), m.Height()))
	sb.WriteString(fmt.Sprintf("Water: %d tiles, Cliff: %d tiles\n\n", m.Count(TileWater), m.Count(TileCliff)))

	// Print tiles, with gateway tiles marked
	sb.WriteString("Tile Grid:\n")
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.GatewayFlag(x, y) {
				sb.WriteString(" G")
			} else {
				sb.WriteString(fmt.Sprintf(" %c", m.At(x, y)))
			}
		}
		sb.WriteString("\n")
	}

	if m.Zones == nil {
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("\nStats: %d zones, %d gateways (%d water links), %d links\n\n",
		m.Stats.Zones, m.Stats.Gateways, m.Stats.WaterLinks, m.Stats.Links))
	sb.WriteString(zones.Debug(m.Zones, m.Gateways, m.Equivalence))

	return sb.String()
}

// PrintLinkMatrix prints which gateways link to which.
func (m *Map) PrintLinkMatrix() string {
	var sb strings.Builder

	all := m.Gateways.All()
	sb.WriteString("Link Matrix:\n    ")
	for _, g := range all {
		sb.WriteString(fmt.Sprintf("%4s", GatewayKey(g.ID)))
	}
	sb.WriteString("\n")

	for _, g := range all {
		sb.WriteString(fmt.Sprintf("%4s", GatewayKey(g.ID)))
		for _, o := range all {
			switch {
			case g == o:
				sb.WriteString("   -")
			case linksTo(g.Side1Links(), o.ID):
				sb.WriteString("   1")
			case linksTo(g.Side2Links(), o.ID):
				sb.WriteString("   2")
			default:
				sb.WriteString("   .")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func linksTo(links []zones.Link, id zones.GatewayID) bool {
	for _, l := range links {
		if l.Gateway == id {
			return true
		}
	}
	return false
}
