package zones

import (
	"fmt"
	"strings"

	"github.com/zyedidia/generic/mapset"
)

// Stats summarises a processing result.
type Stats struct {
	Zones        int `json:"zones"`
	Gateways     int `json:"gateways"`
	WaterLinks   int `json:"water_links"`
	Links        int `json:"links"`
	Equivalences int `json:"equivalences"`
	LinkedZones  int `json:"linked_zones"`
}

// Stats returns counts describing the processor's current results.
func (p *Processor) Stats() Stats {
	s := Stats{
		Zones:        p.NumZones(),
		Gateways:     p.gateways.Count(),
		Equivalences: p.equiv.Pairs(),
	}
	zones := mapset.New[ZoneID]()
	p.gateways.Each(func(g *Gateway) {
		if g.IsWaterLink() {
			s.WaterLinks++
		}
		s.Links += len(g.Links)
		if g.Zone1 != NoZone {
			zones.Put(g.Zone1)
		}
		if g.Zone2 != NoZone {
			zones.Put(g.Zone2)
		}
	})
	s.LinkedZones = zones.Size()
	return s
}

// Debug returns a string visualization of the zone map, gateways and
// equivalence table.
func Debug(zm *ZoneMap, reg *Registry, eq *Equivalence) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %dx%d\n", zm.Width(), zm.Height()))
	sb.WriteString(fmt.Sprintf("Zones: %d\n", zm.MaxZone()))
	sb.WriteString(fmt.Sprintf("Gateways: %d\n\n", reg.Count()))

	sb.WriteString("Zone Grid:\n")
	for y := 0; y < zm.Height(); y++ {
		for _, z := range zm.Row(y) {
			if z == NoZone {
				sb.WriteString("  .")
			} else {
				sb.WriteString(fmt.Sprintf("%3d", z))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nGateways:\n")
	reg.Each(func(g *Gateway) {
		sb.WriteString(fmt.Sprintf("  %s zones %d/%d\n", g, g.Zone1, g.Zone2))
		for _, l := range g.Side1Links() {
			sb.WriteString(fmt.Sprintf("     side 1 -> %d (%.2f)\n", l.Gateway, l.Distance))
		}
		for _, l := range g.Side2Links() {
			sb.WriteString(fmt.Sprintf("     side 2 -> %d (%.2f)\n", l.Gateway, l.Distance))
		}
	})

	if eq.Len() > 0 {
		sb.WriteString("\nEquivalent Zones:\n")
		for _, z := range eq.Zones() {
			sb.WriteString(fmt.Sprintf("  %d: %v\n", z, eq.Of(z)))
		}
	}

	return sb.String()
}
