// Package zones decomposes a tile grid into zones separated by gateways and
// builds the gateway graph a hierarchical pathfinder walks between zones.
package zones

import (
	"fmt"
	"math"
)

// ZoneID identifies a zone. NoZone marks a tile that has not been filled yet.
type ZoneID uint32

const (
	NoZone ZoneID = 0

	// MaxZones is the ceiling imposed by the 8-bit zone id of the stored format.
	MaxZones = 255
)

// String returns the zone key used in dumps and payloads.
func (z ZoneID) String() string {
	return fmt.Sprintf("z%d", uint32(z))
}

// TileMap is the heightmap/tile collaborator the engine reads terrain from
// and writes gateway flags to.
type TileMap interface {
	Width() int
	Height() int
	IsWater(x, y int) bool
	IsCliffFace(x, y int) bool
	GatewayFlag(x, y int) bool
	SetGatewayFlag(x, y int, on bool)
}

// Point is a tile coordinate.
type Point struct {
	X, Y int
}

// GatewayID is a stable handle into a Registry. IDs are never reused.
type GatewayID uint32

// GatewayFlags carries per-gateway options.
type GatewayFlags uint8

const (
	// FlagWaterLink marks a single-tile gateway connecting a land zone to water.
	FlagWaterLink GatewayFlags = 1 << iota
)

// Link is one edge of the gateway graph.
type Link struct {
	Gateway  GatewayID
	Distance float64
}

// Gateway is a horizontal or vertical run of tiles separating two zones,
// or a single water-link tile.
type Gateway struct {
	ID             GatewayID
	X1, Y1, X2, Y2 int
	Zone1, Zone2   ZoneID
	Flags          GatewayFlags

	// Links holds Zone1Links entries reached through Zone1 followed by
	// Zone2Links entries reached through Zone2.
	Links      []Link
	Zone1Links int
	Zone2Links int
}

// IsWaterLink reports whether g is a water-link gateway.
func (g *Gateway) IsWaterLink() bool {
	return g.Flags&FlagWaterLink != 0
}

// Vertical reports whether the gateway runs along a column.
// A single tile counts as vertical.
func (g *Gateway) Vertical() bool {
	return g.X1 == g.X2
}

// Len returns the number of tiles the gateway covers.
func (g *Gateway) Len() int {
	if g.Vertical() {
		return g.Y2 - g.Y1 + 1
	}
	return g.X2 - g.X1 + 1
}

// Tiles returns every tile under the gateway.
func (g *Gateway) Tiles() []Point {
	pts := make([]Point, 0, g.Len())
	for y := g.Y1; y <= g.Y2; y++ {
		for x := g.X1; x <= g.X2; x++ {
			pts = append(pts, Point{x, y})
		}
	}
	return pts
}

// Midpoint returns the centre of the gateway segment.
func (g *Gateway) Midpoint() (float64, float64) {
	return float64(g.X1+g.X2) / 2, float64(g.Y1+g.Y2) / 2
}

// DistanceTo returns the straight-line distance between two gateway midpoints.
func (g *Gateway) DistanceTo(o *Gateway) float64 {
	ax, ay := g.Midpoint()
	bx, by := o.Midpoint()
	return math.Hypot(ax-bx, ay-by)
}

// Side1Links returns the links reached through Zone1.
func (g *Gateway) Side1Links() []Link {
	return g.Links[:g.Zone1Links]
}

// Side2Links returns the links reached through Zone2.
func (g *Gateway) Side2Links() []Link {
	return g.Links[g.Zone1Links : g.Zone1Links+g.Zone2Links]
}

// Resolved reports whether every side the gateway has carries a zone.
func (g *Gateway) Resolved() bool {
	if g.IsWaterLink() {
		return g.Zone1 != NoZone
	}
	return g.Zone1 != NoZone && g.Zone2 != NoZone
}

func (g *Gateway) String() string {
	if g.IsWaterLink() {
		return fmt.Sprintf("gateway %d water-link (%d,%d)", g.ID, g.X1, g.Y1)
	}
	return fmt.Sprintf("gateway %d (%d,%d)-(%d,%d)", g.ID, g.X1, g.Y1, g.X2, g.Y2)
}
