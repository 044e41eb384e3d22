// Package maps handles tile map loading, processing, and generation.
package maps

import "zonegraph/pkg/zones"

// Tile is the terrain of one map cell, stored as its map file character.
type Tile byte

const (
	TileLand  Tile = '.'
	TileWater Tile = '~'
	TileCliff Tile = '#'
)

// RawMap is the format stored in JSON files.
type RawMap struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Rows     []string `json:"rows"`     // One string per row, see Tile
	Gateways [][]int  `json:"gateways"` // [x1, y1, x2, y2] with optional flags
}

// Grid is the terrain of a map plus the per-tile gateway flag the zone
// engine maintains. It implements zones.TileMap.
type Grid struct {
	width  int
	height int
	tiles  []Tile
	flags  []bool
}

// Map is the processed, runtime map data.
type Map struct {
	ID   string
	Name string
	*Grid

	// Results of the zone decomposition
	Gateways    *zones.Registry
	Zones       *zones.ZoneMap
	Equivalence *zones.Equivalence
	Stats       zones.Stats
}

// NewGrid returns an all land grid.
func NewGrid(width, height int) *Grid {
	g := &Grid{
		width:  width,
		height: height,
		tiles:  make([]Tile, width*height),
		flags:  make([]bool, width*height),
	}
	for i := range g.tiles {
		g.tiles[i] = TileLand
	}
	return g
}

// Width returns the grid width in tiles.
func (g *Grid) Width() int {
	return g.width
}

// Height returns the grid height in tiles.
func (g *Grid) Height() int {
	return g.height
}

// InBounds reports whether (x, y) is on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// At returns the tile at the given coordinates.
// Out of bounds tiles read as cliff.
func (g *Grid) At(x, y int) Tile {
	if !g.InBounds(x, y) {
		return TileCliff
	}
	return g.tiles[y*g.width+x]
}

// Set changes the tile at the given coordinates.
func (g *Grid) Set(x, y int, t Tile) {
	if g.InBounds(x, y) {
		g.tiles[y*g.width+x] = t
	}
}

// IsWater reports whether the tile is water.
func (g *Grid) IsWater(x, y int) bool {
	return g.At(x, y) == TileWater
}

// IsCliffFace reports whether the tile is too steep to walk.
func (g *Grid) IsCliffFace(x, y int) bool {
	return g.At(x, y) == TileCliff
}

// GatewayFlag reports whether a gateway covers the tile.
func (g *Grid) GatewayFlag(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.flags[y*g.width+x]
}

// SetGatewayFlag marks or clears the tile as covered by a gateway.
func (g *Grid) SetGatewayFlag(x, y int, on bool) {
	if g.InBounds(x, y) {
		g.flags[y*g.width+x] = on
	}
}

// Rows returns the grid in map file form.
func (g *Grid) Rows() []string {
	rows := make([]string, g.height)
	buf := make([]byte, g.width)
	for y := range rows {
		for x := 0; x < g.width; x++ {
			buf[x] = byte(g.At(x, y))
		}
		rows[y] = string(buf)
	}
	return rows
}

// Count returns how many tiles of the given type the grid holds.
func (g *Grid) Count(t Tile) int {
	n := 0
	for _, v := range g.tiles {
		if v == t {
			n++
		}
	}
	return n
}

// Raw converts the map back into its file form.
func (m *Map) Raw() *RawMap {
	raw := &RawMap{
		ID:     m.ID,
		Name:   m.Name,
		Width:  m.Width(),
		Height: m.Height(),
		Rows:   m.Rows(),
	}
	if m.Gateways != nil {
		raw.Gateways = GatewaysToRaw(m.Gateways)
	}
	return raw
}

// ZoneAt returns the zone at the given coordinates, or NoZone if the map
// has not been processed or the tile is off the map.
func (m *Map) ZoneAt(x, y int) zones.ZoneID {
	if m.Zones == nil || !m.InBounds(x, y) {
		return zones.NoZone
	}
	return m.Zones.Zone(x, y)
}
