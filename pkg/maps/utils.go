package maps

import (
	"fmt"
	"strconv"

	"zonegraph/pkg/zones"
)

// ParseTile converts a map file character to a tile.
func ParseTile(c byte) (Tile, error) {
	switch t := Tile(c); t {
	case TileLand, TileWater, TileCliff:
		return t, nil
	default:
		return 0, fmt.Errorf("unknown tile %q", c)
	}
}

// String returns the tile name.
func (t Tile) String() string {
	switch t {
	case TileLand:
		return "land"
	case TileWater:
		return "water"
	case TileCliff:
		return "cliff"
	default:
		return "unknown"
	}
}

// GatewayKey converts a gateway ID to a string.
func GatewayKey(id zones.GatewayID) string {
	return "g" + strconv.FormatUint(uint64(id), 10)
}

// ParseGatewayKey converts a string made by GatewayKey back to a gateway ID.
func ParseGatewayKey(s string) (zones.GatewayID, error) {
	if len(s) < 2 || s[0] != 'g' {
		return 0, fmt.Errorf("%w: %q", ErrBadGatewayKey, s)
	}
	id, err := strconv.ParseUint(s[1:], 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadGatewayKey, s)
	}
	return zones.GatewayID(id), nil
}

// GatewaySpecs converts raw gateway entries to engine specs.
func GatewaySpecs(raw [][]int) ([]zones.GatewaySpec, error) {
	specs := make([]zones.GatewaySpec, 0, len(raw))
	for i, v := range raw {
		if len(v) != 4 && len(v) != 5 {
			return nil, fmt.Errorf("%w: gateway %d: want 4 or 5 values, got %d", ErrInvalidMap, i, len(v))
		}
		s := zones.GatewaySpec{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
		if len(v) == 5 {
			if v[4] < 0 || v[4] > int(zones.FlagWaterLink) {
				return nil, fmt.Errorf("%w: gateway %d: bad flags %d", ErrInvalidMap, i, v[4])
			}
			s.Flags = zones.GatewayFlags(v[4])
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// GatewaysToRaw converts every gateway in the registry to raw entries.
func GatewaysToRaw(reg *zones.Registry) [][]int {
	raw := make([][]int, 0, reg.Count())
	reg.Each(func(g *zones.Gateway) {
		v := []int{g.X1, g.Y1, g.X2, g.Y2}
		if g.Flags != 0 {
			v = append(v, int(g.Flags))
		}
		raw = append(raw, v)
	})
	return raw
}

// SpecsToRaw converts engine specs to raw gateway entries.
func SpecsToRaw(specs []zones.GatewaySpec) [][]int {
	raw := make([][]int, 0, len(specs))
	for _, s := range specs {
		v := []int{s.X1, s.Y1, s.X2, s.Y2}
		if s.Flags != 0 {
			v = append(v, int(s.Flags))
		}
		raw = append(raw, v)
	}
	return raw
}
