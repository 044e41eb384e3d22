package maps

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"zonegraph/pkg/zones"
)

// Process takes a raw map and computes all derived data: the tile grid,
// the gateway registry and the zone decomposition.
func Process(raw *RawMap, opts zones.Options) (*Map, error) {
	// Step 1: Build the tile grid
	grid, err := ParseGrid(raw.Rows)
	if err != nil {
		return nil, err
	}

	m := &Map{
		ID:   raw.ID,
		Name: raw.Name,
		Grid: grid,
	}

	// Step 2: Register gateways
	specs, err := GatewaySpecs(raw.Gateways)
	if err != nil {
		return nil, err
	}
	m.Gateways = zones.NewRegistry(grid)
	if err := m.Gateways.AddAll(specs); err != nil {
		return nil, err
	}

	// Step 3: Decompose into zones and link the gateways
	if err := m.Reprocess(opts); err != nil {
		return nil, err
	}
	return m, nil
}

// Reprocess runs the zone decomposition again from scratch, picking up any
// change made to the gateway registry since the last run.
func (m *Map) Reprocess(opts zones.Options) error {
	p := zones.NewProcessor(m.Gateways, opts)
	if err := p.Run(); err != nil {
		return fmt.Errorf("processing map %s: %w", m.ID, err)
	}
	m.Zones = p.Zones()
	m.Equivalence = p.Equivalence()
	m.Stats = p.Stats()
	return nil
}

// RemoveGateways removes the gateways named by GatewayKey strings and
// reprocesses the map. Nothing is removed if any key is bad or unknown.
func (m *Map) RemoveGateways(keys []string, opts zones.Options) error {
	ids := make([]zones.GatewayID, 0, len(keys))
	seen := mapset.New[zones.GatewayID]()
	for _, k := range keys {
		id, err := ParseGatewayKey(k)
		if err != nil {
			return err
		}
		if m.Gateways.Get(id) == nil {
			return fmt.Errorf("%w: %s", zones.ErrGatewayNotFound, k)
		}
		if !seen.Has(id) {
			seen.Put(id)
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		if err := m.Gateways.Remove(id); err != nil {
			return err
		}
	}
	return m.Reprocess(opts)
}

// ParseGrid builds a grid from map file rows.
func ParseGrid(rows []string) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidMap)
	}
	g := NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != g.width {
			return nil, fmt.Errorf("%w: row %d width mismatch: expected %d, got %d", ErrInvalidMap, y, g.width, len(row))
		}
		for x := 0; x < len(row); x++ {
			t, err := ParseTile(row[x])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %d: %v", ErrInvalidMap, y, x, err)
			}
			g.tiles[y*g.width+x] = t
		}
	}
	return g, nil
}
