package zones

import "fmt"

// Registry owns every gateway record and keeps the tile gateway flags in
// step with them. Iteration order is insertion order.
type Registry struct {
	tiles    TileMap
	gateways []*Gateway
	nextID   GatewayID
	revision uint64
}

// NewRegistry creates an empty registry over the given tiles.
func NewRegistry(tiles TileMap) *Registry {
	return &Registry{
		tiles:  tiles,
		nextID: 1,
	}
}

// Add registers a horizontal or vertical gateway between (x1,y1) and (x2,y2)
// and flags every tile it covers.
func (r *Registry) Add(x1, y1, x2, y2 int) (GatewayID, error) {
	if !r.inBounds(x1, y1) || !r.inBounds(x2, y2) {
		return 0, fmt.Errorf("%w: (%d,%d)-(%d,%d) outside %dx%d map",
			ErrInvalidGeometry, x1, y1, x2, y2, r.tiles.Width(), r.tiles.Height())
	}
	if x1 != x2 && y1 != y2 {
		return 0, fmt.Errorf("%w: (%d,%d)-(%d,%d) is neither horizontal nor vertical",
			ErrInvalidGeometry, x1, y1, x2, y2)
	}
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}

	g := &Gateway{X1: x1, Y1: y1, X2: x2, Y2: y2}
	for _, p := range g.Tiles() {
		r.tiles.SetGatewayFlag(p.X, p.Y, true)
	}
	return r.insert(g), nil
}

// AddWaterLink registers a single-tile water-link gateway. Water links do not
// set the tile gateway flag, so they never block a flood fill.
func (r *Registry) AddWaterLink(x, y int) (GatewayID, error) {
	if !r.inBounds(x, y) {
		return 0, fmt.Errorf("%w: water link (%d,%d) outside %dx%d map",
			ErrInvalidGeometry, x, y, r.tiles.Width(), r.tiles.Height())
	}
	g := &Gateway{X1: x, Y1: y, X2: x, Y2: y, Flags: FlagWaterLink}
	return r.insert(g), nil
}

func (r *Registry) insert(g *Gateway) GatewayID {
	g.ID = r.nextID
	r.nextID++
	r.gateways = append(r.gateways, g)
	r.revision++
	return g.ID
}

// Remove deletes a gateway and clears its tile flags. Links held by other
// gateways that point at it go stale and must be rebuilt by the caller.
func (r *Registry) Remove(id GatewayID) error {
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrGatewayNotFound, id)
	}
	g := r.gateways[i]
	if !g.IsWaterLink() {
		for _, p := range g.Tiles() {
			r.tiles.SetGatewayFlag(p.X, p.Y, false)
		}
		// Overlapping gateways keep their own tiles flagged.
		for _, o := range r.gateways {
			if o == g || o.IsWaterLink() {
				continue
			}
			for _, p := range o.Tiles() {
				r.tiles.SetGatewayFlag(p.X, p.Y, true)
			}
		}
	}
	g.Links = nil
	r.gateways = append(r.gateways[:i], r.gateways[i+1:]...)
	r.revision++
	return nil
}

// Clear removes every gateway.
func (r *Registry) Clear() {
	for _, g := range r.gateways {
		if g.IsWaterLink() {
			continue
		}
		for _, p := range g.Tiles() {
			r.tiles.SetGatewayFlag(p.X, p.Y, false)
		}
	}
	r.gateways = nil
	r.revision++
}

// Get returns the gateway with the given id, or nil.
func (r *Registry) Get(id GatewayID) *Gateway {
	if i := r.indexOf(id); i >= 0 {
		return r.gateways[i]
	}
	return nil
}

// Count returns the number of registered gateways.
func (r *Registry) Count() int {
	return len(r.gateways)
}

// All returns the gateways in insertion order. The slice is a copy; the
// gateways are not.
func (r *Registry) All() []*Gateway {
	out := make([]*Gateway, len(r.gateways))
	copy(out, r.gateways)
	return out
}

// Each calls fn for every gateway in insertion order.
func (r *Registry) Each(fn func(g *Gateway)) {
	for _, g := range r.gateways {
		fn(g)
	}
}

// Revision changes every time a gateway is added or removed.
func (r *Registry) Revision() uint64 {
	return r.revision
}

// Tiles returns the tile map the registry flags.
func (r *Registry) Tiles() TileMap {
	return r.tiles
}

func (r *Registry) indexOf(id GatewayID) int {
	for i, g := range r.gateways {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) inBounds(x, y int) bool {
	return x >= 0 && x < r.tiles.Width() && y >= 0 && y < r.tiles.Height()
}
