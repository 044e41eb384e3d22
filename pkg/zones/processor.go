package zones

import (
	"fmt"
	"log"
)

// State is the position of a Processor in its processing run.
type State int

const (
	StateUnprocessed State = iota
	StateZonesSeeded
	StateZonesComplete
	StateGatewaysLinked
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnprocessed:
		return "unprocessed"
	case StateZonesSeeded:
		return "zones seeded"
	case StateZonesComplete:
		return "zones complete"
	case StateGatewaysLinked:
		return "gateways linked"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is reported after every processing step.
type Progress struct {
	State    State
	Zones    int
	Gateways int
	Message  string
}

// Options tunes a Processor.
type Options struct {
	// FillStackLimit caps each flood fill; 0 uses DefaultFillStackLimit.
	FillStackLimit int

	// OnProgress, when set, is called after each completed step.
	OnProgress func(Progress)
}

// Processor runs the zone decomposition over a tile map and its gateways.
type Processor struct {
	tiles    TileMap
	gateways *Registry
	opts     Options

	zones    *ZoneMap
	equiv    *Equivalence
	state    State
	nextZone ZoneID
	revision uint64
}

// NewProcessor creates a processor in StateUnprocessed.
func NewProcessor(reg *Registry, opts Options) *Processor {
	p := &Processor{
		tiles:    reg.Tiles(),
		gateways: reg,
		opts:     opts,
	}
	p.Reset()
	return p
}

// Reset discards every result and returns to StateUnprocessed: a blank zone
// map, cleared gateway zones and links, and an empty equivalence table.
func (p *Processor) Reset() {
	p.zones = NewZoneMap(p.tiles.Width(), p.tiles.Height())
	p.equiv = NewEquivalence()
	p.nextZone = 1
	p.state = StateUnprocessed
	p.gateways.Each(func(g *Gateway) {
		g.Zone1, g.Zone2 = NoZone, NoZone
		g.Links = nil
		g.Zone1Links, g.Zone2Links = 0, 0
	})
}

// State returns the current processing state.
func (p *Processor) State() State {
	return p.state
}

// Zones returns the zone map being built.
func (p *Processor) Zones() *ZoneMap {
	return p.zones
}

// Equivalence returns the water zone equivalence table.
func (p *Processor) Equivalence() *Equivalence {
	return p.equiv
}

// Gateways returns the registry being processed.
func (p *Processor) Gateways() *Registry {
	return p.gateways
}

// NumZones returns the number of zones allocated so far.
func (p *Processor) NumZones() int {
	return int(p.nextZone) - 1
}

// Run performs every remaining step up to StateGatewaysLinked.
func (p *Processor) Run() error {
	if p.state == StateUnprocessed {
		if err := p.SeedZones(); err != nil {
			return err
		}
	}
	if p.state == StateZonesSeeded {
		if err := p.CompleteZones(); err != nil {
			return err
		}
	}
	if p.state == StateZonesComplete {
		return p.LinkGateways()
	}
	if p.state != StateGatewaysLinked {
		return fmt.Errorf("%w: cannot run from state %s", ErrWrongState, p.state)
	}
	return nil
}

// SeedZones flood fills outwards from both sides of every gateway.
func (p *Processor) SeedZones() error {
	if err := p.expect(StateUnprocessed, "seed zones"); err != nil {
		return err
	}
	p.revision = p.gateways.Revision()

	for _, g := range p.gateways.All() {
		if err := p.seedGateway(g); err != nil {
			return p.fail(err)
		}
	}

	p.advance(StateZonesSeeded, fmt.Sprintf("seeded %d zones from %d gateways", p.NumZones(), p.gateways.Count()))
	return nil
}

func (p *Processor) seedGateway(g *Gateway) error {
	if g.IsWaterLink() {
		if g.Zone1 == NoZone {
			pt, ok := waterLinkProbe(p.tiles, g)
			if !ok {
				log.Printf("Warning: %s has no passable tile, giving it its own zone", g)
				z, err := p.allocate()
				if err != nil {
					return err
				}
				g.Zone1 = z
			} else {
				z, err := p.resolve(pt)
				if err != nil {
					return err
				}
				g.Zone1 = z
			}
		}
		// A water link sitting on another gateway's tile leaves it alone.
		if !p.tiles.GatewayFlag(g.X1, g.Y1) {
			p.stamp(g)
		}
		return nil
	}

	p1, ok1 := gatewayProbe(p.tiles, g, sideZone1)
	p2, ok2 := gatewayProbe(p.tiles, g, sideZone2)

	var err error
	if g.Zone1 == NoZone && ok1 {
		if g.Zone1, err = p.resolve(p1); err != nil {
			return err
		}
	}
	if g.Zone2 == NoZone && ok2 {
		if g.Zone2, err = p.resolve(p2); err != nil {
			return err
		}
	}

	switch {
	case g.Zone1 == NoZone && g.Zone2 == NoZone:
		log.Printf("Warning: %s has no passable tile on either side, giving it its own zone", g)
		z, err := p.allocate()
		if err != nil {
			return err
		}
		g.Zone1, g.Zone2 = z, z
	case g.Zone1 == NoZone:
		log.Printf("Warning: %s is blocked on its first side", g)
		g.Zone1 = g.Zone2
	case g.Zone2 == NoZone:
		log.Printf("Warning: %s is blocked on its second side", g)
		g.Zone2 = g.Zone1
	}

	p.stamp(g)
	return nil
}

// resolve returns the zone at pt, filling a new zone from it if it has none.
func (p *Processor) resolve(pt Point) (ZoneID, error) {
	if z := p.zones.Zone(pt.X, pt.Y); z != NoZone {
		return z, nil
	}
	z, err := p.allocate()
	if err != nil {
		return NoZone, err
	}
	if err := p.fill(pt, z); err != nil {
		return NoZone, err
	}
	return z, nil
}

func (p *Processor) fill(pt Point, z ZoneID) error {
	mode := ModeFor(p.tiles, pt.X, pt.Y)
	if _, err := Fill(p.zones, pt.X, pt.Y, z, ModeBlocker(p.tiles, mode), p.opts.FillStackLimit); err != nil {
		return fmt.Errorf("%s fill of zone %d from (%d,%d): %w", mode, z, pt.X, pt.Y, err)
	}
	return nil
}

// stamp writes a gateway's first zone onto every tile it covers.
func (p *Processor) stamp(g *Gateway) {
	if g.Vertical() {
		for y := g.Y1; y <= g.Y2; y++ {
			p.zones.SetZone(g.X1, y, g.Zone1)
		}
		return
	}
	p.zones.FillSpan(g.Y1, g.X1, g.X2, g.Zone1)
}

func (p *Processor) allocate() (ZoneID, error) {
	if p.nextZone > MaxZones {
		return NoZone, fmt.Errorf("%w: map needs more than %d", ErrTooManyZones, MaxZones)
	}
	z := p.nextZone
	p.nextZone++
	return z, nil
}

// CompleteZones gives every tile the seeding pass did not reach a zone.
func (p *Processor) CompleteZones() error {
	if err := p.expect(StateZonesSeeded, "complete zones"); err != nil {
		return err
	}

	w, h := p.tiles.Width(), p.tiles.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !Passable(p.tiles, x, y) || p.zones.Zone(x, y) != NoZone {
				continue
			}
			z, err := p.allocate()
			if err != nil {
				return p.fail(err)
			}
			if err := p.fill(Point{x, y}, z); err != nil {
				return p.fail(err)
			}
		}
	}

	if err := p.smooth(); err != nil {
		return p.fail(err)
	}

	p.advance(StateZonesComplete, fmt.Sprintf("map covered by %d zones", p.NumZones()))
	return nil
}

// smooth stitches blocking tiles still at NoZone into a neighbouring zone so
// the finished map has no unassigned tile.
func (p *Processor) smooth() error {
	w, h := p.tiles.Width(), p.tiles.Height()
	rows := make([][]ZoneID, h)
	for y := 0; y < h; y++ {
		buf := p.zones.Row(y)

		prev := NoZone
		for x := 0; x < w; x++ {
			blocking := !Passable(p.tiles, x, y)
			switch {
			case blocking && buf[x] == NoZone:
				buf[x] = prev
			case !blocking && buf[x] != NoZone:
				prev = buf[x]
			}
		}
		// Blocking tiles at the start of the row take the zone to their right.
		next := NoZone
		for x := w - 1; x >= 0; x-- {
			if buf[x] == NoZone {
				buf[x] = next
			} else {
				next = buf[x]
			}
		}
		rows[y] = buf
	}

	// Rows that are blocking end to end copy a neighbouring row.
	for y := 1; y < h; y++ {
		copyUnassigned(rows[y], rows[y-1])
	}
	for y := h - 2; y >= 0; y-- {
		copyUnassigned(rows[y], rows[y+1])
	}

	var fallback ZoneID
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if rows[y][x] != NoZone {
				continue
			}
			if fallback == NoZone {
				z, err := p.allocate()
				if err != nil {
					return err
				}
				log.Printf("Warning: map has no passable tile, using zone %d for all of it", z)
				fallback = z
			}
			rows[y][x] = fallback
		}
		p.zones.SetRow(y, rows[y])
	}

	if pt, ok := p.zones.Unassigned(); ok {
		return fmt.Errorf("%w: (%d,%d)", ErrUnassignedZone, pt.X, pt.Y)
	}
	return nil
}

func copyUnassigned(dst, src []ZoneID) {
	for x := range dst {
		if dst[x] == NoZone {
			dst[x] = src[x]
		}
	}
}

// LinkGateways builds the equivalence table and then the gateway graph.
func (p *Processor) LinkGateways() error {
	if err := p.expect(StateZonesComplete, "link gateways"); err != nil {
		return err
	}

	p.equiv = BuildEquivalence(p.tiles, p.zones)
	links := BuildGraph(p.zones, p.gateways, p.equiv)

	p.advance(StateGatewaysLinked, fmt.Sprintf("linked %d gateways with %d links", p.gateways.Count(), links))
	return nil
}

func (p *Processor) expect(want State, step string) error {
	if p.state != want {
		return fmt.Errorf("%w: cannot %s in state %s", ErrWrongState, step, p.state)
	}
	if want != StateUnprocessed && p.gateways.Revision() != p.revision {
		p.state = StateFailed
		return fmt.Errorf("%w: reset before trying to %s", ErrRegistryChanged, step)
	}
	return nil
}

func (p *Processor) fail(err error) error {
	p.state = StateFailed
	return err
}

func (p *Processor) advance(s State, msg string) {
	p.state = s
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(Progress{
			State:    s,
			Zones:    p.NumZones(),
			Gateways: p.gateways.Count(),
			Message:  msg,
		})
	}
}
