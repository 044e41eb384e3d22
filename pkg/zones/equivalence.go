package zones

import (
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// Equivalence records which water zones touch each other across a single
// water tile. The relation is stored symmetrically: adding a~b also adds b~a.
type Equivalence struct {
	lists map[ZoneID][]ZoneID
	seen  map[ZoneID]mapset.Set[ZoneID]
}

// NewEquivalence creates an empty table.
func NewEquivalence() *Equivalence {
	return &Equivalence{
		lists: make(map[ZoneID][]ZoneID),
		seen:  make(map[ZoneID]mapset.Set[ZoneID]),
	}
}

// BuildEquivalence scans every interior water tile and records each
// orthogonal neighbour that is open water in a different zone.
func BuildEquivalence(tiles TileMap, zm *ZoneMap) *Equivalence {
	eq := NewEquivalence()
	w, h := tiles.Width(), tiles.Height()
	dirs := [4]Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if !tiles.IsWater(x, y) {
				continue
			}
			zone := zm.Zone(x, y)
			for _, d := range dirs {
				nx, ny := x+d.X, y+d.Y
				if !tiles.IsWater(nx, ny) || tiles.GatewayFlag(nx, ny) {
					continue
				}
				if nz := zm.Zone(nx, ny); nz != zone {
					eq.Add(zone, nz)
				}
			}
		}
	}
	return eq
}

// Add records a~b and b~a. It reports whether the pair was new.
func (eq *Equivalence) Add(a, b ZoneID) bool {
	if a == NoZone || b == NoZone || a == b {
		return false
	}
	added := eq.addOne(a, b)
	eq.addOne(b, a)
	return added
}

func (eq *Equivalence) addOne(a, b ZoneID) bool {
	set, ok := eq.seen[a]
	if !ok {
		set = mapset.New[ZoneID]()
		eq.seen[a] = set
	}
	if set.Has(b) {
		return false
	}
	set.Put(b)
	eq.lists[a] = append(eq.lists[a], b)
	return true
}

// Equivalent reports whether a and b are recorded as the same body of water.
func (eq *Equivalence) Equivalent(a, b ZoneID) bool {
	set, ok := eq.seen[a]
	return ok && set.Has(b)
}

// Of returns the zones equivalent to z in discovery order.
func (eq *Equivalence) Of(z ZoneID) []ZoneID {
	return eq.lists[z]
}

// Count returns the number of zones equivalent to z.
func (eq *Equivalence) Count(z ZoneID) int {
	return len(eq.lists[z])
}

// Len returns the number of zones with at least one equivalent.
func (eq *Equivalence) Len() int {
	return len(eq.lists)
}

// Pairs returns the number of unordered equivalent pairs.
func (eq *Equivalence) Pairs() int {
	n := 0
	for _, l := range eq.lists {
		n += len(l)
	}
	return n / 2
}

// Zones returns every zone with an equivalent, in ascending order.
func (eq *Equivalence) Zones() []ZoneID {
	out := make([]ZoneID, 0, len(eq.lists))
	for z := range eq.lists {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
