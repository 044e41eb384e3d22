package zones

import "fmt"

// DefaultFillStackLimit caps the number of pending segments a single fill may
// hold before it gives up with ErrFillOverflow.
const DefaultFillStackLimit = 1 << 16

// FillMode selects which terrain a fill may spread across.
type FillMode int

const (
	ModeLand FillMode = iota
	ModeWater
)

func (m FillMode) String() string {
	switch m {
	case ModeLand:
		return "land"
	case ModeWater:
		return "water"
	default:
		return "unknown"
	}
}

// Blocker decides whether a fill may enter a tile.
type Blocker interface {
	Blocked(x, y int) bool
}

// BlockerFunc adapts a function to the Blocker interface.
type BlockerFunc func(x, y int) bool

// Blocked calls f(x, y).
func (f BlockerFunc) Blocked(x, y int) bool {
	return f(x, y)
}

// ModeBlocker returns the blocking policy for a fill mode. Land fills stop at
// cliffs, water and gateways; water fills stop at anything that is not water
// and at gateways.
func ModeBlocker(tiles TileMap, mode FillMode) Blocker {
	if mode == ModeWater {
		return BlockerFunc(func(x, y int) bool {
			return !tiles.IsWater(x, y) || tiles.GatewayFlag(x, y)
		})
	}
	return BlockerFunc(func(x, y int) bool {
		return tiles.IsCliffFace(x, y) || tiles.IsWater(x, y) || tiles.GatewayFlag(x, y)
	})
}

// ModeFor returns the fill mode matching the terrain at (x,y).
func ModeFor(tiles TileMap, x, y int) FillMode {
	if tiles.IsWater(x, y) {
		return ModeWater
	}
	return ModeLand
}

// Passable reports whether a fill in the tile's own mode could enter it.
func Passable(tiles TileMap, x, y int) bool {
	if tiles.GatewayFlag(x, y) {
		return false
	}
	return tiles.IsWater(x, y) || !tiles.IsCliffFace(x, y)
}

// segment is a pending span of row y+dy to scan, discovered from row y.
type segment struct {
	y, xl, xr, dy int
}

// Fill relabels the 4-connected region around (x,y) whose tiles share the
// seed's current zone and are not blocked. A nil Blocker makes it a plain
// bucket fill. Tiles off the map always block. limit caps the segment stack;
// 0 means DefaultFillStackLimit. Fill returns the number of tiles relabelled.
//
// A fill that overflows stops with ErrFillOverflow and leaves the tiles it
// had already reached relabelled.
func Fill(zm *ZoneMap, x, y int, zone ZoneID, blocked Blocker, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultFillStackLimit
	}
	if !zm.Contains(x, y) {
		return 0, nil
	}
	old := zm.Zone(x, y)
	if old == zone {
		return 0, nil
	}

	inside := func(x, y int) bool {
		if !zm.Contains(x, y) {
			return false
		}
		if blocked != nil && blocked.Blocked(x, y) {
			return false
		}
		return zm.Zone(x, y) == old
	}
	if !inside(x, y) {
		return 0, nil
	}

	stack := make([]segment, 0, 64)
	push := func(y, xl, xr, dy int) error {
		if y+dy < 0 || y+dy >= zm.height {
			return nil
		}
		if len(stack) >= limit {
			return fmt.Errorf("%w: %d segments pending at row %d", ErrFillOverflow, len(stack), y+dy)
		}
		stack = append(stack, segment{y, xl, xr, dy})
		return nil
	}

	filled := 0
	if err := push(y, x, x, 1); err != nil {
		return filled, err
	}
	if err := push(y+1, x, x, -1); err != nil {
		return filled, err
	}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		y := s.y + s.dy
		x1, x2, dy := s.xl, s.xr, s.dy

		// Extend left from x1.
		x := x1
		for x >= 0 && inside(x, y) {
			x--
		}
		var l int
		scan := false
		if x < x1 {
			l = x + 1
			zm.FillSpan(y, l, x1, zone)
			filled += x1 - l + 1
			if l < x1 {
				// Leak on the left: the span reaches past the parent.
				if err := push(y, l, x1-1, -dy); err != nil {
					return filled, err
				}
			}
			x = x1 + 1
			scan = true
		} else {
			x = x1 + 1
			for x <= x2 && !inside(x, y) {
				x++
			}
			l = x
			scan = x <= x2
		}

		for scan {
			start := x
			for x < zm.width && inside(x, y) {
				x++
			}
			if x > start {
				zm.FillSpan(y, start, x-1, zone)
				filled += x - start
			}
			if err := push(y, l, x-1, dy); err != nil {
				return filled, err
			}
			if x > x2+1 {
				// Leak on the right.
				if err := push(y, x2+1, x-1, -dy); err != nil {
					return filled, err
				}
			}
			x++
			for x <= x2 && !inside(x, y) {
				x++
			}
			l = x
			scan = x <= x2
		}
	}
	return filled, nil
}
