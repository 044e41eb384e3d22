package maps

import (
	"fmt"
	"math/rand"
	"time"
)

// GeneratorOptions contains settings for map generation.
type GeneratorOptions struct {
	Width      int   // Map width: 8-200
	Height     int   // Map height: 8-200
	Water      int   // Water coverage percentage: 0-70
	Cliffs     int   // Number of cliff ridges: 0-20
	Gateways   int   // Number of land/water gateways: 0-60
	WaterLinks int   // Number of coastal water links: 0-30
	Seed       int64 // 0 picks a seed from the clock
}

// Generator handles procedural map generation.
type Generator struct {
	options  GeneratorOptions
	rng      *rand.Rand
	seed     int64
	width    int
	height   int
	grid     *Grid
	gateways [][]int
}

// NewGenerator creates a new map generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		options: opts,
		rng:     rand.New(rand.NewSource(seed)),
		seed:    seed,
		width:   clamp(opts.Width, 8, 200),
		height:  clamp(opts.Height, 8, 200),
	}
}

// clamp restricts a value to a range
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Seed returns the seed the generator was started from.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Generate creates a raw map ready for Process.
func (g *Generator) Generate() *RawMap {
	g.grid = NewGrid(g.width, g.height)
	g.gateways = nil

	g.placeWater(clamp(g.options.Water, 0, 70))
	g.placeCliffs(clamp(g.options.Cliffs, 0, 20))
	g.placeGateways(clamp(g.options.Gateways, 0, 60))
	g.placeWaterLinks(clamp(g.options.WaterLinks, 0, 30))

	return &RawMap{
		ID:       fmt.Sprintf("generated-%d", g.seed),
		Name:     fmt.Sprintf("Generated %dx%d", g.width, g.height),
		Width:    g.width,
		Height:   g.height,
		Rows:     g.grid.Rows(),
		Gateways: g.gateways,
	}
}

// placeWater grows lakes from random seeds until the target coverage is met.
func (g *Generator) placeWater(percent int) {
	target := g.width * g.height * percent / 100
	placed := 0
	dirs := [][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

	for attempts := 0; placed < target && attempts < 50; attempts++ {
		x, y := g.rng.Intn(g.width), g.rng.Intn(g.height)
		size := 4 + g.rng.Intn(target/4+4)
		frontier := [][2]int{{x, y}}

		for len(frontier) > 0 && size > 0 && placed < target {
			i := g.rng.Intn(len(frontier))
			cell := frontier[i]
			frontier[i] = frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]

			if g.grid.At(cell[0], cell[1]) != TileLand {
				continue
			}
			g.grid.Set(cell[0], cell[1], TileWater)
			placed++
			size--

			for _, d := range dirs {
				nx, ny := cell[0]+d[0], cell[1]+d[1]
				if g.grid.InBounds(nx, ny) && g.grid.At(nx, ny) == TileLand {
					frontier = append(frontier, [2]int{nx, ny})
				}
			}
		}
	}
}

// placeCliffs draws straight ridges across land. Ridges stop at water.
func (g *Generator) placeCliffs(n int) {
	for i := 0; i < n; i++ {
		x, y := g.rng.Intn(g.width), g.rng.Intn(g.height)
		length := 3 + g.rng.Intn(max(g.width, g.height)/2)
		dx, dy := 1, 0
		if g.rng.Intn(2) == 0 {
			dx, dy = 0, 1
		}
		for j := 0; j < length && g.grid.At(x, y) == TileLand; j++ {
			g.grid.Set(x, y, TileCliff)
			x, y = x+dx, y+dy
		}
	}
}

// placeGateways adds short straight gateways that lie entirely on one kind
// of passable terrain.
func (g *Generator) placeGateways(n int) {
	for placed, attempts := 0, 0; placed < n && attempts < n*20; attempts++ {
		x1, y1 := g.rng.Intn(g.width), g.rng.Intn(g.height)
		length := 2 + g.rng.Intn(5)
		x2, y2 := x1+length-1, y1
		if g.rng.Intn(2) == 0 {
			x2, y2 = x1, y1+length-1
		}
		if !g.uniform(x1, y1, x2, y2) {
			continue
		}
		g.gateways = append(g.gateways, []int{x1, y1, x2, y2})
		placed++
	}
}

// placeWaterLinks puts single tile water links on coastal land.
func (g *Generator) placeWaterLinks(n int) {
	for placed, attempts := 0, 0; placed < n && attempts < n*50; attempts++ {
		x, y := g.rng.Intn(g.width), g.rng.Intn(g.height)
		if g.grid.At(x, y) != TileLand || !g.coastal(x, y) {
			continue
		}
		g.gateways = append(g.gateways, []int{x, y, x, y, 1})
		placed++
	}
}

// uniform reports whether every tile of the segment is in bounds and
// shares the terrain of the first, which must not be cliff.
func (g *Generator) uniform(x1, y1, x2, y2 int) bool {
	if !g.grid.InBounds(x2, y2) {
		return false
	}
	first := g.grid.At(x1, y1)
	if first == TileCliff {
		return false
	}
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if g.grid.At(x, y) != first {
				return false
			}
		}
	}
	return true
}

func (g *Generator) coastal(x, y int) bool {
	return g.grid.IsWater(x-1, y) || g.grid.IsWater(x+1, y) ||
		g.grid.IsWater(x, y-1) || g.grid.IsWater(x, y+1)
}
