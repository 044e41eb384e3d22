package zones

import "fmt"

// Run is one run-length encoded stretch of a zone map row.
type Run struct {
	Count int
	Zone  ZoneID
}

// ZoneMap stores one zone id per tile, run-length encoded per row. The run
// counts of every row always sum to the map width.
type ZoneMap struct {
	width  int
	height int
	rows   [][]Run
}

// NewZoneMap creates a blank zone map where every tile is NoZone.
func NewZoneMap(width, height int) *ZoneMap {
	zm := &ZoneMap{
		width:  width,
		height: height,
		rows:   make([][]Run, height),
	}
	for y := range zm.rows {
		zm.rows[y] = []Run{{Count: width, Zone: NoZone}}
	}
	return zm
}

// Width returns the number of tiles per row.
func (zm *ZoneMap) Width() int {
	return zm.width
}

// Height returns the number of rows.
func (zm *ZoneMap) Height() int {
	return zm.height
}

// NumRows returns the number of stored rows.
func (zm *ZoneMap) NumRows() int {
	return len(zm.rows)
}

// Contains reports whether (x,y) lies on the map.
func (zm *ZoneMap) Contains(x, y int) bool {
	return x >= 0 && x < zm.width && y >= 0 && y < zm.height
}

// Zone returns the zone of tile (x,y). It panics if the tile is off the map.
func (zm *ZoneMap) Zone(x, y int) ZoneID {
	zm.mustContain(x, y)
	pos := 0
	for _, run := range zm.rows[y] {
		pos += run.Count
		if x < pos {
			return run.Zone
		}
	}
	panic(fmt.Sprintf("zones: row %d runs cover %d of %d tiles", y, pos, zm.width))
}

// SetZone changes the zone of a single tile. The whole row is decoded and
// re-encoded, so callers touching many tiles of a row should use FillSpan or
// Row/SetRow instead.
func (zm *ZoneMap) SetZone(x, y int, zone ZoneID) {
	zm.FillSpan(y, x, x, zone)
}

// FillSpan sets tiles x1..x2 (inclusive) of row y to zone.
func (zm *ZoneMap) FillSpan(y, x1, x2 int, zone ZoneID) {
	zm.mustContain(x1, y)
	zm.mustContain(x2, y)
	buf := DecompressRow(zm.rows[y], zm.width)
	for x := x1; x <= x2; x++ {
		buf[x] = zone
	}
	zm.rows[y] = CompressRow(buf)
}

// Row returns a decoded copy of row y.
func (zm *ZoneMap) Row(y int) []ZoneID {
	zm.mustContain(0, y)
	return DecompressRow(zm.rows[y], zm.width)
}

// SetRow replaces row y with the encoding of buf, which must be width long.
func (zm *ZoneMap) SetRow(y int, buf []ZoneID) {
	zm.mustContain(0, y)
	if len(buf) != zm.width {
		panic(fmt.Sprintf("zones: row of %d tiles on a %d wide map", len(buf), zm.width))
	}
	zm.rows[y] = CompressRow(buf)
}

// Runs returns a copy of the encoded runs of row y.
func (zm *ZoneMap) Runs(y int) []Run {
	zm.mustContain(0, y)
	out := make([]Run, len(zm.rows[y]))
	copy(out, zm.rows[y])
	return out
}

// RowByteSize returns the number of bytes row y occupies in the stored
// format, where each run is a (count, zone) byte pair and runs longer than
// 255 tiles are split.
func (zm *ZoneMap) RowByteSize(y int) int {
	zm.mustContain(0, y)
	n := 0
	for _, run := range zm.rows[y] {
		n += 2 * ((run.Count + 254) / 255)
	}
	return n
}

// MaxZone returns the highest zone id present on the map.
func (zm *ZoneMap) MaxZone() ZoneID {
	var max ZoneID
	for _, row := range zm.rows {
		for _, run := range row {
			if run.Zone > max {
				max = run.Zone
			}
		}
	}
	return max
}

// Unassigned returns the first tile still at NoZone.
func (zm *ZoneMap) Unassigned() (Point, bool) {
	for y, row := range zm.rows {
		x := 0
		for _, run := range row {
			if run.Zone == NoZone {
				return Point{x, y}, true
			}
			x += run.Count
		}
	}
	return Point{}, false
}

func (zm *ZoneMap) mustContain(x, y int) {
	if !zm.Contains(x, y) {
		panic(fmt.Sprintf("zones: tile (%d,%d) outside %dx%d zone map", x, y, zm.width, zm.height))
	}
}

// CompressRow run-length encodes a row, merging equal neighbours.
func CompressRow(buf []ZoneID) []Run {
	if len(buf) == 0 {
		return nil
	}
	runs := make([]Run, 0, 4)
	cur := Run{Count: 1, Zone: buf[0]}
	for _, z := range buf[1:] {
		if z == cur.Zone {
			cur.Count++
			continue
		}
		runs = append(runs, cur)
		cur = Run{Count: 1, Zone: z}
	}
	return append(runs, cur)
}

// DecompressRow expands runs into a width-long buffer. Tiles the runs do not
// cover are left at NoZone and excess run length is ignored.
func DecompressRow(runs []Run, width int) []ZoneID {
	buf := make([]ZoneID, width)
	x := 0
	for _, run := range runs {
		for i := 0; i < run.Count && x < width; i++ {
			buf[x] = run.Zone
			x++
		}
	}
	return buf
}
