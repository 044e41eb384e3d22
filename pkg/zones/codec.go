package zones

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ZoneMapVersion is written at the head of every encoded zone map.
const ZoneMapVersion = 1

type zoneMapHeader struct {
	Version uint32
	Rows    uint32
	Zones   uint32
}

// EncodeZoneMap writes the zone map and equivalence table in the stored
// binary format: a header, each row as a uint16 byte count followed by
// (count, zone) byte pairs, then for every zone id 1..N a count byte and
// that many equivalent zone ids. All integers are little-endian.
func EncodeZoneMap(w io.Writer, zm *ZoneMap, eq *Equivalence) error {
	numZones := zm.MaxZone()
	for _, z := range eq.Zones() {
		if z > numZones {
			numZones = z
		}
	}
	if numZones > MaxZones {
		return fmt.Errorf("%w: zone %d", ErrZoneOverflow, numZones)
	}

	bw := bufio.NewWriter(w)
	hdr := zoneMapHeader{
		Version: ZoneMapVersion,
		Rows:    uint32(zm.NumRows()),
		Zones:   uint32(numZones),
	}
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return err
	}

	for y := 0; y < zm.NumRows(); y++ {
		size := zm.RowByteSize(y)
		if size > math.MaxUint16 {
			return fmt.Errorf("%w: row %d needs %d bytes", ErrZoneOverflow, y, size)
		}
		buf := make([]byte, 0, 2+size)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(size))
		for _, run := range zm.rows[y] {
			for left := run.Count; left > 0; left -= 255 {
				n := left
				if n > 255 {
					n = 255
				}
				buf = append(buf, byte(n), byte(run.Zone))
			}
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	for z := ZoneID(1); z <= numZones; z++ {
		list := eq.Of(z)
		buf := make([]byte, 0, 1+len(list))
		buf = append(buf, byte(len(list)))
		for _, e := range list {
			buf = append(buf, byte(e))
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeZoneMap reads a zone map written by EncodeZoneMap. The map width is
// taken from the run total of the first row; every row must agree with it.
// Equivalence lists are restored exactly as stored.
func DecodeZoneMap(r io.Reader) (*ZoneMap, *Equivalence, error) {
	br := bufio.NewReader(r)

	var hdr zoneMapHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrBadFormat, err)
	}
	if hdr.Version != ZoneMapVersion {
		return nil, nil, fmt.Errorf("%w: version %d, want %d", ErrBadFormat, hdr.Version, ZoneMapVersion)
	}
	if hdr.Zones > MaxZones {
		return nil, nil, fmt.Errorf("%w: %d zones", ErrBadFormat, hdr.Zones)
	}

	rows := make([][]Run, 0, min(int(hdr.Rows), maxCountHint))
	width := -1
	for y := 0; y < int(hdr.Rows); y++ {
		var size uint16
		if err := binary.Read(br, binary.LittleEndian, &size); err != nil {
			return nil, nil, fmt.Errorf("%w: row %d size: %v", ErrBadFormat, y, err)
		}
		if size%2 != 0 {
			return nil, nil, fmt.Errorf("%w: row %d has odd byte count %d", ErrBadFormat, y, size)
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %v", ErrBadFormat, y, err)
		}

		total := 0
		runs := make([]Run, 0, len(data)/2)
		for i := 0; i < len(data); i += 2 {
			count, zone := int(data[i]), ZoneID(data[i+1])
			total += count
			if n := len(runs); n > 0 && runs[n-1].Zone == zone {
				runs[n-1].Count += count
				continue
			}
			runs = append(runs, Run{Count: count, Zone: zone})
		}
		if width < 0 {
			width = total
		} else if total != width {
			return nil, nil, fmt.Errorf("%w: row %d covers %d tiles, want %d", ErrBadFormat, y, total, width)
		}
		rows = append(rows, runs)
	}
	if width < 0 {
		width = 0
	}

	eq := NewEquivalence()
	for z := ZoneID(1); z <= ZoneID(hdr.Zones); z++ {
		count, err := br.ReadByte()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: equivalence of zone %d: %v", ErrBadFormat, z, err)
		}
		ids := make([]byte, count)
		if _, err := io.ReadFull(br, ids); err != nil {
			return nil, nil, fmt.Errorf("%w: equivalence of zone %d: %v", ErrBadFormat, z, err)
		}
		for _, id := range ids {
			eq.addOne(z, ZoneID(id))
		}
	}

	return &ZoneMap{width: width, height: len(rows), rows: rows}, eq, nil
}
