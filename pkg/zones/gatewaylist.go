package zones

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxCountHint caps capacity hints taken from counts in untrusted input.
const maxCountHint = 1024

// GatewaySpec is one entry of a gateway list file.
type GatewaySpec struct {
	X1, Y1, X2, Y2 int
	Flags          GatewayFlags
}

// ParseGatewayList reads the text gateway list format: a first line holding
// the gateway count, then one gateway per line as "x1 y1 x2 y2". An optional
// fifth field holds the gateway flags. Blank lines are ignored.
func ParseGatewayList(r io.Reader) ([]GatewaySpec, error) {
	sc := bufio.NewScanner(r)
	line := 0
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, true
			}
		}
		return "", false
	}

	first, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty gateway list", ErrBadFormat)
	}
	count, err := strconv.Atoi(first)
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: line %d: bad gateway count %q", ErrBadFormat, line, first)
	}

	specs := make([]GatewaySpec, 0, min(count, maxCountHint))
	for len(specs) < count {
		s, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: expected %d gateways, found %d", ErrBadFormat, count, len(specs))
		}
		fields := strings.Fields(s)
		if len(fields) != 4 && len(fields) != 5 {
			return nil, fmt.Errorf("%w: line %d: want 4 or 5 fields, got %d", ErrBadFormat, line, len(fields))
		}
		var v [5]int
		for i, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q is not a number", ErrBadFormat, line, f)
			}
			v[i] = n
		}
		if v[4] < 0 || v[4] > int(FlagWaterLink) {
			return nil, fmt.Errorf("%w: line %d: bad gateway flags %d", ErrBadFormat, line, v[4])
		}
		specs = append(specs, GatewaySpec{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3], Flags: GatewayFlags(v[4])})
	}
	return specs, nil
}

// WriteGatewayList writes every gateway in the registry in the text format
// ParseGatewayList reads.
func WriteGatewayList(w io.Writer, reg *Registry) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", reg.Count())
	reg.Each(func(g *Gateway) {
		if g.Flags != 0 {
			fmt.Fprintf(bw, "%d %d %d %d %d\n", g.X1, g.Y1, g.X2, g.Y2, g.Flags)
			return
		}
		fmt.Fprintf(bw, "%d %d %d %d\n", g.X1, g.Y1, g.X2, g.Y2)
	})
	return bw.Flush()
}

// AddAll registers every spec. It stops at the first invalid one, leaving
// the gateways added before it in place.
func (r *Registry) AddAll(specs []GatewaySpec) error {
	for i, s := range specs {
		var err error
		if s.Flags&FlagWaterLink != 0 {
			_, err = r.AddWaterLink(s.X1, s.Y1)
		} else {
			_, err = r.Add(s.X1, s.Y1, s.X2, s.Y2)
		}
		if err != nil {
			return fmt.Errorf("gateway %d: %w", i, err)
		}
	}
	return nil
}
