package server

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strconv"

	"zonegraph/internal/database"
	"zonegraph/internal/protocol"
	"zonegraph/pkg/maps"
	"zonegraph/pkg/zones"
)

// ErrMapNotFound is returned when a request names an unknown sample map.
var ErrMapNotFound = errors.New("map not found")

// ErrNoMap is returned when a request carries neither a map ID nor a map.
var ErrNoMap = errors.New("no map given")

// result is the outcome of one processing request.
type result struct {
	Map    *maps.Map
	Layout *database.Layout // nil unless stored
}

// resolveMap returns the raw map a request refers to.
func resolveMap(req protocol.ProcessMapPayload) (*maps.RawMap, error) {
	if req.Map != nil {
		raw := &maps.RawMap{
			ID:       req.Map.ID,
			Name:     req.Map.Name,
			Width:    req.Map.Width,
			Height:   req.Map.Height,
			Rows:     req.Map.Rows,
			Gateways: req.Map.Gateways,
		}
		if err := maps.Validate(raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	if req.MapID == "" {
		return nil, ErrNoMap
	}
	m := maps.Get(req.MapID)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, req.MapID)
	}
	return m.Raw(), nil
}

// process runs a processing request, reporting each step to onProgress,
// and stores the result as a layout when asked to.
func (s *Server) process(req protocol.ProcessMapPayload, onProgress func(zones.Progress)) (*result, error) {
	raw, err := resolveMap(req)
	if err != nil {
		return nil, err
	}

	var steps []zones.Progress
	opts := zones.Options{
		FillStackLimit: fillLimit(s.cfg.FillStackLimit, req.FillStackLimit),
		OnProgress: func(p zones.Progress) {
			steps = append(steps, p)
			if onProgress != nil {
				onProgress(p)
			}
		},
	}

	m, err := maps.Process(raw, opts)
	if err != nil {
		log.Printf("Processing map %s failed: %v", raw.ID, err)
		return nil, err
	}
	log.Printf("Processed map %s: %d zones, %d gateways, %d links", m.ID, m.Stats.Zones, m.Stats.Gateways, m.Stats.Links)

	res := &result{Map: m}
	if !req.Store {
		return res, nil
	}

	layout, err := layoutFromMap(m)
	if err != nil {
		return nil, err
	}
	res.Layout, err = s.db.SaveLayout(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to save layout: %w", err)
	}

	for _, p := range steps {
		if err := s.db.AddRunEvent(res.Layout.ID, p.State.String(), p.Zones, p.Gateways, p.Message); err != nil {
			log.Printf("Failed to record run event: %v", err)
		}
	}
	if err := s.db.AddRunEvent(res.Layout.ID, database.RunStateStored, m.Stats.Zones, m.Stats.Gateways, "stored as "+res.Layout.ShareCode); err != nil {
		log.Printf("Failed to record run event: %v", err)
	}

	return res, nil
}

// fillLimit returns the fill stack limit for a request. A request may lower
// the server's limit but never raise it.
func fillLimit(configured, requested int) int {
	limit := configured
	if limit <= 0 {
		limit = zones.DefaultFillStackLimit
	}
	if requested > 0 && requested < limit {
		return requested
	}
	return limit
}

// maxResultSize returns the largest process_result payload a client will
// accept, leaving room for the message envelope.
func (s *Server) maxResultSize() int {
	if s.cfg.MaxResultSize > 0 {
		return s.cfg.MaxResultSize
	}
	return protocol.MaxMessageSize - 4096
}

// layoutFromMap converts a processed map into its stored form.
func layoutFromMap(m *maps.Map) (*database.Layout, error) {
	var buf bytes.Buffer
	if err := zones.EncodeZoneMap(&buf, m.Zones, m.Equivalence); err != nil {
		return nil, err
	}

	raw := m.Raw()
	l := &database.Layout{
		LayoutInfo: database.LayoutInfo{
			Name:   m.Name,
			MapID:  m.ID,
			Width:  raw.Width,
			Height: raw.Height,
		},
		Rows:     raw.Rows,
		Gateways: raw.Gateways,
		ZoneMap:  buf.Bytes(),
		Stats:    m.Stats,
	}

	// Links refer to gateways by list position, which survives a reload
	all := m.Gateways.All()
	index := make(map[zones.GatewayID]int, len(all))
	for i, g := range all {
		index[g.ID] = i
	}
	for i, g := range all {
		for _, link := range g.Side1Links() {
			l.Links = append(l.Links, database.LayoutLink{Gateway: i, Side: 1, Target: index[link.Gateway], Distance: link.Distance})
		}
		for _, link := range g.Side2Links() {
			l.Links = append(l.Links, database.LayoutLink{Gateway: i, Side: 2, Target: index[link.Gateway], Distance: link.Distance})
		}
	}
	return l, nil
}

// resultPayload builds the process_result payload for a processed map.
func resultPayload(res *result) (protocol.ProcessResultPayload, error) {
	m := res.Map
	var buf bytes.Buffer
	if err := zones.EncodeZoneMap(&buf, m.Zones, m.Equivalence); err != nil {
		return protocol.ProcessResultPayload{}, err
	}

	payload := protocol.ProcessResultPayload{
		MapID:   m.ID,
		Stats:   statsInfo(m.Stats),
		ZoneMap: buf.Bytes(),
	}
	if res.Layout != nil {
		payload.LayoutID = res.Layout.ID
		payload.ShareCode = res.Layout.ShareCode
	}

	m.Gateways.Each(func(g *zones.Gateway) {
		payload.Gateways = append(payload.Gateways, gatewayInfo(g))
	})

	if m.Equivalence.Len() > 0 {
		payload.Equivalence = make(map[string][]int)
		for _, z := range m.Equivalence.Zones() {
			ids := make([]int, 0, m.Equivalence.Count(z))
			for _, e := range m.Equivalence.Of(z) {
				ids = append(ids, int(e))
			}
			payload.Equivalence[strconv.Itoa(int(z))] = ids
		}
	}
	return payload, nil
}

func gatewayInfo(g *zones.Gateway) protocol.GatewayInfo {
	info := protocol.GatewayInfo{
		ID:    uint32(g.ID),
		X1:    g.X1,
		Y1:    g.Y1,
		X2:    g.X2,
		Y2:    g.Y2,
		Zone1: uint32(g.Zone1),
		Zone2: uint32(g.Zone2),
		Flags: uint8(g.Flags),
	}
	for _, l := range g.Side1Links() {
		info.Side1 = append(info.Side1, protocol.LinkInfo{Gateway: uint32(l.Gateway), Distance: l.Distance})
	}
	for _, l := range g.Side2Links() {
		info.Side2 = append(info.Side2, protocol.LinkInfo{Gateway: uint32(l.Gateway), Distance: l.Distance})
	}
	return info
}

func statsInfo(s zones.Stats) protocol.StatsInfo {
	return protocol.StatsInfo{
		Zones:        s.Zones,
		Gateways:     s.Gateways,
		WaterLinks:   s.WaterLinks,
		Links:        s.Links,
		Equivalences: s.Equivalences,
		LinkedZones:  s.LinkedZones,
	}
}

func mapInfos() []protocol.MapInfo {
	list := maps.List()
	infos := make([]protocol.MapInfo, 0, len(list))
	for _, m := range list {
		infos = append(infos, protocol.MapInfo{
			ID:           m.ID,
			Name:         m.Name,
			Width:        m.Width,
			Height:       m.Height,
			GatewayCount: m.GatewayCount,
			ZoneCount:    m.ZoneCount,
		})
	}
	return infos
}

func layoutInfo(l *database.LayoutInfo) protocol.LayoutInfo {
	return protocol.LayoutInfo{
		ID:           l.ID,
		Name:         l.Name,
		ShareCode:    l.ShareCode,
		MapID:        l.MapID,
		Width:        l.Width,
		Height:       l.Height,
		ZoneCount:    l.ZoneCount,
		GatewayCount: l.GatewayCount,
		CreatedAt:    l.CreatedAt.UnixMilli(),
	}
}

// errorCode maps a processing error to its protocol code.
func errorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, ErrMapNotFound):
		return protocol.ErrCodeMapNotFound
	case errors.Is(err, database.ErrLayoutNotFound), errors.Is(err, database.ErrShareCodeNotFound):
		return protocol.ErrCodeLayoutNotFound
	case errors.Is(err, zones.ErrTooManyZones), errors.Is(err, zones.ErrZoneOverflow):
		return protocol.ErrCodeTooManyZones
	case errors.Is(err, maps.ErrInvalidMap), errors.Is(err, zones.ErrInvalidGeometry), errors.Is(err, ErrNoMap):
		return protocol.ErrCodeInvalidMap
	case errors.Is(err, zones.ErrFillOverflow), errors.Is(err, zones.ErrUnassignedZone):
		return protocol.ErrCodeProcessFailed
	default:
		return protocol.ErrCodeInternalError
	}
}
