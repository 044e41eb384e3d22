package maps

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"zonegraph/pkg/zones"
)

//go:embed data/*.json
var mapFiles embed.FS

// Registry holds all loaded maps.
var Registry = make(map[string]*Map)

// LoadAll loads and processes all embedded maps.
func LoadAll() error {
	entries, err := mapFiles.ReadDir("data")
	if err != nil {
		return fmt.Errorf("failed to read map directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		mapData, err := Load(entry.Name())
		if err != nil {
			return fmt.Errorf("failed to load map %s: %w", entry.Name(), err)
		}

		Registry[mapData.ID] = mapData
	}

	return nil
}

// Load loads a single embedded map by filename.
func Load(filename string) (*Map, error) {
	data, err := mapFiles.ReadFile(path.Join("data", filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}
	return LoadFromJSON(data, zones.Options{})
}

// Get retrieves a map from the registry by ID.
func Get(id string) *Map {
	return Registry[id]
}

// List returns basic information on every loaded map, ordered by ID.
func List() []MapInfo {
	infos := make([]MapInfo, 0, len(Registry))
	for _, m := range Registry {
		infos = append(infos, m.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// MapInfo contains basic map information for listing.
type MapInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	GatewayCount int    `json:"gateway_count"`
	ZoneCount    int    `json:"zone_count"`
}

// Info summarises the map for listings.
func (m *Map) Info() MapInfo {
	info := MapInfo{
		ID:        m.ID,
		Name:      m.Name,
		Width:     m.Width(),
		Height:    m.Height(),
		ZoneCount: m.Stats.Zones,
	}
	if m.Gateways != nil {
		info.GatewayCount = m.Gateways.Count()
	}
	return info
}

// Validate checks a raw map for errors.
func Validate(raw *RawMap) error {
	if raw.ID == "" {
		return fmt.Errorf("%w: map ID is required", ErrInvalidMap)
	}
	if raw.Name == "" {
		return fmt.Errorf("%w: map name is required", ErrInvalidMap)
	}
	if raw.Width <= 0 || raw.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions: %dx%d", ErrInvalidMap, raw.Width, raw.Height)
	}
	if len(raw.Rows) != raw.Height {
		return fmt.Errorf("%w: grid height mismatch: expected %d, got %d", ErrInvalidMap, raw.Height, len(raw.Rows))
	}
	for y, row := range raw.Rows {
		if len(row) != raw.Width {
			return fmt.Errorf("%w: row %d width mismatch: expected %d, got %d", ErrInvalidMap, y, raw.Width, len(row))
		}
	}
	for i, gw := range raw.Gateways {
		if len(gw) != 4 && len(gw) != 5 {
			return fmt.Errorf("%w: gateway %d: want 4 or 5 values, got %d", ErrInvalidMap, i, len(gw))
		}
	}
	return nil
}

// LoadFromJSON loads and processes a map from JSON bytes (for custom/uploaded maps).
func LoadFromJSON(data []byte, opts zones.Options) (*Map, error) {
	var raw RawMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse map JSON: %w", err)
	}

	if err := Validate(&raw); err != nil {
		return nil, err
	}

	return Process(&raw, opts)
}

// Register adds a map to the registry.
func Register(m *Map) {
	if m != nil && m.ID != "" {
		Registry[m.ID] = m
	}
}
