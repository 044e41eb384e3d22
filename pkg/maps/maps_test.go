package maps

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"zonegraph/pkg/zones"
)

// checkCovered verifies every tile of a processed map carries a zone.
func checkCovered(t *testing.T, m *Map) {
	t.Helper()
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.ZoneAt(x, y) == zones.NoZone {
				t.Fatalf("map %s: tile (%d,%d) has no zone", m.ID, x, y)
			}
		}
	}
}

func TestLoadAllSamples(t *testing.T) {
	if err := LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	infos := List()
	if len(infos) < 2 {
		t.Fatalf("expected at least 2 sample maps, got %d", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].ID >= infos[i].ID {
			t.Errorf("List not ordered by ID: %s before %s", infos[i-1].ID, infos[i].ID)
		}
	}

	for _, info := range infos {
		m := Get(info.ID)
		if m == nil {
			t.Fatalf("Get(%q) returned nil", info.ID)
		}
		checkCovered(t, m)
		m.Gateways.Each(func(g *zones.Gateway) {
			if !g.Resolved() {
				t.Errorf("map %s: %s left unresolved", m.ID, g)
			}
		})
	}
}

func TestHarbourLayout(t *testing.T) {
	m, err := Load("harbour.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := zones.Stats{Zones: 4, Gateways: 4, WaterLinks: 2, Links: 4, Equivalences: 1, LinkedZones: 4}
	if m.Stats != want {
		t.Errorf("expected stats %+v, got %+v", want, m.Stats)
	}

	land := m.Gateways.Get(1)
	if land.Zone1 == land.Zone2 {
		t.Fatalf("land gateway should separate two zones, got %d/%d", land.Zone1, land.Zone2)
	}
	if got := land.Side1Links(); len(got) != 1 || got[0].Gateway != 4 {
		t.Errorf("expected east side to reach the eastern water link, got %v", got)
	}
	if got := land.Side2Links(); len(got) != 1 || got[0].Gateway != 3 {
		t.Errorf("expected west side to reach the western water link, got %v", got)
	}

	sea := m.Gateways.Get(2)
	if !m.Equivalence.Equivalent(sea.Zone1, sea.Zone2) {
		t.Errorf("expected the zones either side of the sea gateway to be equivalent")
	}
	if len(sea.Links) != 0 {
		t.Errorf("expected the sea gateway to have no links, got %v", sea.Links)
	}
}

func TestLoadFromJSONErrors(t *testing.T) {
	base := RawMap{
		ID:     "test",
		Name:   "Test",
		Width:  4,
		Height: 2,
		Rows:   []string{"....", "...."},
	}

	tests := []struct {
		name   string
		modify func(r *RawMap)
		errMsg string
	}{
		{"missing id", func(r *RawMap) { r.ID = "" }, "map ID is required"},
		{"bad dimensions", func(r *RawMap) { r.Width = 0 }, "invalid dimensions"},
		{"short grid", func(r *RawMap) { r.Rows = r.Rows[:1] }, "grid height mismatch"},
		{"ragged row", func(r *RawMap) { r.Rows = []string{"....", "..."} }, "row 1 width mismatch"},
		{"unknown tile", func(r *RawMap) { r.Rows = []string{"....", "..x."} }, "unknown tile"},
		{"short gateway", func(r *RawMap) { r.Gateways = [][]int{{1, 0, 1}} }, "want 4 or 5 values"},
		{"diagonal gateway", func(r *RawMap) { r.Gateways = [][]int{{0, 0, 1, 1}} }, "gateway 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base
			raw.Rows = append([]string(nil), base.Rows...)
			tt.modify(&raw)
			data, err := json.Marshal(raw)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			_, err = LoadFromJSON(data, zones.Options{})
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestRawRoundTrip(t *testing.T) {
	m, err := Load("canyon.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	raw := m.Raw()
	again, err := Process(raw, zones.Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if again.Stats != m.Stats {
		t.Errorf("expected stats %+v after round trip, got %+v", m.Stats, again.Stats)
	}
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.ZoneAt(x, y) != again.ZoneAt(x, y) {
				t.Fatalf("zone mismatch at (%d,%d)", x, y)
			}
		}
	}
}

func TestReprocessAfterEdit(t *testing.T) {
	m, err := Load("canyon.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := m.Stats.Gateways

	if err := m.Gateways.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := m.Reprocess(zones.Options{}); err != nil {
		t.Fatalf("Reprocess: %v", err)
	}
	if m.Stats.Gateways != before-1 {
		t.Errorf("expected %d gateways, got %d", before-1, m.Stats.Gateways)
	}
	checkCovered(t, m)
}

func TestGeneratorDeterministic(t *testing.T) {
	opts := GeneratorOptions{Width: 30, Height: 20, Water: 30, Cliffs: 6, Gateways: 12, WaterLinks: 6, Seed: 7}
	a := NewGenerator(opts).Generate()
	b := NewGenerator(opts).Generate()

	if strings.Join(a.Rows, "\n") != strings.Join(b.Rows, "\n") {
		t.Errorf("same seed produced different tiles")
	}
	if fmt.Sprint(a.Gateways) != fmt.Sprint(b.Gateways) {
		t.Errorf("same seed produced different gateways")
	}
}

func TestGeneratedMapsProcess(t *testing.T) {
	configs := []GeneratorOptions{
		{Width: 20, Height: 15, Water: 0, Cliffs: 4, Gateways: 10},
		{Width: 40, Height: 30, Water: 30, Cliffs: 8, Gateways: 20, WaterLinks: 10},
		{Width: 64, Height: 48, Water: 60, Cliffs: 2, Gateways: 30, WaterLinks: 20},
	}

	for ci, cfg := range configs {
		cfg.Seed = int64(ci + 1)
		t.Run(fmt.Sprintf("config_%d_%dx%d", ci, cfg.Width, cfg.Height), func(t *testing.T) {
			raw := NewGenerator(cfg).Generate()
			if err := Validate(raw); err != nil {
				t.Fatalf("generated map invalid: %v", err)
			}
			m, err := Process(raw, zones.Options{})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			checkCovered(t, m)

			t.Logf("generated %d zones, %d gateways, %d links", m.Stats.Zones, m.Stats.Gateways, m.Stats.Links)
		})
	}
}

func TestGatewayKeys(t *testing.T) {
	for _, id := range []zones.GatewayID{1, 42, 65535} {
		got, err := ParseGatewayKey(GatewayKey(id))
		if err != nil || got != id {
			t.Errorf("expected %d back, got %d (%v)", id, got, err)
		}
	}
	for _, key := range []string{"w3", "g", "gx", "g0", "g99999999999"} {
		if _, err := ParseGatewayKey(key); !errors.Is(err, ErrBadGatewayKey) {
			t.Errorf("%q: expected ErrBadGatewayKey, got %v", key, err)
		}
	}
}

func TestRemoveGateways(t *testing.T) {
	m, err := Load("harbour.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := m.Stats.Gateways

	if err := m.RemoveGateways([]string{"g1", "g9"}, zones.Options{}); !errors.Is(err, zones.ErrGatewayNotFound) {
		t.Errorf("expected ErrGatewayNotFound, got %v", err)
	}
	if err := m.RemoveGateways([]string{"g1", "bogus"}, zones.Options{}); !errors.Is(err, ErrBadGatewayKey) {
		t.Errorf("expected ErrBadGatewayKey, got %v", err)
	}
	if m.Gateways.Count() != before {
		t.Fatalf("failed removal changed the registry: %d gateways", m.Gateways.Count())
	}

	if err := m.RemoveGateways([]string{"g1", "g1"}, zones.Options{}); err != nil {
		t.Fatalf("RemoveGateways: %v", err)
	}
	if m.Stats.Gateways != before-1 || m.Gateways.Get(1) != nil {
		t.Errorf("expected gateway g1 gone, stats %+v", m.Stats)
	}
	checkCovered(t, m)
}

func TestDebugMarksGateways(t *testing.T) {
	m, err := Load("harbour.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := m.Debug()
	for _, want := range []string{"Map: Harbour (harbour)", "Size: 16x10", " G", "Equivalent Zones:"} {
		if !strings.Contains(out, want) {
			t.Errorf("debug output missing %q", want)
		}
	}
	if !strings.Contains(m.PrintLinkMatrix(), "g1") {
		t.Errorf("link matrix missing gateway keys")
	}
}

func TestInvalidMapSentinel(t *testing.T) {
	_, err := Process(&RawMap{ID: "x", Name: "X", Width: 2, Height: 1, Rows: []string{".?"}}, zones.Options{})
	if !errors.Is(err, ErrInvalidMap) {
		t.Errorf("expected ErrInvalidMap, got %v", err)
	}
}

func TestSpecsRoundTrip(t *testing.T) {
	raw := [][]int{{1, 2, 1, 6}, {7, 7, 7, 7, 1}}
	specs, err := GatewaySpecs(raw)
	if err != nil {
		t.Fatalf("GatewaySpecs: %v", err)
	}
	if fmt.Sprint(SpecsToRaw(specs)) != fmt.Sprint(raw) {
		t.Errorf("expected %v back, got %v", raw, SpecsToRaw(specs))
	}
	for _, flags := range []int{-1, 2, 300} {
		if _, err := GatewaySpecs([][]int{{0, 0, 0, 0, flags}}); !errors.Is(err, ErrInvalidMap) {
			t.Errorf("flags %d: expected ErrInvalidMap, got %v", flags, err)
		}
	}
}
