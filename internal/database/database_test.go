package database

import (
	"errors"
	"path/filepath"
	"testing"

	"zonegraph/pkg/zones"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMemoryDatabase(t *testing.T) {
	db, err := New(MemoryPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != migrations[len(migrations)-1].id {
		t.Errorf("expected schema %d, got %d", migrations[len(migrations)-1].id, version)
	}

	if _, err := db.SaveLayout(testLayout("memory")); err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	if n, err := db.LayoutCount(); err != nil || n != 1 {
		t.Errorf("expected 1 layout, got %d (%v)", n, err)
	}
}

func testLayout(name string) *Layout {
	return &Layout{
		LayoutInfo: LayoutInfo{Name: name, MapID: "harbour", Width: 4, Height: 2},
		Rows:       []string{"..~~", "..~~"},
		Gateways:   [][]int{{1, 0, 1, 1}, {2, 0, 2, 0, 1}},
		ZoneMap:    []byte{1, 0, 0, 0, 2, 0, 0, 0},
		Stats:      zones.Stats{Zones: 3, Gateways: 2, WaterLinks: 1, Links: 2},
		Links: []LayoutLink{
			{Gateway: 0, Side: 1, Target: 1, Distance: 1.5},
			{Gateway: 1, Side: 1, Target: 0, Distance: 1.5},
		},
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		db, err := New(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		var count int
		if err := db.conn.QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&count); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if count != len(migrations) {
			t.Errorf("expected %d applied migrations, got %d", len(migrations), count)
		}
		db.Close()
	}
}

func TestSaveAndGetLayout(t *testing.T) {
	db := openTestDB(t)

	saved, err := db.SaveLayout(testLayout("first"))
	if err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	if saved.ID == "" || len(saved.ShareCode) != 9 {
		t.Fatalf("expected an ID and XXXX-XXXX share code, got %q %q", saved.ID, saved.ShareCode)
	}

	got, err := db.GetLayout(saved.ID)
	if err != nil {
		t.Fatalf("GetLayout: %v", err)
	}
	if got.Name != "first" || got.MapID != "harbour" || got.Width != 4 || got.Height != 2 {
		t.Errorf("unexpected layout info %+v", got.LayoutInfo)
	}
	if len(got.Rows) != 2 || got.Rows[1] != "..~~" {
		t.Errorf("unexpected rows %v", got.Rows)
	}
	if len(got.Gateways) != 2 || len(got.Gateways[1]) != 5 {
		t.Errorf("unexpected gateways %v", got.Gateways)
	}
	if string(got.ZoneMap) != string(saved.ZoneMap) {
		t.Errorf("zone map blob changed: %v", got.ZoneMap)
	}
	if got.Stats != saved.Stats || got.ZoneCount != 3 || got.GatewayCount != 2 {
		t.Errorf("unexpected stats %+v (zones %d, gateways %d)", got.Stats, got.ZoneCount, got.GatewayCount)
	}
	if len(got.Links) != 2 || got.Links[0] != saved.Links[0] {
		t.Errorf("unexpected links %v", got.Links)
	}

	byCode, err := db.GetLayoutByCode(saved.ShareCode)
	if err != nil {
		t.Fatalf("GetLayoutByCode: %v", err)
	}
	if byCode.ID != saved.ID {
		t.Errorf("share code found %s, want %s", byCode.ID, saved.ID)
	}
}

func TestLayoutNotFound(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetLayout("missing"); !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("GetLayout: expected ErrLayoutNotFound, got %v", err)
	}
	if _, err := db.GetLayoutByCode("ZZZZ-ZZZZ"); !errors.Is(err, ErrShareCodeNotFound) {
		t.Errorf("GetLayoutByCode: expected ErrShareCodeNotFound, got %v", err)
	}
	if err := db.DeleteLayout("missing"); !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("DeleteLayout: expected ErrLayoutNotFound, got %v", err)
	}
}

func TestListAndDeleteLayouts(t *testing.T) {
	db := openTestDB(t)

	a, err := db.SaveLayout(testLayout("a"))
	if err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	b, err := db.SaveLayout(testLayout("b"))
	if err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}

	list, err := db.ListLayouts()
	if err != nil {
		t.Fatalf("ListLayouts: %v", err)
	}
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Fatalf("expected newest first [b a], got %d entries", len(list))
	}
	if list[0].GatewayCount != 2 || list[0].ZoneCount != 3 {
		t.Errorf("unexpected listing counts %+v", list[0])
	}

	if err := db.AddRunEvent(a.ID, "zones seeded", 3, 2, "seeded"); err != nil {
		t.Fatalf("AddRunEvent: %v", err)
	}
	if err := db.DeleteLayout(a.ID); err != nil {
		t.Fatalf("DeleteLayout: %v", err)
	}
	if _, err := db.GetLayout(a.ID); !errors.Is(err, ErrLayoutNotFound) {
		t.Errorf("expected deleted layout to be gone, got %v", err)
	}
	events, err := db.GetRunHistory(a.ID)
	if err != nil {
		t.Fatalf("GetRunHistory: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected history removed with the layout, got %d events", len(events))
	}
}

func TestRunHistory(t *testing.T) {
	db := openTestDB(t)

	l, err := db.SaveLayout(testLayout("runs"))
	if err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}

	steps := []string{"zones seeded", "zones complete", "gateways linked", RunStateStored}
	for i, s := range steps {
		if err := db.AddRunEvent(l.ID, s, i+1, 2, "step "+s); err != nil {
			t.Fatalf("AddRunEvent: %v", err)
		}
	}

	events, err := db.GetRunHistory(l.ID)
	if err != nil {
		t.Fatalf("GetRunHistory: %v", err)
	}
	if len(events) != len(steps) {
		t.Fatalf("expected %d events, got %d", len(steps), len(events))
	}
	for i, e := range events {
		if e.State != steps[i] || e.Zones != i+1 || e.LayoutID != l.ID {
			t.Errorf("event %d: unexpected %+v", i, e)
		}
	}

	since, err := db.GetRunHistorySince(l.ID, events[1].ID)
	if err != nil {
		t.Fatalf("GetRunHistorySince: %v", err)
	}
	if len(since) != 2 || since[0].State != "gateways linked" {
		t.Errorf("expected the last two events, got %d", len(since))
	}

	if err := db.ClearRunHistory(l.ID); err != nil {
		t.Fatalf("ClearRunHistory: %v", err)
	}
	if events, _ := db.GetRunHistory(l.ID); len(events) != 0 {
		t.Errorf("expected empty history, got %d events", len(events))
	}
}
