package database

import (
	"fmt"
	"log"

	"github.com/zyedidia/generic/mapset"
)

// migration is one schema step. IDs are applied in list order and never reused.
type migration struct {
	id   int
	name string
	sql  string
}

var migrations = []migration{
	{
		id:   1,
		name: "initial_schema",
		sql: `
			-- Layouts table: a tile map, its gateways and the encoded zone map
			CREATE TABLE layouts (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				share_code TEXT UNIQUE,
				map_id TEXT,
				width INTEGER NOT NULL,
				height INTEGER NOT NULL,
				rows_json TEXT NOT NULL,
				gateways_json TEXT NOT NULL,
				zone_map BLOB NOT NULL,
				stats_json TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_layouts_share_code ON layouts(share_code);
			CREATE INDEX idx_layouts_map ON layouts(map_id);

			-- Layout links: the gateway graph, one row per directed link
			CREATE TABLE layout_links (
				layout_id TEXT NOT NULL,
				gateway INTEGER NOT NULL,
				side INTEGER NOT NULL,
				target INTEGER NOT NULL,
				distance REAL NOT NULL,
				PRIMARY KEY (layout_id, gateway, side, target),
				FOREIGN KEY (layout_id) REFERENCES layouts(id) ON DELETE CASCADE
			);
			CREATE INDEX idx_layout_links_layout ON layout_links(layout_id);
		`,
	},
	{
		id:   2,
		name: "add_run_history",
		sql: `
			-- Run history: processing steps recorded for each stored layout
			CREATE TABLE run_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				layout_id TEXT NOT NULL,
				state TEXT NOT NULL,
				zones INTEGER NOT NULL DEFAULT 0,
				gateways INTEGER NOT NULL DEFAULT 0,
				message TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (layout_id) REFERENCES layouts(id) ON DELETE CASCADE
			);
			CREATE INDEX idx_run_history_layout ON run_history(layout_id);
		`,
	},
}

// migrate applies every migration not yet recorded in the migrations table.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	applied, err := db.appliedMigrations()
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if applied.Has(m.id) {
			continue
		}
		if err := db.applyMigration(m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.id, m.name, err)
		}
		log.Printf("Applied migration %d (%s)", m.id, m.name)
	}
	return nil
}

func (db *DB) appliedMigrations() (mapset.Set[int], error) {
	applied := mapset.New[int]()
	rows, err := db.conn.Query(`SELECT id FROM migrations`)
	if err != nil {
		return applied, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return applied, err
		}
		applied.Put(id)
	}
	return applied, rows.Err()
}

// SchemaVersion returns the highest applied migration ID.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.conn.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM migrations`).Scan(&version)
	return version, err
}

func (db *DB) applyMigration(m migration) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.sql); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO migrations (id, name) VALUES (?, ?)`, m.id, m.name); err != nil {
		return err
	}
	return tx.Commit()
}
