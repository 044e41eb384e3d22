package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"zonegraph/pkg/zones"
)

// LayoutInfo contains basic layout information for listings.
type LayoutInfo struct {
	ID           string
	Name         string
	ShareCode    string
	MapID        string
	Width        int
	Height       int
	ZoneCount    int
	GatewayCount int
	CreatedAt    time.Time
}

// Layout contains a full processed layout.
type Layout struct {
	LayoutInfo
	Rows     []string
	Gateways [][]int
	ZoneMap  []byte // Encoded with zones.EncodeZoneMap
	Stats    zones.Stats
	Links    []LayoutLink
}

// LayoutLink is one directed edge of a stored gateway graph. Gateway and
// Target are positions in the layout's gateway list; Side is 1 or 2.
type LayoutLink struct {
	Gateway  int
	Side     int
	Target   int
	Distance float64
}

// ErrLayoutNotFound is returned when a layout is not found.
var ErrLayoutNotFound = errors.New("layout not found")

// ErrShareCodeNotFound is returned when a share code is invalid.
var ErrShareCodeNotFound = errors.New("invalid share code")

// SaveLayout stores a new layout, assigning its ID, share code and creation time.
func (db *DB) SaveLayout(l *Layout) (*Layout, error) {
	rowsJSON, err := json.Marshal(l.Rows)
	if err != nil {
		return nil, err
	}
	gatewaysJSON, err := json.Marshal(l.Gateways)
	if err != nil {
		return nil, err
	}
	statsJSON, err := json.Marshal(l.Stats)
	if err != nil {
		return nil, err
	}

	saved := *l
	saved.ID = uuid.New().String()
	saved.ShareCode = generateShareCode()
	saved.CreatedAt = time.Now()
	saved.ZoneCount = l.Stats.Zones
	saved.GatewayCount = len(l.Gateways)

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO layouts (id, name, share_code, map_id, width, height, rows_json, gateways_json, zone_map, stats_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, saved.ID, saved.Name, saved.ShareCode, saved.MapID, saved.Width, saved.Height,
		string(rowsJSON), string(gatewaysJSON), saved.ZoneMap, string(statsJSON), saved.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, link := range saved.Links {
		_, err = tx.Exec(`
			INSERT INTO layout_links (layout_id, gateway, side, target, distance)
			VALUES (?, ?, ?, ?, ?)
		`, saved.ID, link.Gateway, link.Side, link.Target, link.Distance)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetLayout retrieves a layout and its links by ID.
func (db *DB) GetLayout(id string) (*Layout, error) {
	var l Layout
	var shareCode, mapID sql.NullString
	var rowsJSON, gatewaysJSON, statsJSON string

	err := db.conn.QueryRow(`
		SELECT id, name, share_code, map_id, width, height, rows_json, gateways_json,
		       zone_map, stats_json, created_at
		FROM layouts WHERE id = ?
	`, id).Scan(&l.ID, &l.Name, &shareCode, &mapID, &l.Width, &l.Height,
		&rowsJSON, &gatewaysJSON, &l.ZoneMap, &statsJSON, &l.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLayoutNotFound
	}
	if err != nil {
		return nil, err
	}

	if shareCode.Valid {
		l.ShareCode = shareCode.String
	}
	if mapID.Valid {
		l.MapID = mapID.String
	}
	if err := json.Unmarshal([]byte(rowsJSON), &l.Rows); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(gatewaysJSON), &l.Gateways); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(statsJSON), &l.Stats); err != nil {
		return nil, err
	}
	l.ZoneCount = l.Stats.Zones
	l.GatewayCount = len(l.Gateways)

	l.Links, err = db.getLayoutLinks(id)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLayoutByCode retrieves a layout by its share code.
func (db *DB) GetLayoutByCode(code string) (*Layout, error) {
	var id string
	err := db.conn.QueryRow(`SELECT id FROM layouts WHERE share_code = ?`, strings.ToUpper(code)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShareCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return db.GetLayout(id)
}

func (db *DB) getLayoutLinks(layoutID string) ([]LayoutLink, error) {
	rows, err := db.conn.Query(`
		SELECT gateway, side, target, distance
		FROM layout_links
		WHERE layout_id = ?
		ORDER BY gateway, side, rowid
	`, layoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []LayoutLink
	for rows.Next() {
		var link LayoutLink
		if err := rows.Scan(&link.Gateway, &link.Side, &link.Target, &link.Distance); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// ListLayouts returns all stored layouts, newest first.
func (db *DB) ListLayouts() ([]*LayoutInfo, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, share_code, map_id, width, height, gateways_json, stats_json, created_at
		FROM layouts
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var layouts []*LayoutInfo
	for rows.Next() {
		info := &LayoutInfo{}
		var shareCode, mapID sql.NullString
		var gatewaysJSON, statsJSON string
		err := rows.Scan(&info.ID, &info.Name, &shareCode, &mapID, &info.Width, &info.Height,
			&gatewaysJSON, &statsJSON, &info.CreatedAt)
		if err != nil {
			return nil, err
		}
		if shareCode.Valid {
			info.ShareCode = shareCode.String
		}
		if mapID.Valid {
			info.MapID = mapID.String
		}

		var gateways [][]int
		if err := json.Unmarshal([]byte(gatewaysJSON), &gateways); err != nil {
			return nil, err
		}
		var stats zones.Stats
		if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
			return nil, err
		}
		info.GatewayCount = len(gateways)
		info.ZoneCount = stats.Zones

		layouts = append(layouts, info)
	}
	return layouts, rows.Err()
}

// DeleteLayout permanently deletes a layout and all associated data.
func (db *DB) DeleteLayout(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Delete in order of dependencies
	if _, err := tx.Exec(`DELETE FROM run_history WHERE layout_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM layout_links WHERE layout_id = ?`, id); err != nil {
		return err
	}

	result, err := tx.Exec(`DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLayoutNotFound
	}

	return tx.Commit()
}

// generateShareCode creates a human-readable share code.
func generateShareCode() string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // Removed ambiguous chars (0,O,1,I)
	bytes := make([]byte, 8)
	rand.Read(bytes)

	code := make([]byte, 8)
	for i := range code {
		code[i] = chars[bytes[i]%byte(len(chars))]
	}
	// Format as XXXX-XXXX
	return string(code[:4]) + "-" + string(code[4:])
}
