package database

import "time"

// RunEvent is one step of a processing run in the history log.
type RunEvent struct {
	ID        int64
	LayoutID  string
	State     string
	Zones     int
	Gateways  int
	Message   string
	CreatedAt time.Time
}

// Run states recorded besides the processor's own states
const (
	RunStateStored = "stored"
	RunStateFailed = "failed"
)

// AddRunEvent adds a new event to a layout's run history.
func (db *DB) AddRunEvent(layoutID, state string, zones, gateways int, message string) error {
	_, err := db.conn.Exec(`
		INSERT INTO run_history (layout_id, state, zones, gateways, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, layoutID, state, zones, gateways, message, time.Now())
	return err
}

// GetRunHistory retrieves all run events for a layout, ordered chronologically.
func (db *DB) GetRunHistory(layoutID string) ([]*RunEvent, error) {
	return db.queryRunHistory(layoutID, 0)
}

// GetRunHistorySince retrieves run events after a given ID (for incremental updates).
func (db *DB) GetRunHistorySince(layoutID string, afterID int64) ([]*RunEvent, error) {
	return db.queryRunHistory(layoutID, afterID)
}

func (db *DB) queryRunHistory(layoutID string, afterID int64) ([]*RunEvent, error) {
	rows, err := db.conn.Query(`
		SELECT id, layout_id, state, zones, gateways, message, created_at
		FROM run_history
		WHERE layout_id = ? AND id > ?
		ORDER BY id ASC
	`, layoutID, afterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*RunEvent
	for rows.Next() {
		e := &RunEvent{}
		if err := rows.Scan(&e.ID, &e.LayoutID, &e.State, &e.Zones, &e.Gateways, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ClearRunHistory deletes all history for a layout.
func (db *DB) ClearRunHistory(layoutID string) error {
	_, err := db.conn.Exec(`DELETE FROM run_history WHERE layout_id = ?`, layoutID)
	return err
}
