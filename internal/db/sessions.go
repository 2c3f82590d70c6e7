package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/circuit.report/internal/telemetry"
)

// Session is one recorded driving session.
type Session struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// CreateSession inserts a new session record and returns it.
func (db *DB) CreateSession(name string) (*Session, error) {
	s := &Session{
		ID:      uuid.NewString(),
		Name:    name,
		Created: time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, name, created) VALUES (?, ?, ?)`,
		s.ID, s.Name, s.Created,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// GetSession looks up one session by id.
func (db *DB) GetSession(id string) (*Session, error) {
	var s Session
	err := db.QueryRow(
		`SELECT session_id, name, created FROM sessions WHERE session_id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &s, nil
}

// ListSessions returns all sessions, newest first.
func (db *DB) ListSessions() ([]Session, error) {
	rows, err := db.Query(`SELECT session_id, name, created FROM sessions ORDER BY created DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Name, &s.Created); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return out, nil
}

// InsertRows stores a session's telemetry rows in one transaction.
func (db *DB) InsertRows(sessionID string, rows []telemetry.Row) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			// ErrTxDone means the transaction was already committed.
			_ = err
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT INTO telemetry (session_id, time_ms, steering_pct, throttle_pct, brake_pct, lap)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.Exec(
			sessionID,
			r.TimeMs,
			r.Values[telemetry.MetricSteering],
			r.Values[telemetry.MetricThrottle],
			r.Values[telemetry.MetricBrake],
			r.Values[telemetry.MetricLap],
		)
		if err != nil {
			return fmt.Errorf("failed to insert row at %.0fms: %w", r.TimeMs, err)
		}
	}
	return tx.Commit()
}

// LoadRows reads a session's telemetry ordered by time.
func (db *DB) LoadRows(sessionID string) ([]telemetry.Row, error) {
	rows, err := db.Query(`
		SELECT time_ms, steering_pct, throttle_pct, brake_pct, lap
		FROM telemetry WHERE session_id = ? ORDER BY time_ms
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry: %w", err)
	}
	defer rows.Close()

	var out []telemetry.Row
	for rows.Next() {
		var timeMs float64
		var steering, throttle, brake, lap sql.NullFloat64
		if err := rows.Scan(&timeMs, &steering, &throttle, &brake, &lap); err != nil {
			return nil, fmt.Errorf("failed to scan telemetry row: %w", err)
		}
		values := make(map[string]float64, 4)
		if steering.Valid {
			values[telemetry.MetricSteering] = steering.Float64
		}
		if throttle.Valid {
			values[telemetry.MetricThrottle] = throttle.Float64
		}
		if brake.Valid {
			values[telemetry.MetricBrake] = brake.Float64
		}
		if lap.Valid && lap.Float64 > 0 {
			values[telemetry.MetricLap] = lap.Float64
		}
		out = append(out, telemetry.Row{TimeMs: timeMs, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return out, nil
}
