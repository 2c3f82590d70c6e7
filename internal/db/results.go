package db

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/circuit.report/internal/course"
	"github.com/banshee-data/circuit.report/internal/laps"
)

// SaveBoundaries replaces a session's stored lap boundaries. Results are a
// recomputable cache; re-analysis always overwrites.
func (db *DB) SaveBoundaries(sessionID string, bounds []laps.Boundary, method laps.Method) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			_ = err
		}
	}()

	if _, err := tx.Exec(`DELETE FROM lap_boundaries WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear boundaries: %w", err)
	}
	for _, b := range bounds {
		_, err := tx.Exec(`
			INSERT INTO lap_boundaries (session_id, lap, start_ms, end_ms, duration_ms, method)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sessionID, b.Lap, b.StartMs, b.EndMs, b.DurationMs, string(method))
		if err != nil {
			return fmt.Errorf("failed to insert boundary %d: %w", b.Lap, err)
		}
	}
	return tx.Commit()
}

// LoadBoundaries reads a session's stored lap boundaries in lap order.
func (db *DB) LoadBoundaries(sessionID string) ([]laps.Boundary, laps.Method, error) {
	rows, err := db.Query(`
		SELECT lap, start_ms, end_ms, duration_ms, method
		FROM lap_boundaries WHERE session_id = ? ORDER BY lap
	`, sessionID)
	if err != nil {
		return nil, laps.MethodNone, fmt.Errorf("failed to query boundaries: %w", err)
	}
	defer rows.Close()

	var out []laps.Boundary
	method := laps.MethodNone
	for rows.Next() {
		var b laps.Boundary
		var m string
		if err := rows.Scan(&b.Lap, &b.StartMs, &b.EndMs, &b.DurationMs, &m); err != nil {
			return nil, laps.MethodNone, fmt.Errorf("failed to scan boundary: %w", err)
		}
		method = laps.Method(m)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, laps.MethodNone, fmt.Errorf("rows iteration failed: %w", err)
	}
	return out, method, nil
}

// SaveCourse replaces a session's stored course shape.
func (db *DB) SaveCourse(sessionID string, shape course.Shape) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			_ = err
		}
	}()

	if _, err := tx.Exec(`DELETE FROM course_points WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear course points: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO course_points (session_id, idx, x, y, time_ms, lap_duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range shape.Points {
		if _, err := stmt.Exec(sessionID, i, p.X, p.Y, p.Time, shape.LapDurationMs); err != nil {
			return fmt.Errorf("failed to insert course point %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// LoadCourse reads a session's stored course shape. A session with no
// stored shape returns a zero Shape, not an error.
func (db *DB) LoadCourse(sessionID string) (course.Shape, error) {
	rows, err := db.Query(`
		SELECT x, y, time_ms, lap_duration_ms
		FROM course_points WHERE session_id = ? ORDER BY idx
	`, sessionID)
	if err != nil {
		return course.Shape{}, fmt.Errorf("failed to query course points: %w", err)
	}
	defer rows.Close()

	var shape course.Shape
	for rows.Next() {
		var p course.Point
		if err := rows.Scan(&p.X, &p.Y, &p.Time, &shape.LapDurationMs); err != nil {
			return course.Shape{}, fmt.Errorf("failed to scan course point: %w", err)
		}
		shape.Points = append(shape.Points, p)
	}
	if err := rows.Err(); err != nil {
		return course.Shape{}, fmt.Errorf("rows iteration failed: %w", err)
	}
	return shape, nil
}
