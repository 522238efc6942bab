// Package flightdb keeps the flight history: one row per commanded
// flight, with the planned distance, the distance actually flown and how
// the flight ended.
package flightdb

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Open opens (or creates) the flight history at path. ":memory:" works
// for tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			flight_id    TEXT PRIMARY KEY,
			callsign     TEXT,
			dest_x       DOUBLE,
			dest_y       DOUBLE,
			cruise_alt   DOUBLE,
			planned_m    DOUBLE,
			actual_m     DOUBLE,
			converged    BOOLEAN,
			reason       TEXT,
			duration_ms  BIGINT,
			started_at   TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// Flight is one flight history row.
type Flight struct {
	ID        string
	Callsign  string
	DestX     float64
	DestY     float64
	CruiseAlt float64
	PlannedM  float64
	ActualM   float64
	Converged bool
	Reason    string
	Duration  time.Duration
	StartedAt time.Time
}

func (db *DB) RecordFlight(f Flight) error {
	_, err := db.Exec(
		`INSERT INTO flights (
			flight_id, callsign, dest_x, dest_y, cruise_alt,
			planned_m, actual_m, converged, reason, duration_ms, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Callsign, f.DestX, f.DestY, f.CruiseAlt,
		f.PlannedM, f.ActualM, f.Converged, f.Reason,
		f.Duration.Milliseconds(), f.StartedAt.UTC(),
	)
	return err
}

// Recent returns up to n flights, newest first.
func (db *DB) Recent(n int) ([]Flight, error) {
	rows, err := db.Query(
		`SELECT flight_id, callsign, dest_x, dest_y, cruise_alt,
			planned_m, actual_m, converged, reason, duration_ms, started_at
		FROM flights ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []Flight
	for rows.Next() {
		var f Flight
		var durationMs int64
		if err := rows.Scan(&f.ID, &f.Callsign, &f.DestX, &f.DestY, &f.CruiseAlt,
			&f.PlannedM, &f.ActualM, &f.Converged, &f.Reason, &durationMs, &f.StartedAt); err != nil {
			return nil, err
		}
		f.Duration = time.Duration(durationMs) * time.Millisecond
		f.StartedAt = f.StartedAt.UTC()
		flights = append(flights, f)
	}
	return flights, rows.Err()
}
