// Package perflog persists per-decision performance records in SQLite.
package perflog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"stickynav/metrics"
)

// Durations are wall clock nanoseconds, not CPU time.
const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL,
	round          INTEGER NOT NULL,
	recorded_at    TEXT NOT NULL,
	outcome        TEXT NOT NULL,
	new_segments   INTEGER NOT NULL,
	new_tries      INTEGER NOT NULL,
	killed_next    INTEGER NOT NULL,
	killed_update  INTEGER NOT NULL,
	tree_size      INTEGER NOT NULL,
	value          REAL NOT NULL,
	duration_wall_ns    INTEGER NOT NULL,
	select_wall_ns      INTEGER NOT NULL,
	expand_wall_ns      INTEGER NOT NULL,
	gain_wall_ns        INTEGER NOT NULL,
	cost_wall_ns        INTEGER NOT NULL,
	value_wall_ns       INTEGER NOT NULL,
	update_wall_ns      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS rounds_session ON rounds(session_id, round);
`

// Store is a metrics.Sink backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(m metrics.RoundMetric) error {
	_, err := s.db.Exec(
		`INSERT INTO rounds (session_id, round, recorded_at, outcome, new_segments, new_tries,
			killed_next, killed_update, tree_size, value, duration_wall_ns,
			select_wall_ns, expand_wall_ns, gain_wall_ns, cost_wall_ns, value_wall_ns, update_wall_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Session, m.Round, m.Time.UTC().Format(time.RFC3339Nano), string(m.Outcome),
		m.NewSegments, m.NewTries, m.KilledNext, m.KilledUpdate, m.TreeSize, m.Value,
		int64(m.Duration),
		int64(m.Timings[metrics.StageSelect]),
		int64(m.Timings[metrics.StageExpand]),
		int64(m.Timings[metrics.StageGain]),
		int64(m.Timings[metrics.StageCost]),
		int64(m.Timings[metrics.StageValue]),
		int64(m.Timings[metrics.StageUpdate]),
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// Rounds returns the records of a session ordered by round.
func (s *Store) Rounds(session string) ([]metrics.RoundMetric, error) {
	rows, err := s.db.Query(
		`SELECT session_id, round, recorded_at, outcome, new_segments, new_tries,
			killed_next, killed_update, tree_size, value, duration_wall_ns,
			select_wall_ns, expand_wall_ns, gain_wall_ns, cost_wall_ns, value_wall_ns, update_wall_ns
		 FROM rounds WHERE session_id = ? ORDER BY round, id`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var out []metrics.RoundMetric
	for rows.Next() {
		var (
			m        metrics.RoundMetric
			recorded string
			outcome  string
			duration int64
			timings  [metrics.NumStages]int64
		)
		err := rows.Scan(&m.Session, &m.Round, &recorded, &outcome, &m.NewSegments, &m.NewTries,
			&m.KilledNext, &m.KilledUpdate, &m.TreeSize, &m.Value, &duration,
			&timings[metrics.StageSelect], &timings[metrics.StageExpand], &timings[metrics.StageGain],
			&timings[metrics.StageCost], &timings[metrics.StageValue], &timings[metrics.StageUpdate])
		if err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		m.Time, err = time.Parse(time.RFC3339Nano, recorded)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		m.Outcome = metrics.Outcome(outcome)
		m.Duration = time.Duration(duration)
		for i, ns := range timings {
			m.Timings[i] = time.Duration(ns)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}
	return out, nil
}
