package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/elasticity-lab/internal/scenario"
)

// Store persists simulation results, saved-scenario marks, and
// runtime-created scenarios to SQLite with write-through semantics. The
// Session stays the source of truth at runtime; the store exists so a
// restarted process can replay prior work.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS results (
	scenario_id  TEXT PRIMARY KEY,
	payload      TEXT NOT NULL,
	generated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS custom_scenarios (
	scenario_id TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS saved_scenarios (
	scenario_id TEXT PRIMARY KEY,
	saved_at    TEXT NOT NULL
);
`

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResult upserts one simulation result keyed by scenario ID.
func (s *Store) SaveResult(r scenario.SimulationResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", r.ScenarioID, err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO results (scenario_id, payload, generated_at) VALUES (?, ?, ?)",
		r.ScenarioID, string(payload), r.GeneratedAt.Format(time.RFC3339Nano),
	)
	return err
}

// SaveCustomScenario upserts a runtime-created scenario so it survives a
// restart. Fixture scenarios are never written here.
func (s *Store) SaveCustomScenario(sc scenario.Scenario) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal scenario %s: %w", sc.ID, err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO custom_scenarios (scenario_id, payload, created_at) VALUES (?, ?, ?)",
		sc.ID, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// MarkSaved records a scenario on the saved-for-comparison list.
func (s *Store) MarkSaved(scenarioID string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO saved_scenarios (scenario_id, saved_at) VALUES (?, ?)",
		scenarioID, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Restore replays persisted scenarios, results, and saved marks into a
// session. Custom scenarios load first so their results find a home.
func (s *Store) Restore(session *scenario.Session) error {
	if err := s.restoreScenarios(session); err != nil {
		return err
	}
	if err := s.restoreResults(session); err != nil {
		return err
	}
	return s.restoreSaved(session)
}

func (s *Store) restoreScenarios(session *scenario.Session) error {
	rows, err := s.db.Query("SELECT payload FROM custom_scenarios ORDER BY created_at")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return err
		}
		var sc scenario.Scenario
		if err := json.Unmarshal([]byte(payload), &sc); err != nil {
			return fmt.Errorf("unmarshal persisted scenario: %w", err)
		}
		session.RestoreScenario(sc)
	}
	return rows.Err()
}

func (s *Store) restoreResults(session *scenario.Session) error {
	rows, err := s.db.Query("SELECT payload FROM results")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return err
		}
		var r scenario.SimulationResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return fmt.Errorf("unmarshal persisted result: %w", err)
		}
		session.RestoreResult(r)
	}
	return rows.Err()
}

func (s *Store) restoreSaved(session *scenario.Session) error {
	rows, err := s.db.Query("SELECT scenario_id FROM saved_scenarios ORDER BY saved_at")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		// A saved mark for a scenario that no longer exists is skipped.
		_ = session.SaveScenario(id)
	}
	return rows.Err()
}
