// Package store archives pipeline runs in SQLite so the dashboard can serve
// history without re-reading the source export. The archive is append-only:
// each run writes one runs row plus every aggregate row it produced.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/civic-data/caseload.report/internal/aggregate"
	"github.com/civic-data/caseload.report/internal/policy"
)

// Store wraps the archive database.
type Store struct {
	*sql.DB
}

// Run is one archived pipeline execution.
type Run struct {
	RunID          string    `json:"run_id"`
	SourcePath     string    `json:"source_path"`
	TotalCases     int       `json:"total_cases"`
	SkippedRecords int       `json:"skipped_records"`
	WindowDays     int       `json:"window_days"`
	CreatedAt      time.Time `json:"created_at"`
}

// Open opens (and if needed initializes) the archive at path. Use ":memory:"
// for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			source_path       TEXT,
			total_cases       BIGINT,
			skipped_records   BIGINT,
			window_days       BIGINT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS aggregate_rows (
			run_id            TEXT,
			table_name        TEXT,
			table_title       TEXT,
			table_total       BIGINT,
			row_rank          BIGINT,
			row_key           TEXT,
			row_count         BIGINT,
			row_percent       DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE TABLE IF NOT EXISTS policy_estimates (
			run_id                    TEXT PRIMARY KEY,
			parking_cases             BIGINT,
			processing_cost_per_case  DOUBLE,
			diversion_rate            DOUBLE,
			observation_window_days   BIGINT,
			potential_annual_savings  DOUBLE,
			active_rate               DOUBLE,
			target_active_rate        DOUBLE,
			excess_active_cases       BIGINT,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_aggregate_rows_run
			ON aggregate_rows(run_id, table_name, row_rank);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	return &Store{db}, nil
}

// NewRunID mints a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SaveRun archives a run with its tables and policy estimate in one
// transaction.
func (s *Store) SaveRun(run Run, tables []aggregate.Table, est policy.Estimate) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, source_path, total_cases, skipped_records, window_days)
		 VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.SourcePath, run.TotalCases, run.SkippedRecords, run.WindowDays,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	rowStmt, err := tx.Prepare(
		`INSERT INTO aggregate_rows (run_id, table_name, table_title, table_total, row_rank, row_key, row_count, row_percent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer rowStmt.Close()

	for _, t := range tables {
		for rank, r := range t.Rows {
			if _, err := rowStmt.Exec(run.RunID, t.Name, t.Title, t.Total, rank, r.Key, r.Count, r.Percent); err != nil {
				return fmt.Errorf("failed to insert aggregate row: %w", err)
			}
		}
	}

	_, err = tx.Exec(
		`INSERT INTO policy_estimates (
			run_id, parking_cases, processing_cost_per_case, diversion_rate,
			observation_window_days, potential_annual_savings, active_rate,
			target_active_rate, excess_active_cases
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, est.ParkingCases, est.ProcessingCostPerCase, est.DiversionRate,
		est.ObservationWindowDays, est.PotentialAnnualSavings, est.ActiveRate,
		est.TargetActiveRate, est.ExcessActiveCases,
	)
	if err != nil {
		return fmt.Errorf("failed to insert policy estimate: %w", err)
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.Query(
		`SELECT run_id, source_path, total_cases, skipped_records, window_days, created_at
		 FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.SourcePath, &r.TotalCases, &r.SkippedRecords, &r.WindowDays, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRunID returns the newest archived run id, or empty when the archive
// has no runs yet.
func (s *Store) LatestRunID() (string, error) {
	var id string
	err := s.QueryRow(
		`SELECT run_id FROM runs ORDER BY created_at DESC, run_id DESC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest run: %w", err)
	}
	return id, nil
}

// TableNames lists the aggregate tables archived for a run.
func (s *Store) TableNames(runID string) ([]string, error) {
	rows, err := s.Query(
		`SELECT DISTINCT table_name FROM aggregate_rows WHERE run_id = ? ORDER BY table_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query table names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetTable reconstructs one archived aggregate table in its original row
// order.
func (s *Store) GetTable(runID, name string) (aggregate.Table, error) {
	rows, err := s.Query(
		`SELECT table_title, table_total, row_key, row_count, row_percent
		 FROM aggregate_rows WHERE run_id = ? AND table_name = ? ORDER BY row_rank`,
		runID, name)
	if err != nil {
		return aggregate.Table{}, fmt.Errorf("failed to query table: %w", err)
	}
	defer rows.Close()

	t := aggregate.Table{Name: name}
	for rows.Next() {
		var r aggregate.Row
		if err := rows.Scan(&t.Title, &t.Total, &r.Key, &r.Count, &r.Percent); err != nil {
			return aggregate.Table{}, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		t.Rows = append(t.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return aggregate.Table{}, err
	}
	if len(t.Rows) == 0 {
		return aggregate.Table{}, fmt.Errorf("table not found")
	}
	return t, nil
}

// GetEstimate returns the archived policy estimate for a run.
func (s *Store) GetEstimate(runID string) (policy.Estimate, error) {
	var e policy.Estimate
	err := s.QueryRow(
		`SELECT parking_cases, processing_cost_per_case, diversion_rate,
		        observation_window_days, potential_annual_savings, active_rate,
		        target_active_rate, excess_active_cases
		 FROM policy_estimates WHERE run_id = ?`, runID,
	).Scan(
		&e.ParkingCases, &e.ProcessingCostPerCase, &e.DiversionRate,
		&e.ObservationWindowDays, &e.PotentialAnnualSavings, &e.ActiveRate,
		&e.TargetActiveRate, &e.ExcessActiveCases,
	)
	if err == sql.ErrNoRows {
		return e, fmt.Errorf("estimate not found")
	}
	if err != nil {
		return e, fmt.Errorf("failed to query policy estimate: %w", err)
	}
	return e, nil
}
