package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ RunStore = (*RunRepository)(nil)

type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) CreateRun(mode, target, version string) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO runs (mode, target, version, started_at)
		VALUES (?, ?, ?, ?)
	`, mode, target, version, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	return id, nil
}

func (r *RunRepository) FinishRun(id int64) error {
	_, err := r.db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", id, err)
	}
	return nil
}

func (r *RunRepository) RecordCycle(runID int64, report CycleReport, outcomes []EntryOutcome) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO cycle_reports (run_id, cycle, attempted, succeeded, timed_out, skipped, failed, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, report.Cycle, report.Attempted, report.Succeeded, report.TimedOut,
		report.Skipped, report.Failed, report.StartedAt.UTC(), report.DurationMS)
	if err != nil {
		return 0, fmt.Errorf("failed to record cycle: %w", err)
	}

	cycleID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read cycle id: %w", err)
	}

	for _, o := range outcomes {
		_, err := tx.Exec(`
			INSERT INTO entry_outcomes (cycle_id, position, title, key, outcome, detail)
			VALUES (?, ?, ?, ?, ?, ?)
		`, cycleID, o.Position, o.Title, o.Key, o.Outcome, o.Detail)
		if err != nil {
			return 0, fmt.Errorf("failed to record entry outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cycle record: %w", err)
	}
	return cycleID, nil
}

func (r *RunRepository) ListRuns(limit int) ([]Run, error) {
	rows, err := r.db.Query(`
		SELECT id, mode, target, version, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (r *RunRepository) GetRun(id int64) (*Run, []CycleReport, error) {
	row := r.db.QueryRow(`
		SELECT id, mode, target, version, started_at, finished_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.db.Query(`
		SELECT id, run_id, cycle, attempted, succeeded, timed_out, skipped, failed, started_at, duration_ms
		FROM cycle_reports
		WHERE run_id = ?
		ORDER BY cycle
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cycles for run %d: %w", id, err)
	}
	defer rows.Close()

	var cycles []CycleReport
	for rows.Next() {
		var c CycleReport
		if err := rows.Scan(&c.ID, &c.RunID, &c.Cycle, &c.Attempted, &c.Succeeded,
			&c.TimedOut, &c.Skipped, &c.Failed, &c.StartedAt, &c.DurationMS); err != nil {
			return nil, nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	return run, cycles, rows.Err()
}

func (r *RunRepository) GetCycleOutcomes(cycleID int64) ([]EntryOutcome, error) {
	rows, err := r.db.Query(`
		SELECT id, cycle_id, position, title, key, outcome, detail
		FROM entry_outcomes
		WHERE cycle_id = ?
		ORDER BY position
	`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outcomes for cycle %d: %w", cycleID, err)
	}
	defer rows.Close()

	var outcomes []EntryOutcome
	for rows.Next() {
		var o EntryOutcome
		if err := rows.Scan(&o.ID, &o.CycleID, &o.Position, &o.Title, &o.Key, &o.Outcome, &o.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan entry outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.Mode, &run.Target, &run.Version, &run.StartedAt, &finished); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}
