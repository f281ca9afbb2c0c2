package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run-log statements run on the root connection, never inside the load
// transaction, so the audit trail records failed runs too.

// CreateRun records the start of a pipeline run.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	query := s.driver.Rebind(`
		INSERT INTO etl_run (run_id, triggered_by, status, range_start, range_end, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.TriggeredBy, run.Status, run.RangeStart, run.RangeEnd, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// CompleteRun records a run's terminal status and counters.
func (s *Store) CompleteRun(ctx context.Context, run Run) error {
	query := s.driver.Rebind(`
		UPDATE etl_run
		SET status = ?, finished_at = ?, dims_created = ?, facts_upserted = ?,
			dispatches_skipped = ?, error = ?
		WHERE run_id = ?`)

	var finished time.Time
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	} else {
		finished = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		run.Status, finished, run.DimsCreated, run.FactsUpserted,
		run.DispatchesSkipped, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("failed to record run completion: %w", err)
	}
	return nil
}

// ListRecentRuns returns the most recent runs, newest first.
func (s *Store) ListRecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	query := s.driver.Rebind(`
		SELECT run_id, triggered_by, status, range_start, range_end, started_at,
			finished_at, dims_created, facts_upserted, dispatches_skipped, error
		FROM etl_run
		ORDER BY started_at DESC
		LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.TriggeredBy, &r.Status, &r.RangeStart, &r.RangeEnd,
			&r.StartedAt, &finished, &r.DimsCreated, &r.FactsUpserted,
			&r.DispatchesSkipped, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
