package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/restaurant-sim/internal/model"
)

// RunRepo stores run summaries in the MySQL runs table.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo constructs a RunRepo with the provided DB handle.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Save inserts the run or, when it already exists, overwrites its counters
// and outcome.  A run is saved once when it starts and once when it ends.
func (r *RunRepo) Save(ctx context.Context, run model.RunSummary) error {
	const q = `INSERT INTO runs
		(id, n_groups, n_tables, receptionist_requests, waiter_requests, orders_cooked, outcome, error_text, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			receptionist_requests = VALUES(receptionist_requests),
			waiter_requests = VALUES(waiter_requests),
			orders_cooked = VALUES(orders_cooked),
			outcome = VALUES(outcome),
			error_text = VALUES(error_text),
			finished_at = VALUES(finished_at)`
	var finished sql.NullTime
	if !run.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q,
		run.ID, run.Groups, run.Tables,
		run.ReceptionistRequests, run.WaiterRequests, run.OrdersCooked,
		run.Outcome, truncate(run.Error, 1024), run.StartedAt.UTC(), finished)
	return err
}

const runColumns = "id, n_groups, n_tables, receptionist_requests, waiter_requests, orders_cooked, outcome, error_text, started_at, finished_at"

// GetByID fetches a run by id.  It returns ErrRunNotFound if no row exists.
func (r *RunRepo) GetByID(ctx context.Context, id string) (model.RunSummary, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunSummary{}, ErrRunNotFound
	}
	return run, err
}

// List returns the most recent runs first, at most limit of them.
func (r *RunRepo) List(ctx context.Context, limit int) ([]model.RunSummary, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.RunSummary, error) {
	var (
		run      model.RunSummary
		started  time.Time
		finished sql.NullTime
	)
	err := s.Scan(&run.ID, &run.Groups, &run.Tables,
		&run.ReceptionistRequests, &run.WaiterRequests, &run.OrdersCooked,
		&run.Outcome, &run.Error, &started, &finished)
	if err != nil {
		return model.RunSummary{}, err
	}
	run.StartedAt = started
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return run, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
