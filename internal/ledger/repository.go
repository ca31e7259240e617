package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository persists dispatches and ticks.
type Repository interface {
	RecordDispatch(ctx context.Context, d Dispatch) error
	RecordTick(ctx context.Context, t Tick) error
	GetDispatch(ctx context.Context, runID string) (*Dispatch, error)
	RecentDispatches(ctx context.Context, limit int) ([]Dispatch, error)
	RecentTicks(ctx context.Context, limit int) ([]Tick, error)
}

const dispatchColumns = `run_id, dispatched_at, block_head, lines, operations, skipped,
			animator, confirm_waited, confirmed, confirm_ms, error`

// timeLayout is fixed width so text order matches time order; RFC3339Nano
// trims trailing zeros and does not sort.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed ledger.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordDispatch inserts a dispatch row. A zero DispatchedAt is set to now.
func (r *SQLiteRepository) RecordDispatch(ctx context.Context, d Dispatch) error {
	if d.RunID == "" {
		return ErrRunIDRequired
	}
	if d.DispatchedAt.IsZero() {
		d.DispatchedAt = time.Now()
	}

	query := `INSERT INTO dispatches (` + dispatchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		d.RunID,
		d.DispatchedAt.UTC().Format(timeLayout),
		d.BlockHead,
		d.Lines,
		d.Operations,
		d.Skipped,
		boolToInt(d.Animator),
		boolToInt(d.ConfirmWaited),
		boolToInt(d.Confirmed),
		d.ConfirmTime.Milliseconds(),
		d.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting dispatch: %w", err)
	}
	return nil
}

// RecordTick inserts a tick row. A zero StartedAt is set to now.
func (r *SQLiteRepository) RecordTick(ctx context.Context, t Tick) error {
	if t.StartedAt.IsZero() {
		t.StartedAt = time.Now()
	}

	query := `INSERT INTO ticks (started_at, state, fast, burst_size, sent, discarded, queue_depth)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		t.StartedAt.UTC().Format(timeLayout),
		t.State,
		boolToInt(t.Fast),
		t.BurstSize,
		t.Sent,
		t.Discarded,
		t.QueueDepth,
	)
	if err != nil {
		return fmt.Errorf("inserting tick: %w", err)
	}
	return nil
}

// GetDispatch retrieves a dispatch by run ID.
func (r *SQLiteRepository) GetDispatch(ctx context.Context, runID string) (*Dispatch, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE run_id = ?`

	d, err := scanDispatch(r.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDispatchNotFound
		}
		return nil, fmt.Errorf("querying dispatch: %w", err)
	}
	return d, nil
}

// RecentDispatches returns up to limit dispatches, newest first.
func (r *SQLiteRepository) RecentDispatches(ctx context.Context, limit int) ([]Dispatch, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches
		ORDER BY dispatched_at DESC, rowid DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, normaliseLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying dispatches: %w", err)
	}
	defer rows.Close()

	var out []Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dispatch: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// RecentTicks returns up to limit ticks, newest first.
func (r *SQLiteRepository) RecentTicks(ctx context.Context, limit int) ([]Tick, error) {
	query := `SELECT started_at, state, fast, burst_size, sent, discarded, queue_depth
		FROM ticks ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, normaliseLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying ticks: %w", err)
	}
	defer rows.Close()

	var out []Tick
	for rows.Next() {
		var (
			t       Tick
			started string
			fast    int
		)
		if err := rows.Scan(&started, &t.State, &fast, &t.BurstSize, &t.Sent, &t.Discarded, &t.QueueDepth); err != nil {
			return nil, fmt.Errorf("scanning tick: %w", err)
		}
		t.StartedAt, _ = time.Parse(timeLayout, started) //nolint:errcheck // written by RecordTick
		t.Fast = fast != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDispatch(s scanner) (*Dispatch, error) {
	var (
		d                               Dispatch
		at                              string
		animator, waited, confirmed, ms int64
	)
	err := s.Scan(&d.RunID, &at, &d.BlockHead, &d.Lines, &d.Operations, &d.Skipped,
		&animator, &waited, &confirmed, &ms, &d.Error)
	if err != nil {
		return nil, err
	}
	d.DispatchedAt, _ = time.Parse(timeLayout, at) //nolint:errcheck // written by RecordDispatch
	d.Animator = animator != 0
	d.ConfirmWaited = waited != 0
	d.Confirmed = confirmed != 0
	d.ConfirmTime = time.Duration(ms) * time.Millisecond
	return &d, nil
}

func normaliseLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 50
	}
	return limit
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
