package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"ratebot/internal/report"
)

// ErrRunNotClaimable is returned by MarkRunning when the run does not exist, is already
// running or finished, or another run of the same report is in flight.
var ErrRunNotClaimable = errors.New("run not claimable")

const pgUniqueViolation = "23505"

// Status represents the state of a report run.
type Status string

// Status values for the report run lifecycle.
const (
	StatusPending        Status = "PENDING"
	StatusRunning        Status = "RUNNING"
	StatusSuccess        Status = "SUCCESS"
	StatusDeliveryFailed Status = "DELIVERY_FAILED"
	StatusFailed         Status = "FAILED"
)

// Run is a report run record in the DB.
type Run struct {
	ID          string
	Report      string
	Status      Status
	Entries     []report.Entry
	HTML        *string
	Recipients  int
	ErrorMsg    *string
	RequestedAt time.Time
	UpdatedAt   *time.Time
}

// Outcome is what a finished run stores.
type Outcome struct {
	Status     Status
	Entries    []report.Entry
	HTML       string
	Recipients int
	ErrorMsg   string
}

// RunRepository defines DB operations for report runs.
type RunRepository interface {
	CreateRun(ctx context.Context, reportName, id string) (string, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, outcome Outcome) error
	GetByID(ctx context.Context, id string) (*Run, error)
	GetLatestSuccess(ctx context.Context, reportName string) (*Run, error)
}

// PostgresRunRepository is an implementation of RunRepository using PostgreSQL.
type PostgresRunRepository struct {
	db *sql.DB
}

// NewPostgresRunRepository creates a new PostgresRunRepository.
func NewPostgresRunRepository(db *sql.DB) RunRepository {
	return &PostgresRunRepository{db: db}
}

// CreateRun inserts a PENDING run. If a run of the same report is already pending or
// running, it returns that run's ID instead.
func (r *PostgresRunRepository) CreateRun(ctx context.Context, reportName, id string) (string, error) {
	query := `INSERT INTO report_runs (id, report, status, requested_at)
              VALUES ($1::uuid, $2, 'PENDING'::run_status, NOW())
              ON CONFLICT (report) WHERE status IN ('PENDING', 'RUNNING')
              DO UPDATE SET report = report_runs.report  -- no-op, changes nothing
              RETURNING id::text`

	var returnedID string
	err := r.db.QueryRowContext(ctx, query, id, reportName).Scan(&returnedID)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return returnedID, nil
}

// MarkRunning moves a PENDING run to RUNNING. A FAILED run can be picked up again on
// task retry.
func (r *PostgresRunRepository) MarkRunning(ctx context.Context, id string) error {
	query := `UPDATE report_runs
				SET status=$1::run_status, updated_at=NOW()
				WHERE id=$2::uuid AND status IN ($3::run_status, $4::run_status)`
	result, err := r.db.ExecContext(ctx, query, StatusRunning, id, StatusPending, StatusFailed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("run %s: another run is in flight: %w", id, ErrRunNotClaimable)
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("run %s not found or not in PENDING/FAILED status: %w", id, ErrRunNotClaimable)
	}
	return nil
}

// MarkCompleted stores the final outcome of a PENDING or RUNNING run.
func (r *PostgresRunRepository) MarkCompleted(ctx context.Context, id string, outcome Outcome) error {
	var entries []byte
	if outcome.Entries != nil {
		var err error
		entries, err = json.Marshal(outcome.Entries)
		if err != nil {
			return fmt.Errorf("encode entries: %w", err)
		}
	}

	query := `UPDATE report_runs
				SET status=$1::run_status,
				    entries=$2::jsonb,
				    html=$3,
				    recipients=$4,
				    error=$5,
				    updated_at=NOW()
				WHERE id=$6::uuid AND status IN ($7::run_status, $8::run_status)`

	result, err := r.db.ExecContext(ctx, query,
		outcome.Status, nullBytes(entries), nullString(outcome.HTML), outcome.Recipients,
		nullString(outcome.ErrorMsg), id, StatusPending, StatusRunning)
	if err != nil {
		return err
	}
	return checkRowsAffected(result, id)
}

func checkRowsAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

const selectRun = `SELECT id::text, report, status, entries, html, recipients, error, requested_at, updated_at
              FROM report_runs`

// GetByID retrieves a run by its ID.
func (r *PostgresRunRepository) GetByID(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, selectRun+` WHERE id=$1::uuid`, id)
	return scanRun(row)
}

// GetLatestSuccess finds the most recent run of the report that produced a report,
// whether or not delivery succeeded.
func (r *PostgresRunRepository) GetLatestSuccess(ctx context.Context, reportName string) (*Run, error) {
	query := selectRun + `
              WHERE report=$1 AND status IN ($2::run_status, $3::run_status)
              ORDER BY updated_at DESC
              LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, reportName, StatusSuccess, StatusDeliveryFailed)
	return scanRun(row)
}

// scanRun maps a single row into a Run, returning (nil, nil) for sql.ErrNoRows.
func scanRun(row *sql.Row) (*Run, error) {
	var run Run
	var entries []byte
	var html sql.NullString
	var errMsg sql.NullString
	var updatedAt sql.NullTime
	var statusStr string

	err := row.Scan(&run.ID, &run.Report, &statusStr, &entries, &html, &run.Recipients, &errMsg, &run.RequestedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	run.Status = Status(statusStr)
	if len(entries) > 0 {
		if err := json.Unmarshal(entries, &run.Entries); err != nil {
			return nil, fmt.Errorf("decode entries of run %s: %w", run.ID, err)
		}
	}
	if html.Valid {
		run.HTML = &html.String
	}
	if errMsg.Valid {
		run.ErrorMsg = &errMsg.String
	}
	if updatedAt.Valid {
		run.UpdatedAt = &updatedAt.Time
	}
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
