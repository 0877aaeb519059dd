// Package repository implements storage of report run history.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ratebot/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver registration
)

const connectTimeout = 5 * time.Second

// OpenRunHistory connects to the run history database, applies the migrations and
// logs runs that a previous process left PENDING or RUNNING. Such a run blocks new
// runs of its report until its task finishes or it is resolved by hand.
func OpenRunHistory(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.SugaredLogger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeSec) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to connect to database %s@%s:%d: %w", cfg.Name, cfg.Host, cfg.Port, err)
	}
	logger.Infow("Connected to run history", "host", cfg.Host, "port", cfg.Port, "database", cfg.Name)

	if err := RunMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run DB migrations: %w", err)
	}

	inFlight, err := InFlightRuns(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, run := range inFlight {
		logger.Warnw("Run left in flight", "run_id", run.ID, "report", run.Report, "status", run.Status, "requested_at", run.RequestedAt)
	}
	return db, nil
}

// InFlightRuns lists PENDING and RUNNING runs, oldest first.
func InFlightRuns(ctx context.Context, db *sql.DB) ([]Run, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, report, status, requested_at
				FROM report_runs
				WHERE status IN ($1::run_status, $2::run_status)
				ORDER BY requested_at`, StatusPending, StatusRunning)
	if err != nil {
		return nil, fmt.Errorf("list in-flight runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Report, &run.Status, &run.RequestedAt); err != nil {
			return nil, fmt.Errorf("scan in-flight run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
