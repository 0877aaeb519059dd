package service

import (
	"time"

	"ratebot/internal/report"
	"ratebot/internal/repository"
)

// RunResult represents a report run returned by the service layer.
// Fields are populated according to the run's status:
//   - SUCCESS: Entries, Recipients and UpdatedAt are set, ErrorMsg is nil.
//   - DELIVERY_FAILED: Entries, UpdatedAt and ErrorMsg are set.
//   - FAILED: ErrorMsg is set, Entries is nil.
//   - PENDING/RUNNING: only ID, Report, Status and RequestedAt are set.
type RunResult struct {
	ID          string
	Report      string
	Status      string
	Entries     []report.Entry
	Recipients  int
	ErrorMsg    *string
	RequestedAt string
	UpdatedAt   *string
}

// LatestReport is the HTML of the most recent run that produced a report.
type LatestReport struct {
	RunID     string
	HTML      string
	UpdatedAt time.Time
}

// Report is one rendered report.
type Report struct {
	Date    time.Time
	Entries []report.Entry
	HTML    string
}

// RunSummary is what a pipeline pass produced.
type RunSummary struct {
	Report     *Report
	Recipients int
}

func runResultFromRepo(run *repository.Run) *RunResult {
	r := &RunResult{
		ID:          run.ID,
		Report:      run.Report,
		Status:      string(run.Status),
		RequestedAt: run.RequestedAt.Format(time.RFC3339),
	}

	switch run.Status {
	case repository.StatusSuccess, repository.StatusDeliveryFailed:
		r.Entries = run.Entries
		r.Recipients = run.Recipients
		r.ErrorMsg = run.ErrorMsg
		if run.UpdatedAt != nil {
			ts := run.UpdatedAt.Format(time.RFC3339)
			r.UpdatedAt = &ts
		}
	case repository.StatusFailed:
		r.ErrorMsg = run.ErrorMsg
		if run.UpdatedAt != nil {
			ts := run.UpdatedAt.Format(time.RFC3339)
			r.UpdatedAt = &ts
		}
	}

	return r
}
