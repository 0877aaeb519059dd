// Package service implements the report pipeline and the run lifecycle around it.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ratebot/internal/config"
	"ratebot/internal/mail"
	"ratebot/internal/provider"
	"ratebot/internal/recipients"
	"ratebot/internal/report"
	"ratebot/internal/repository"
)

// ReportServiceInterface defines the operations the HTTP API and the worker need.
type ReportServiceInterface interface {
	RequestRun(ctx context.Context) (runID, status string, err error)
	GetRun(ctx context.Context, runID string) (*RunResult, error)
	GetLatestReport(ctx context.Context) (*LatestReport, error)
	Preview(ctx context.Context) (string, error)
	ProcessRun(ctx context.Context, runID string) error
}

// TaskEnqueuer puts report run tasks on the queue.
type TaskEnqueuer interface {
	EnqueueRunTask(ctx context.Context, payload RunReportPayload) error
}

// TaskTypeRunReport is the Asynq task type for report run jobs.
const TaskTypeRunReport = "report:run"

// RunReportPayload is the payload structure for report run Asynq tasks.
type RunReportPayload struct {
	RunID string `json:"run_id"`
}

// Options configures a ReportService.
type Options struct {
	ReportName  string
	Subject     string
	PreviewPath string // empty disables the preview file
	Sender      mail.Sender
	Concurrency int
	Location    *time.Location
	LatestTTL   time.Duration
}

// Deps are the collaborators of a ReportService. Repo, Enqueuer and Cache may be nil when
// only the one-shot pipeline is used.
type Deps struct {
	Repo       repository.RunRepository
	Provider   provider.RatesProvider
	Sources    []config.SourceConfig
	Renderer   *report.Renderer
	Recipients recipients.Store
	Transport  mail.Transport
	Enqueuer   TaskEnqueuer
	Cache      *redis.Client
}

// ReportService builds, delivers and records the rate report.
type ReportService struct {
	repo       repository.RunRepository
	provider   provider.RatesProvider
	sources    []config.SourceConfig
	renderer   *report.Renderer
	recipients recipients.Store
	transport  mail.Transport
	enqueuer   TaskEnqueuer
	cache      *redis.Client
	log        *zap.SugaredLogger
	opts       Options
	now        func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(deps Deps, opts Options, logger *zap.SugaredLogger) *ReportService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if deps.Renderer == nil {
		deps.Renderer = report.NewRenderer(report.Options{})
	}
	return &ReportService{
		repo:       deps.Repo,
		provider:   deps.Provider,
		sources:    deps.Sources,
		renderer:   deps.Renderer,
		recipients: deps.Recipients,
		transport:  deps.Transport,
		enqueuer:   deps.Enqueuer,
		cache:      deps.Cache,
		log:        logger,
		opts:       opts,
		now:        time.Now,
	}
}

// RequestRun records a new run and enqueues it. If a run of the report is already pending
// or running, its ID is returned and nothing new is enqueued.
func (s *ReportService) RequestRun(ctx context.Context) (runID, status string, err error) {
	uid := uuid.New().String()
	id, err := s.repo.CreateRun(ctx, s.opts.ReportName, uid)
	if err != nil {
		s.log.Errorw("CreateRun DB error", "error", err)
		return "", "", ErrInternal
	}

	if id != uid {
		s.log.Infow("Run already in flight", "run_id", id)
		return id, string(repository.StatusPending), nil
	}

	if err := s.enqueuer.EnqueueRunTask(ctx, RunReportPayload{RunID: id}); err != nil {
		s.log.Errorw("Failed to enqueue task", "run_id", id, "error", err)
		s.markFailed(ctx, id, "enqueue error")
		return "", "", ErrInternalQueue
	}

	s.log.Infow("Enqueued run task", "run_id", id, "report", s.opts.ReportName)
	return id, string(repository.StatusPending), nil
}

// GetRun retrieves the status and outcome of a run.
func (s *ReportService) GetRun(ctx context.Context, runID string) (*RunResult, error) {
	if !validRunID(runID) {
		return nil, ErrInvalidRunID
	}
	run, err := s.repo.GetByID(ctx, runID)
	if err != nil {
		s.log.Errorw("DB error fetching run by ID", "run_id", runID, "error", err)
		return nil, ErrInternal
	}
	if run == nil {
		return nil, ErrNotFound
	}
	return runResultFromRepo(run), nil
}

// GetLatestReport returns the HTML of the most recent run that produced a report.
// It never triggers a new run.
func (s *ReportService) GetLatestReport(ctx context.Context) (*LatestReport, error) {
	if latest, ok := s.cacheGetLatest(ctx); ok {
		return latest, nil
	}

	run, err := s.repo.GetLatestSuccess(ctx, s.opts.ReportName)
	if err != nil {
		s.log.Errorw("DB error fetching latest report", "report", s.opts.ReportName, "error", err)
		return nil, ErrInternal
	}
	if run == nil || run.HTML == nil {
		return nil, ErrNotFound
	}

	latest := &LatestReport{RunID: run.ID, HTML: *run.HTML}
	if run.UpdatedAt != nil {
		latest.UpdatedAt = *run.UpdatedAt
	}
	s.cacheSetLatest(ctx, latest)
	return latest, nil
}

// ProcessRun executes the pipeline for a recorded run (called by background worker).
// Only a run that can be claimed (PENDING, or FAILED on retry) is executed; a duplicate
// delivery of the task for a running or finished run is acknowledged without sending.
// A run whose report was built but not delivered is recorded as DELIVERY_FAILED and is not
// retried, so recipients that already got the email do not get it twice.
func (s *ReportService) ProcessRun(ctx context.Context, runID string) error {
	s.log.Infow("Processing run", "run_id", runID, "report", s.opts.ReportName)
	if err := s.repo.MarkRunning(ctx, runID); err != nil {
		if errors.Is(err, repository.ErrRunNotClaimable) {
			s.log.Warnw("Run not claimable, skipping", "run_id", runID, "error", err)
			return nil
		}
		s.log.Errorw("DB error marking run as RUNNING", "run_id", runID, "error", err)
		return err
	}

	summary, err := s.RunOnce(ctx)
	if summary == nil {
		s.completeFailure(ctx, runID, err)
		return err
	}

	outcome := repository.Outcome{
		Status:     repository.StatusSuccess,
		Entries:    summary.Report.Entries,
		HTML:       summary.Report.HTML,
		Recipients: summary.Recipients,
	}
	if err != nil {
		outcome.Status = repository.StatusDeliveryFailed
		outcome.ErrorMsg = err.Error()
		s.log.Errorw("Delivery error", "run_id", runID, "error", err)
	}

	if dbErr := s.repo.MarkCompleted(ctx, runID, outcome); dbErr != nil {
		s.log.Errorw("DB update error on completion", "run_id", runID, "error", dbErr)
		return dbErr
	}

	s.cacheSetLatest(ctx, &LatestReport{RunID: runID, HTML: summary.Report.HTML, UpdatedAt: s.now()})
	s.log.Infow("Run completed", "run_id", runID, "status", outcome.Status, "recipients", summary.Recipients)
	return nil
}

func (s *ReportService) markFailed(ctx context.Context, runID, reason string) {
	outcome := repository.Outcome{Status: repository.StatusFailed, ErrorMsg: reason}
	if err := s.repo.MarkCompleted(ctx, runID, outcome); err != nil {
		s.log.Warnw("Failed to mark run as FAILED", "run_id", runID, "error", err)
	}
}

func (s *ReportService) completeFailure(ctx context.Context, runID string, cause error) {
	if cause == nil {
		cause = errors.New("run produced no report")
	}
	s.log.Errorw("Run failed", "run_id", runID, "error", cause)
	s.markFailed(ctx, runID, cause.Error())
}
