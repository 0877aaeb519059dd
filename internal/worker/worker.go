// Package worker implements background task handlers for async report runs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"ratebot/internal/service"
)

// RunProcessor executes a recorded report run.
type RunProcessor interface {
	ProcessRun(ctx context.Context, runID string) error
}

// NewReportRunHandler returns a function to handle report run tasks.
func NewReportRunHandler(svc RunProcessor, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload service.RunReportPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.RunID == "" {
			logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		err := svc.ProcessRun(ctx, payload.RunID)
		if err != nil {
			logger.Errorw("Task processing failed", "run_id", payload.RunID, "error", err)
			return err
		}

		logger.Infow("Task completed", "run_id", payload.RunID)
		return nil
	}
}

// AsynqEnqueuer is responsible for enqueuing tasks to an Asynq queue with specific configurations for retries and timeouts.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, retry limit, and task timeout duration.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// NewRunTask builds the Asynq task for a report run.
func NewRunTask(payload service.RunReportPayload, maxRetry int, timeout time.Duration) (*asynq.Task, error) {
	if payload.RunID == "" {
		return nil, errors.New("run_id is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(service.TaskTypeRunReport, data,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(timeout),
		asynq.TaskID(payload.RunID),
	), nil
}

// EnqueueRunTask enqueues a report run task with the specified payload and context using Asynq.
func (e *AsynqEnqueuer) EnqueueRunTask(ctx context.Context, payload service.RunReportPayload) error {
	task, err := NewRunTask(payload, e.maxRetry, e.timeout)
	if err != nil {
		return err
	}

	_, err = e.client.EnqueueContext(ctx, task)
	return err
}
