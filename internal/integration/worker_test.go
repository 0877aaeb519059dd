//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"ratebot/internal/service"
	"ratebot/internal/testkit"
	"ratebot/internal/worker"
)

func TestRequestRun_ProcessedByWorker(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	_, sources := newSourceServer(t)

	redisOpt := asynq.RedisClientOpt{Addr: testAsynqRDB.Options().Addr, DB: testkit.QueueDB}
	client := asynq.NewClient(redisOpt)
	defer func() { _ = client.Close() }()

	svc := newTestService(t, sources, worker.NewAsynqEnqueuer(client, 0, time.Minute))

	srv := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 1, Logger: zap.NewNop().Sugar()})
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeRunReport, worker.NewReportRunHandler(svc, zap.NewNop().Sugar()))
	if err := srv.Start(mux); err != nil {
		t.Fatalf("start asynq server: %v", err)
	}
	defer srv.Shutdown()

	id, status, err := svc.RequestRun(ctx)
	if err != nil {
		t.Fatalf("RequestRun: %v", err)
	}
	if status != "PENDING" {
		t.Fatalf("expected PENDING, got %s", status)
	}

	deadline := time.Now().Add(20 * time.Second)
	for {
		run, err := svc.GetRun(ctx, id)
		if err != nil {
			t.Fatalf("GetRun: %v", err)
		}
		if run.Status == "SUCCESS" {
			if len(run.Entries) != len(sources) {
				t.Fatalf("expected %d entries, got %d", len(sources), len(run.Entries))
			}
			return
		}
		if run.Status == "FAILED" || run.Status == "DELIVERY_FAILED" {
			t.Fatalf("run ended as %s", run.Status)
		}
		if time.Now().After(deadline) {
			t.Fatalf("run still %s after 20s", run.Status)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
