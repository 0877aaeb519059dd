//go:build integration

package integration

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ratebot/internal/config"
	"ratebot/internal/report"
	"ratebot/internal/repository"
	"ratebot/internal/testkit"
)

func newRepo() repository.RunRepository {
	return repository.NewPostgresRunRepository(testDB)
}

func TestCreateRun(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRepo()

	id := uuid.New().String()
	got, err := repo.CreateRun(ctx, "usd_dop", id)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if got != id {
		t.Fatalf("expected id %s, got %s", id, got)
	}

	run, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run == nil {
		t.Fatal("expected run record, got nil")
	}
	if run.Report != "usd_dop" {
		t.Fatalf("expected report usd_dop, got %s", run.Report)
	}
	if run.Status != repository.StatusPending {
		t.Fatalf("expected PENDING, got %s", run.Status)
	}
	if run.Entries != nil || run.HTML != nil || run.UpdatedAt != nil {
		t.Fatal("expected empty outcome for a PENDING run")
	}
}

func TestCreateRun_Dedup(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRepo()

	id1 := uuid.New().String()
	if _, err := repo.CreateRun(ctx, "usd_dop", id1); err != nil {
		t.Fatalf("first CreateRun: %v", err)
	}

	// Second call while PENDING should return existing ID.
	got, err := repo.CreateRun(ctx, "usd_dop", uuid.New().String())
	if err != nil {
		t.Fatalf("second CreateRun: %v", err)
	}
	if got != id1 {
		t.Fatalf("expected dedup to return %s, got %s", id1, got)
	}

	// Still deduplicated while RUNNING.
	if err := repo.MarkRunning(ctx, id1); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	got, err = repo.CreateRun(ctx, "usd_dop", uuid.New().String())
	if err != nil {
		t.Fatalf("third CreateRun: %v", err)
	}
	if got != id1 {
		t.Fatalf("expected dedup to return %s while RUNNING, got %s", id1, got)
	}

	// Another report is independent.
	other := uuid.New().String()
	got, err = repo.CreateRun(ctx, "eur_dop", other)
	if err != nil {
		t.Fatalf("CreateRun other report: %v", err)
	}
	if got != other {
		t.Fatalf("expected new id %s for other report, got %s", other, got)
	}
}

func TestCreateRun_AfterCompletion(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRepo()

	id1 := uuid.New().String()
	if _, err := repo.CreateRun(ctx, "usd_dop", id1); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := repo.MarkRunning(ctx, id1); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := repo.MarkCompleted(ctx, id1, repository.Outcome{Status: repository.StatusSuccess, HTML: "<html></html>"}); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	id2 := uuid.New().String()
	got, err := repo.CreateRun(ctx, "usd_dop", id2)
	if err != nil {
		t.Fatalf("CreateRun after completion: %v", err)
	}
	if got != id2 {
		t.Fatalf("expected new id %s, got %s", id2, got)
	}
}

func TestMarkRunning(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRepo()

	id := uuid.New().String()
	if _, err := repo.CreateRun(ctx, "usd_dop", id); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := repo.MarkRunning(ctx, id); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}

	t.Run("status is RUNNING", func(t *testing.T) {
		run, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if run.Status != repository.StatusRunning {
			t.Fatalf("expected RUNNING, got %s", run.Status)
		}
	})

	t.Run("second call fails", func(t *testing.T) {
		if err := repo.MarkRunning(ctx, id); !errors.Is(err, repository.ErrRunNotClaimable) {
			t.Fatalf("expected ErrRunNotClaimable for RUNNING record, got %v", err)
		}
	})

	t.Run("failed run can be retried", func(t *testing.T) {
		if err := repo.MarkCompleted(ctx, id, repository.Outcome{Status: repository.StatusFailed, ErrorMsg: "boom"}); err != nil {
			t.Fatalf("MarkCompleted FAILED: %v", err)
		}
		if err := repo.MarkRunning(ctx, id); err != nil {
			t.Fatalf("MarkRunning after FAILED: %v", err)
		}
	})
}

func TestMarkRunning_OtherRunInFlight(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRepo()

	failed := uuid.New().String()
	if _, err := repo.CreateRun(ctx, "usd_dop", failed); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := repo.MarkCompleted(ctx, failed, repository.Outcome{Status: repository.StatusFailed, ErrorMsg: "boom"}); err != nil {
		t.Fatalf("MarkCompleted FAILED: %v", err)
	}
	if _, err := repo.CreateRun(ctx, "usd_dop", uuid.New().String()); err != nil {
		t.Fatalf("CreateRun second: %v", err)
	}

	if err := repo.MarkRunning(ctx, failed); !errors.Is(err, repository.ErrRunNotClaimable) {
		t.Fatalf("expected ErrRunNotClaimable while another run is in flight, got %v", err)
	}
}

func TestMarkCompleted_Success(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRepo()

	id := uuid.New().String()
	if _, err := repo.CreateRun(ctx, "usd_dop", id); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := repo.MarkRunning(ctx, id); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}

	entries := []report.Entry{
		{SourceName: "Banco Popular", Buy: "$57.50", Sell: "$60.50"},
		report.UnavailableEntry("Banreservas"),
	}
	outcome := repository.Outcome{
		Status:     repository.StatusSuccess,
		Entries:    entries,
		HTML:       "<html>León</html>",
		Recipients: 7,
	}
	if err := repo.MarkCompleted(ctx, id, outcome); err != nil {
		t.Fatalf("MarkCompleted SUCCESS: %v", err)
	}

	run, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run.Status != repository.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", run.Status)
	}
	if len(run.Entries) != 2 || run.Entries[0] != entries[0] || run.Entries[1] != entries[1] {
		t.Fatalf("expected entries to round-trip in order, got %+v", run.Entries)
	}
	if run.HTML == nil || *run.HTML != "<html>León</html>" {
		t.Fatal("expected html to be stored")
	}
	if run.Recipients != 7 {
		t.Fatalf("expected 7 recipients, got %d", run.Recipients)
	}
	if run.ErrorMsg != nil {
		t.Fatalf("expected no error, got %s", *run.ErrorMsg)
	}
	if run.UpdatedAt == nil {
		t.Fatal("expected updated_at to be set")
	}
}

func TestMarkCompleted_TerminalIsFinal(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRepo()

	id := uuid.New().String()
	if _, err := repo.CreateRun(ctx, "usd_dop", id); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := repo.MarkCompleted(ctx, id, repository.Outcome{Status: repository.StatusDeliveryFailed, HTML: "<html></html>", ErrorMsg: "mailjet: 401"}); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := repo.MarkCompleted(ctx, id, repository.Outcome{Status: repository.StatusSuccess}); err == nil {
		t.Fatal("expected error completing a finished run")
	}

	run, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run.Status != repository.StatusDeliveryFailed || run.ErrorMsg == nil || *run.ErrorMsg != "mailjet: 401" {
		t.Fatalf("expected DELIVERY_FAILED with error, got %s", run.Status)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)

	run, err := newRepo().GetByID(ctx, uuid.New().String())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil, got %+v", run)
	}
}

func TestGetLatestSuccess(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRepo()

	complete := func(status repository.Status, html string) string {
		t.Helper()
		id := uuid.New().String()
		if _, err := repo.CreateRun(ctx, "usd_dop", id); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
		if err := repo.MarkCompleted(ctx, id, repository.Outcome{Status: status, HTML: html}); err != nil {
			t.Fatalf("MarkCompleted: %v", err)
		}
		return id
	}

	if run, err := repo.GetLatestSuccess(ctx, "usd_dop"); err != nil || run != nil {
		t.Fatalf("expected no run yet, got %+v, %v", run, err)
	}

	complete(repository.StatusSuccess, "<html>first</html>")
	second := complete(repository.StatusDeliveryFailed, "<html>second</html>")
	complete(repository.StatusFailed, "")

	run, err := repo.GetLatestSuccess(ctx, "usd_dop")
	if err != nil {
		t.Fatalf("GetLatestSuccess: %v", err)
	}
	if run == nil || run.ID != second {
		t.Fatalf("expected latest built run %s, got %+v", second, run)
	}
	if run.HTML == nil || *run.HTML != "<html>second</html>" {
		t.Fatal("expected html of the latest built run")
	}
}

func TestOpenRunHistory_ReportsInFlightRuns(t *testing.T) {
	resetTestData(t)
	ctx := testContext(t)
	repo := newRepo()

	pending := uuid.New().String()
	if _, err := repo.CreateRun(ctx, "usd_dop", pending); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	done := uuid.New().String()
	if _, err := repo.CreateRun(ctx, "eur_dop", done); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := repo.MarkCompleted(ctx, done, repository.Outcome{Status: repository.StatusSuccess, HTML: "<html></html>"}); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	cfg := &config.DatabaseConfig{DSN: testkit.Global().PostgresDSN(), MaxOpenConns: 2, MaxIdleConns: 1}
	db, err := repository.OpenRunHistory(ctx, cfg, zap.New(core).Sugar())
	if err != nil {
		t.Fatalf("OpenRunHistory: %v", err)
	}
	defer func() { _ = db.Close() }()

	left := logs.FilterMessage("Run left in flight").All()
	if len(left) != 1 {
		t.Fatalf("expected 1 in-flight run logged, got %d", len(left))
	}
	if got := left[0].ContextMap()["run_id"]; got != pending {
		t.Fatalf("expected run %s, got %v", pending, got)
	}

	runs, err := repository.InFlightRuns(ctx, db)
	if err != nil {
		t.Fatalf("InFlightRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != repository.StatusPending || runs[0].Report != "usd_dop" {
		t.Fatalf("unexpected in-flight runs: %+v", runs)
	}
}
