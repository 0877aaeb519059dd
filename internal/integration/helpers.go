//go:build integration

package integration

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ratebot/internal/config"
	"ratebot/internal/mail"
	"ratebot/internal/provider"
	"ratebot/internal/recipients"
	"ratebot/internal/repository"
	"ratebot/internal/service"
	"ratebot/internal/testkit"
)

var (
	testEnv      *testkit.Env
	testDB       *sql.DB
	testRDB      *redis.Client
	testAsynqRDB *redis.Client
)

// resetTestData truncates the report_runs table and flushes both Redis databases.
func resetTestData(t *testing.T) {
	t.Helper()

	if err := testEnv.Reset(context.Background()); err != nil {
		t.Fatalf("failed to reset test data: %v", err)
	}
}

// testContext returns a context with a 30-second deadline tied to the test's cleanup.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// newSourceServer serves one rate page that parses and one that fails.
func newSourceServer(t *testing.T) (*httptest.Server, []config.SourceConfig) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/popular":
			_, _ = w.Write([]byte(`<table><tr><td>USD</td><td>$57.50= $0.00</td><td>$60.50= $0.00</td></tr></table>`))
		case "/bhd":
			_, _ = w.Write([]byte(`<table><tr><td>USD</td><td>$57.60</td><td>$60.25</td></tr></table>`))
		default:
			_, _ = w.Write([]byte(`<html><body>sin tabla</body></html>`))
		}
	}))
	t.Cleanup(srv.Close)

	return srv, []config.SourceConfig{
		{Name: "Banco Popular", URL: srv.URL + "/popular"},
		{Name: "Banreservas", URL: srv.URL + "/banreservas"},
		{Name: "Banco BHD León", URL: srv.URL + "/bhd"},
	}
}

// newTestService wires a ReportService to the real Postgres and Redis, scraping sources
// and logging instead of sending mail.
func newTestService(t *testing.T, sources []config.SourceConfig, enqueuer service.TaskEnqueuer) *service.ReportService {
	t.Helper()
	logger := zap.NewNop().Sugar()
	sender := mail.Sender{Email: "bot@example.com", Name: "USD DOP Bot"}

	prov := provider.NewCachedRatesProvider(
		provider.NewScrapingProvider(provider.NewHTTPFetcher(5, "ratebot-it"), logger),
		testRDB, time.Minute)

	return service.NewReportService(service.Deps{
		Repo:       repository.NewPostgresRunRepository(testDB),
		Provider:   prov,
		Sources:    sources,
		Recipients: recipients.NewStaticStore([]string{"ana@example.com", "luis@example.com"}),
		Transport:  mail.NewLogTransport(sender, logger),
		Enqueuer:   enqueuer,
		Cache:      testRDB,
	}, service.Options{
		ReportName: "usd_dop",
		Subject:    "Tasas USD/DOP hoy",
		Sender:     sender,
		Location:   time.UTC,
		LatestTTL:  time.Hour,
	}, logger)
}
