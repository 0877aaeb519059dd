package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ratebot/internal/config"
	"ratebot/internal/service"
)

func testConfig(t *testing.T, srvURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Scraper: config.ScraperConfig{TimeoutSec: 2, Concurrency: 2, UserAgent: "ratebot-test"},
		Sources: []config.SourceConfig{
			{Name: "Banco Popular", URL: srvURL + "/popular"},
			{Name: "Banreservas", URL: srvURL + "/down"},
		},
		Report: config.ReportConfig{
			Name:        "usd_dop",
			Subject:     "Tasas USD/DOP hoy",
			PreviewPath: filepath.Join(t.TempDir(), "preview.html"),
			Timezone:    "America/Santo_Domingo",
		},
		Recipients: config.RecipientsConfig{Store: config.StoreStatic, Static: []string{"ana@example.com"}},
		Mail:       config.MailConfig{Transport: config.TransportMailjet, SenderEmail: "bot@example.com"},
		Mailjet:    config.MailjetConfig{BaseURL: srvURL + "/mailjet", Timeout: 2},
	}
}

func newSourceServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/popular" {
			_, _ = w.Write([]byte(`<table><tr><td>USD</td><td>$57.50= $0.00</td><td>$60.50= $0.00</td></tr></table>`))
			return
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunPipeline_DryRun(t *testing.T) {
	srv := newSourceServer(t)
	cfg := testConfig(t, srv.URL)

	// mailjet keys are missing, but a dry run never uses them
	err := runPipeline(context.Background(), cfg, zap.NewNop().Sugar(), true)
	require.NoError(t, err)

	html, err := os.ReadFile(cfg.Report.PreviewPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<td>$57.50</td>")
	assert.Contains(t, string(html), "<td>No disponible</td>")
}

func TestRunPipeline_DeliveryFailure(t *testing.T) {
	srv := newSourceServer(t)
	cfg := testConfig(t, srv.URL)
	cfg.Mailjet.APIKey = "key"
	cfg.Mailjet.SecretKey = "secret"

	err := runPipeline(context.Background(), cfg, zap.NewNop().Sugar(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrDelivery)
	assert.FileExists(t, cfg.Report.PreviewPath)
}

func TestRunPipeline_InvalidConfig(t *testing.T) {
	srv := newSourceServer(t)
	cfg := testConfig(t, srv.URL)

	err := runPipeline(context.Background(), cfg, zap.NewNop().Sugar(), false)

	assert.ErrorContains(t, err, "mailjet.api_key")
	assert.NoFileExists(t, cfg.Report.PreviewPath)
}

func TestRenderPreview_Sample(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	path, err := renderPreview(context.Background(), cfg, zap.NewNop().Sugar(), true)
	require.NoError(t, err)
	assert.Equal(t, cfg.Report.PreviewPath, path)

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Banco BHD León")
	assert.Contains(t, string(html), "$58.40")
}
