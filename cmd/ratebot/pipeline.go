package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ratebot/internal/config"
	"ratebot/internal/mail"
	"ratebot/internal/provider"
	"ratebot/internal/recipients"
	"ratebot/internal/report"
	"ratebot/internal/service"
)

// runPipeline builds, previews and sends the report once. Nothing is recorded in the
// run history and no Redis is needed.
func runPipeline(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, dryRun bool) error {
	if dryRun {
		cfg.Mail.Transport = config.TransportLog
	}
	if err := cfg.ValidatePipeline(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	transport, err := mail.NewTransport(ctx, cfg, logger)
	if err != nil {
		return err
	}
	store, err := recipients.NewStore(ctx, cfg.Recipients)
	if err != nil {
		return err
	}
	svc, err := newService(cfg, logger, store, transport)
	if err != nil {
		return err
	}

	summary, err := svc.RunOnce(ctx)
	if err != nil {
		return err
	}
	logger.Infow("Run finished", "recipients", summary.Recipients, "preview", cfg.Report.PreviewPath)
	return nil
}

// renderPreview writes the report to the preview file and returns its path.
func renderPreview(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, sample bool) (string, error) {
	svc, err := newService(cfg, logger, nil, nil)
	if err != nil {
		return "", err
	}

	var html string
	if sample {
		html, err = svc.RenderSample()
	} else {
		html, err = svc.Preview(ctx)
	}
	if err != nil {
		return "", err
	}

	path := cfg.Report.PreviewPath
	if path == "" {
		path = report.DefaultPreviewPath
	}
	if err := report.WritePreview(path, html); err != nil {
		return "", err
	}
	return path, nil
}

func newService(cfg *config.Config, logger *zap.SugaredLogger, store recipients.Store, transport mail.Transport) (*service.ReportService, error) {
	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return service.NewReportService(service.Deps{
		Provider:   provider.NewRatesProvider(cfg, nil, logger),
		Sources:    cfg.Sources,
		Renderer:   report.NewRenderer(report.Options{LegacyUnescaped: cfg.Report.LegacyUnescaped}),
		Recipients: store,
		Transport:  transport,
	}, opts, logger), nil
}
