package service

import (
	"fmt"
	"time"

	"ratebot/internal/config"
	"ratebot/internal/mail"
)

// OptionsFromConfig builds service options, resolving the report timezone.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		return Options{}, fmt.Errorf("load timezone %q: %w", cfg.Report.Timezone, err)
	}
	return Options{
		ReportName:  cfg.Report.Name,
		Subject:     cfg.Report.Subject,
		PreviewPath: cfg.Report.PreviewPath,
		Sender:      mail.SenderFromConfig(cfg.Mail),
		Concurrency: cfg.Scraper.Concurrency,
		Location:    loc,
		LatestTTL:   time.Duration(cfg.Cache.LatestReportTTLSec) * time.Second,
	}, nil
}
