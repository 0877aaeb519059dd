package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ratebot/internal/config"
	"ratebot/internal/mail"
	"ratebot/internal/report"
)

// CollectRates fetches every configured source and returns exactly one entry per source,
// in configured order. A source that cannot be fetched or parsed becomes an
// Unavailable entry.
func (s *ReportService) CollectRates(ctx context.Context) []report.Entry {
	entries := make([]report.Entry, len(s.sources))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, src := range s.sources {
		g.Go(func() error {
			entries[i] = s.fetchEntry(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return entries
}

func (s *ReportService) fetchEntry(ctx context.Context, src config.SourceConfig) report.Entry {
	pair, err := s.provider.GetRates(ctx, src)
	if err != nil {
		s.log.Warnw("Rates unavailable", "source", src.Name, "url", src.URL, "error", err)
		return report.UnavailableEntry(src.Name)
	}
	s.log.Infow("Rates collected", "source", src.Name, "buy", pair.Buy, "sell", pair.Sell)
	return report.Entry{SourceName: src.Name, Buy: pair.Buy, Sell: pair.Sell}
}

// BuildReport collects the rates and renders them dated date.
func (s *ReportService) BuildReport(ctx context.Context, date time.Time) (*Report, error) {
	entries := s.CollectRates(ctx)
	html, err := s.renderer.Render(entries, date)
	if err != nil {
		return nil, err
	}
	return &Report{Date: date, Entries: entries, HTML: html}, nil
}

// Distribute sends the report to every recipient and returns how many there were.
// An empty recipient list is not an error.
func (s *ReportService) Distribute(ctx context.Context, rep *Report) (int, error) {
	to, err := s.recipients.ListRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}
	if len(to) == 0 {
		s.log.Infow("No recipients found, nothing sent", "report", s.opts.ReportName)
		return 0, nil
	}

	msg := mail.Message{Subject: s.opts.Subject, HTML: rep.HTML, To: to}
	mail.LogDetails(s.log, s.opts.Sender, msg)
	if err := s.transport.Send(ctx, msg); err != nil {
		return len(to), fmt.Errorf("send report: %w", err)
	}

	s.log.Infow("Report sent", "report", s.opts.ReportName, "recipients", len(to))
	return len(to), nil
}

// RunOnce executes the whole pipeline: collect, render, write the preview, then deliver.
// The preview is written before recipients are looked up, so it exists even when delivery
// fails. A delivery failure returns the summary together with an error wrapping ErrDelivery.
func (s *ReportService) RunOnce(ctx context.Context) (*RunSummary, error) {
	rep, err := s.BuildReport(ctx, s.today())
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	if s.opts.PreviewPath != "" {
		if err := report.WritePreview(s.opts.PreviewPath, rep.HTML); err != nil {
			return nil, err
		}
		s.log.Infow("Preview written", "path", s.opts.PreviewPath)
	}

	summary := &RunSummary{Report: rep}
	sent, err := s.Distribute(ctx, rep)
	summary.Recipients = sent
	if err != nil {
		return summary, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return summary, nil
}

// Preview collects and renders today's report without storing or sending it.
func (s *ReportService) Preview(ctx context.Context) (string, error) {
	rep, err := s.BuildReport(ctx, s.today())
	if err != nil {
		s.log.Errorw("Render error", "error", err)
		return "", ErrInternal
	}
	return rep.HTML, nil
}

func (s *ReportService) today() time.Time {
	return s.now().In(s.opts.Location)
}

// RenderSample renders the fixed example rates dated today, for layout checks.
func (s *ReportService) RenderSample() (string, error) {
	return s.renderer.Render(report.SampleEntries(), s.today())
}
