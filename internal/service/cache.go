package service

import (
	"context"
	"time"
)

const cacheKeyPrefixLatest = "latest_report:"

func latestCacheKey(reportName string) string {
	return cacheKeyPrefixLatest + "{" + reportName + "}"
}

func (s *ReportService) cacheGetLatest(ctx context.Context) (*LatestReport, bool) {
	if s.cache == nil {
		return nil, false
	}

	key := latestCacheKey(s.opts.ReportName)
	vals, err := s.cache.HMGet(ctx, key, "run_id", "html", "updated_at").Result()
	if err != nil || len(vals) != 3 || vals[0] == nil || vals[1] == nil || vals[2] == nil {
		return nil, false
	}

	runID, ok := asString(vals[0])
	if !ok {
		return nil, false
	}
	html, ok := asString(vals[1])
	if !ok {
		return nil, false
	}
	ts, ok := asString(vals[2])
	if !ok {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return nil, false
	}

	return &LatestReport{RunID: runID, HTML: html, UpdatedAt: t}, true
}

func (s *ReportService) cacheSetLatest(ctx context.Context, latest *LatestReport) {
	if s.cache == nil || latest == nil || s.opts.LatestTTL <= 0 {
		return
	}

	key := latestCacheKey(s.opts.ReportName)
	pipe := s.cache.Pipeline()
	pipe.HSet(ctx, key,
		"run_id", latest.RunID,
		"html", latest.HTML,
		"updated_at", latest.UpdatedAt.UTC().Format(time.RFC3339))
	pipe.Expire(ctx, key, s.opts.LatestTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warnw("Failed to update cache", "key", key, "error", err)
	}
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}
