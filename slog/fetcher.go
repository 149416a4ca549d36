package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteport"
)

// Ensure LoggingFetcher implements siteport.Fetcher.
var _ siteport.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with per-capture logging.
type LoggingFetcher struct {
	next   siteport.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next siteport.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the operation.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (res *siteport.FetchResult, err error) {
	defer func(begin time.Time) {
		bytes, status := 0, 0
		if res != nil {
			bytes = len(res.HTML)
			status = res.HTTPStatus
		}
		f.logger.Info("fetch",
			"url", url,
			"status", status,
			"bytes", bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
