package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteport"
)

// Ensure LoggingDownloader implements siteport.Downloader.
var _ siteport.Downloader = (*LoggingDownloader)(nil)

// LoggingDownloader wraps a Downloader with per-asset logging.
type LoggingDownloader struct {
	next   siteport.Downloader
	logger *slog.Logger
}

// NewLoggingDownloader creates a new LoggingDownloader.
func NewLoggingDownloader(next siteport.Downloader, logger *slog.Logger) *LoggingDownloader {
	return &LoggingDownloader{next: next, logger: logger}
}

// Download delegates to the wrapped downloader and logs the operation.
func (d *LoggingDownloader) Download(ctx context.Context, ref *siteport.ImageReference, destDir, filename string) (asset *siteport.ImageAsset, err error) {
	defer func(begin time.Time) {
		var size int64
		if asset != nil {
			size = asset.ByteSize
		}
		d.logger.Info("download",
			"url", ref.NormalizedURL,
			"file", filename,
			"bytes", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Download(ctx, ref, destDir, filename)
}
