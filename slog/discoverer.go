package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteport"
)

// Ensure LoggingDiscoverer implements siteport.TargetDiscoverer.
var _ siteport.TargetDiscoverer = (*LoggingDiscoverer)(nil)

// LoggingDiscoverer wraps a TargetDiscoverer with debug logging.
type LoggingDiscoverer struct {
	next   siteport.TargetDiscoverer
	logger *slog.Logger
}

// NewLoggingDiscoverer creates a new LoggingDiscoverer.
func NewLoggingDiscoverer(next siteport.TargetDiscoverer, logger *slog.Logger) *LoggingDiscoverer {
	return &LoggingDiscoverer{next: next, logger: logger}
}

// Discover delegates to the wrapped discoverer and logs the operation.
func (d *LoggingDiscoverer) Discover(ctx context.Context, siteURL string) (urls []string, err error) {
	defer func(begin time.Time) {
		d.logger.Info("sitemap discovery",
			"url", siteURL,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return d.next.Discover(ctx, siteURL)
}
