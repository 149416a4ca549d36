package mock

import (
	"context"

	"github.com/fwojciec/siteport"
)

var _ siteport.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of siteport.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*siteport.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*siteport.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ siteport.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of siteport.Extractor.
type Extractor struct {
	ExtractFn func(html string) (string, error)
}

func (e *Extractor) Extract(html string) (string, error) {
	return e.ExtractFn(html)
}

var _ siteport.TargetDiscoverer = (*TargetDiscoverer)(nil)

// TargetDiscoverer is a mock implementation of siteport.TargetDiscoverer.
type TargetDiscoverer struct {
	DiscoverFn func(ctx context.Context, siteURL string) ([]string, error)
}

func (d *TargetDiscoverer) Discover(ctx context.Context, siteURL string) ([]string, error) {
	return d.DiscoverFn(ctx, siteURL)
}
