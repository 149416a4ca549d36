package pipeline

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// DomainLimiter enforces a per-domain request rate using token
// buckets. Each domain gets its own limiter with a burst of 1, so
// navigations to the source site are evenly spaced while asset
// downloads from a CDN domain pace independently.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per
// second per domain.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait
// completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

// WaitURL rate-limits by the URL's host. Unparseable URLs share one
// bucket under the empty domain.
func (d *DomainLimiter) WaitURL(ctx context.Context, rawURL string) error {
	domain := ""
	if u, err := url.Parse(rawURL); err == nil {
		domain = u.Host
	}
	return d.Wait(ctx, domain)
}
