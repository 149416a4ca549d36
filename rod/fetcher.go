// Package rod provides a browser-driven implementation of
// siteport.Fetcher using Chrome automation. It renders JavaScript-heavy
// pages, probes a prioritized chain of content-region selectors, and
// returns the first region with enough content.
package rod

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fwojciec/siteport"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout is the default per-navigation timeout.
const DefaultFetchTimeout = 60 * time.Second

// DefaultSettleTime is how long to wait after load before probing
// selectors, giving client-side rendering time to finish.
const DefaultSettleTime = 2 * time.Second

// DefaultMinContentLength is the minimum extracted HTML length for a
// selector candidate to be accepted.
const DefaultMinContentLength = 200

// Ensure Fetcher implements siteport.Fetcher at compile time.
var _ siteport.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered content regions using Chrome browser
// automation. Each Fetch runs in its own page, torn down after use; the
// underlying browser is shared and recycled by a BrowserManager.
// Fetcher is safe for concurrent use, though the pipeline drives it one
// URL at a time by policy.
type Fetcher struct {
	manager   *BrowserManager
	timeout   time.Duration
	settle    time.Duration
	selectors []string
	minLen    int
	headless  bool
	fallback  siteport.Extractor
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-navigation timeout.
// Defaults to DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithSettleTime sets the post-load settle wait.
// Defaults to DefaultSettleTime.
func WithSettleTime(d time.Duration) Option {
	return func(f *Fetcher) {
		f.settle = d
	}
}

// WithSelectors sets the content-region probe chain, most specific
// first. Defaults to siteport.DefaultContentSelectors.
func WithSelectors(selectors []string) Option {
	return func(f *Fetcher) {
		f.selectors = selectors
	}
}

// WithMinContentLength sets the minimum extracted HTML length for a
// selector candidate to be accepted. Defaults to DefaultMinContentLength.
func WithMinContentLength(n int) Option {
	return func(f *Fetcher) {
		f.minLen = n
	}
}

// WithHeadless toggles headless mode for the underlying browser.
// Defaults to true.
func WithHeadless(headless bool) Option {
	return func(f *Fetcher) {
		f.headless = headless
	}
}

// WithFallbackExtractor sets the extractor consulted when no selector
// in the chain yields enough content. Optional.
func WithFallbackExtractor(e siteport.Extractor) Option {
	return func(f *Fetcher) {
		f.fallback = e
	}
}

// NewFetcher creates a new Fetcher backed by a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		settle:    DefaultSettleTime,
		selectors: siteport.DefaultContentSelectors,
		minLen:    DefaultMinContentLength,
		headless:  true,
	}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(WithBrowserHeadless(f.headless))
	if err != nil {
		return nil, err
	}
	f.manager = manager

	return f, nil
}

// Fetch navigates to the URL and returns the HTML of the first content
// region in the selector chain that exceeds the minimum length, with
// scripts, styles, and inline event handlers stripped, along with the
// status of the main document navigation.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*siteport.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	defer func() {
		_ = page.Close()
		f.manager.IncrementPageCount()
	}()

	page = page.Context(ctx)

	// Block media and fonts; the pipeline only needs markup.
	router := page.HijackRequests()
	block := func(h *rod.Hijack) {
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
	}
	if err := router.Add("*", proto.NetworkResourceTypeMedia, block); err != nil {
		return nil, fmt.Errorf("installing request router: %w", err)
	}
	if err := router.Add("*", proto.NetworkResourceTypeFont, block); err != nil {
		return nil, fmt.Errorf("installing request router: %w", err)
	}
	go router.Run()
	defer func() { _ = router.Stop() }()

	// Subscribe before navigating so the main document response is not
	// missed. The wait is resolved below, after load.
	var status int
	waitStatus := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for load: %w", err)
	}
	waitStatus()

	// Settle wait for client-side rendering.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.settle):
	}

	html, err := f.probeSelectors(page)
	if err != nil {
		return nil, err
	}

	return &siteport.FetchResult{
		HTML:       StripVolatileMarkup(html),
		HTTPStatus: status,
	}, nil
}

// probeSelectors walks the selector chain and returns the first
// candidate whose HTML exceeds the minimum length. When nothing in the
// chain qualifies, the fallback extractor (if configured) gets the full
// page as a last resort.
func (f *Fetcher) probeSelectors(page *rod.Page) (string, error) {
	for _, selector := range f.selectors {
		el, err := page.Sleeper(rod.NotFoundSleeper).Element(selector)
		if err != nil {
			continue
		}
		html, err := el.HTML()
		if err != nil {
			continue
		}
		if len(html) >= f.minLen {
			return html, nil
		}
	}

	if f.fallback != nil {
		full, err := page.HTML()
		if err != nil {
			return "", fmt.Errorf("reading page HTML: %w", err)
		}
		content, err := f.fallback.Extract(full)
		if err == nil && len(content) >= f.minLen {
			return content, nil
		}
	}

	return "", siteport.Errorf(siteport.ENOTFOUND, "no content region matched")
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// volatileTags are removed entirely before captured HTML is persisted.
var volatileTags = []string{"script", "style", "noscript"}

// eventHandlerAttr matches inline event-handler attributes (onclick,
// onload, etc.) including their values.
var eventHandlerAttr = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)

// StripVolatileMarkup removes script/style/noscript elements and inline
// event-handler attributes from an HTML fragment. Works on strings
// rather than a parsed DOM so malformed fragments survive untouched
// apart from the removals.
func StripVolatileMarkup(html string) string {
	for _, tag := range volatileTags {
		html = removeTagBlocks(html, tag)
	}
	return eventHandlerAttr.ReplaceAllString(html, "")
}

func removeTagBlocks(html, tag string) string {
	lower := strings.ToLower(html)
	open := "<" + tag
	closing := "</" + tag + ">"

	var b strings.Builder
	for {
		start := strings.Index(lower, open)
		if start < 0 {
			b.WriteString(html)
			break
		}
		end := strings.Index(lower[start:], closing)
		if end < 0 {
			// Unclosed tag: drop from the open tag to the end.
			b.WriteString(html[:start])
			break
		}
		b.WriteString(html[:start])
		cut := start + end + len(closing)
		html = html[cut:]
		lower = lower[cut:]
	}
	return b.String()
}
