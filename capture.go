package siteport

import (
	"context"
	"time"
)

// CapturedDocument is the rendered HTML captured for one target,
// persisted to the capture store and consumed by the asset and
// sanitization stages.
type CapturedDocument struct {
	SourceKey   string    `json:"sourceKey"`
	SourceURL   string    `json:"sourceUrl"`
	RawHTML     string    `json:"-"`
	ContentHash uint64    `json:"contentHash"`
	HTTPStatus  int       `json:"httpStatus"`
	CapturedAt  time.Time `json:"capturedAt"`

	// ExplicitKind carries the operator-supplied kind from the target,
	// when present, through to classification.
	ExplicitKind Kind `json:"explicitKind,omitempty"`
}

// Validate returns an error if the document contains invalid fields.
func (d *CapturedDocument) Validate() error {
	if d.SourceKey == "" {
		return Errorf(EINVALID, "captured document source key required")
	}
	if d.SourceURL == "" {
		return Errorf(EINVALID, "captured document source URL required")
	}
	return nil
}

// FetchResult is the outcome of one successful page fetch.
type FetchResult struct {
	// HTML is the extracted content region with scripts, styles, and
	// inline event handlers stripped.
	HTML string

	// HTTPStatus is the status of the main document navigation. Zero
	// when the browser never reported one.
	HTTPStatus int
}

// Fetcher retrieves the primary content region of a rendered page.
// Implementations use browser automation to handle JavaScript-rendered
// content.
type Fetcher interface {
	// Fetch navigates to the URL in an isolated browsing context, waits
	// for rendering to settle, and locates the content region via the
	// configured selector chain.
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	// Close releases browser resources. Must be called when the Fetcher
	// is no longer needed.
	Close() error
}

// Extractor recovers the main content from raw HTML when no selector in
// the content-region chain yields enough content.
type Extractor interface {
	Extract(html string) (contentHTML string, err error)
}

// ExtractorChain tries each extractor in order and returns the first
// non-empty extraction. It fails only when every extractor fails.
type ExtractorChain []Extractor

// Extract implements Extractor.
func (c ExtractorChain) Extract(html string) (string, error) {
	var lastErr error
	for _, e := range c {
		content, err := e.Extract(html)
		if err == nil && content != "" {
			return content, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", Errorf(ENOTFOUND, "no extractor produced content")
}

// CaptureStore persists captured documents and the capture index.
type CaptureStore interface {
	// SaveDocument writes the raw HTML keyed by source key. Same-key
	// writes overwrite.
	SaveDocument(ctx context.Context, doc *CapturedDocument) error

	// SaveIndex writes the capture index: the per-key metadata plus the
	// URL to original path mapping used later for slug derivation.
	SaveIndex(ctx context.Context, idx *CaptureIndex) error

	// LoadDocuments reads all captured documents back, sorted by source
	// key.
	LoadDocuments(ctx context.Context) ([]*CapturedDocument, error)

	// LoadIndex reads the capture index. Returns ENOTFOUND if no index
	// exists.
	LoadIndex(ctx context.Context) (*CaptureIndex, error)
}

// CaptureIndex records the outcome of a fetch stage run.
type CaptureIndex struct {
	RunID      string                       `json:"runId"`
	StartedAt  time.Time                    `json:"startedAt"`
	Duration   time.Duration                `json:"duration"`
	Successful int                          `json:"successful"`
	Failed     int                          `json:"failed"`
	Documents  map[string]*CapturedDocument `json:"documents"` // keyed by source key
	Failures   []CaptureFailure             `json:"failures,omitempty"`
}

// CaptureFailure records one target that exhausted its fetch retries.
type CaptureFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}
