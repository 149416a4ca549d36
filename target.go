package siteport

import (
	"context"
	"strings"
)

// Kind is the closed set of content kinds a captured document can be.
type Kind string

// Content kinds recognized by the classifier and the exporter.
const (
	KindPost Kind = "post"
	KindPage Kind = "page"
)

// ParseKind parses an operator-supplied kind token. Returns false for
// anything outside the closed set.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "post":
		return KindPost, true
	case "page":
		return KindPage, true
	}
	return "", false
}

// TargetDiscoverer expands a sitemap reference from the target list
// into concrete page URLs, via robots.txt directives or /sitemap.xml.
type TargetDiscoverer interface {
	Discover(ctx context.Context, siteURL string) ([]string, error)
}

// ScrapeTarget is one URL to capture, optionally with an explicit kind
// that bypasses heuristic classification. Targets are immutable and
// consumed once by the fetch stage.
type ScrapeTarget struct {
	URL          string
	ExplicitKind Kind // empty when the classifier should decide
}

// Validate returns an error if the target contains invalid fields.
func (t *ScrapeTarget) Validate() error {
	if t.URL == "" {
		return Errorf(EINVALID, "target URL required")
	}
	if !strings.HasPrefix(t.URL, "http://") && !strings.HasPrefix(t.URL, "https://") {
		return Errorf(EINVALID, "target URL %q must be absolute", t.URL)
	}
	return nil
}
