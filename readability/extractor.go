// Package readability provides a content extractor backed by
// go-readability. It serves as the second link of the fallback chain,
// behind trafilatura, for pages whose markup defeats the selector
// probe.
package readability

import (
	"strings"

	"github.com/fwojciec/siteport"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements siteport.Extractor at compile time.
var _ siteport.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content region.
func (e *Extractor) Extract(rawHTML string) (string, error) {
	if rawHTML == "" {
		return "", siteport.Errorf(siteport.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", siteport.Errorf(siteport.ENOTFOUND, "readability extraction failed: %v", err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return "", siteport.Errorf(siteport.ENOTFOUND, "readability found no content")
	}
	return article.Content, nil
}
