// Package trafilatura provides a boilerplate-removing content extractor
// used as the fetch stage's last resort, when no selector in the
// content-region chain yields enough content.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/siteport"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements siteport.Extractor at compile time.
var _ siteport.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to recover the main content region
// from a full rendered page.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content as HTML.
// Returns ENOTFOUND when trafilatura cannot identify a content node.
func (e *Extractor) Extract(rawHTML string) (string, error) {
	if rawHTML == "" {
		return "", siteport.Errorf(siteport.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return "", err
	}

	if result.ContentNode == nil {
		return "", siteport.Errorf(siteport.ENOTFOUND, "no content node identified")
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return "", err
	}
	return buf.String(), nil
}
