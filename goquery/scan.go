// Package goquery implements the DOM-level stages of the migration
// pipeline: image scanning, content classification, sanitization, link
// rewriting, markup repair, and export field extraction.
package goquery

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/siteport"
)

// Ensure Scanner implements siteport.ImageScanner at compile time.
var _ siteport.ImageScanner = (*Scanner)(nil)

// lazySrcAttrs are lazy-load attribute variants probed before src.
var lazySrcAttrs = []string{"data-src", "data-lazy-src", "data-original", "data-srcset"}

// chromeContainers are structural regions whose images are never
// content: headers, footers, navigation, sidebars.
var chromeContainers = "header, footer, nav, aside"

// chromeClassPattern matches class names that mark a region as page
// chrome even when the tag itself is generic.
var chromeClassPattern = regexp.MustCompile(`(?i)(^|[\s-])(header|footer|nav|navbar|menu|sidebar|breadcrumb)([\s-]|$)`)

// avatarPattern matches URLs, alt text, titles, and class names of
// non-content imagery: avatars, testimonial portraits, staff photos.
var avatarPattern = regexp.MustCompile(`(?i)(avatar|gravatar|testimonial|head[\s_-]?shot|staff[\s_-]?(photo|pic)|team[\s_-]?member|author[\s_-]?(photo|img)|profile[\s_-]?(photo|pic))`)

// backgroundImageDecl extracts url(...) values from inline style
// background declarations.
var backgroundImageDecl = regexp.MustCompile(`(?i)background(?:-image)?\s*:[^;]*?url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// malformedImgTag matches entity-encoded img tags that some source CMSs
// emit inside exported content. These are text to the DOM parser, so
// they are recovered from the raw markup.
var malformedImgTag = regexp.MustCompile(`(?i)&lt;img[^&]*?src\s*=\s*(?:&quot;|["'])([^"'&]+)(?:&quot;|["'])`)

// Scanner finds image references in captured documents and applies the
// exclusion heuristics. It does not deduplicate; the asset stage does
// that across all documents in the run.
type Scanner struct {
	excludedContainers []string
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithExcludedContainers sets per-site container class names whose
// nested images are dropped.
func WithExcludedContainers(classes []string) ScannerOption {
	return func(s *Scanner) {
		s.excludedContainers = classes
	}
}

// NewScanner creates a new Scanner.
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns every image reference found in the document, each
// carrying a keep/drop decision with its reason.
func (s *Scanner) Scan(doc *siteport.CapturedDocument) ([]*siteport.ImageReference, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.RawHTML))
	if err != nil {
		return nil, siteport.Errorf(siteport.EINVALID, "parsing %s: %v", doc.SourceKey, err)
	}

	base := baseURL(doc.SourceURL)
	var refs []*siteport.ImageReference

	// <img> tags, including lazy-load variants and srcset.
	gq.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src := imgSource(sel)
		if src == "" {
			return
		}
		ref := s.newRef(doc, base, src, siteport.DiscoveredViaTag)
		if ref == nil {
			return
		}
		ref.AltText, _ = sel.Attr("alt")
		ref.Title, _ = sel.Attr("title")
		s.decide(ref, sel)
		refs = append(refs, ref)
	})

	// CSS background images in inline styles.
	gq.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		for _, m := range backgroundImageDecl.FindAllStringSubmatch(style, -1) {
			ref := s.newRef(doc, base, m[1], siteport.DiscoveredViaBackground)
			if ref == nil {
				continue
			}
			s.decide(ref, sel)
			refs = append(refs, ref)
		}
	})

	// Malformed tags are invisible to the DOM parser, so they are
	// recovered from the raw markup.
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		seen[ref.NormalizedURL] = true
	}
	for _, m := range malformedImgTag.FindAllStringSubmatch(doc.RawHTML, -1) {
		ref := s.newRef(doc, base, m[1], siteport.DiscoveredViaMalformed)
		if ref == nil || seen[ref.NormalizedURL] {
			continue
		}
		seen[ref.NormalizedURL] = true
		s.decideByValue(ref, "")
		refs = append(refs, ref)
	}

	return refs, nil
}

// newRef decodes, resolves, and normalizes a discovered source value.
// Returns nil for unusable values (data URIs, empty after decoding).
func (s *Scanner) newRef(doc *siteport.CapturedDocument, base *url.URL, src string, via siteport.ImageDiscovery) *siteport.ImageReference {
	src = strings.TrimSpace(html.UnescapeString(src))
	if src == "" || strings.HasPrefix(src, "data:") {
		return nil
	}

	resolved := resolveRef(base, src)
	if resolved == "" {
		return nil
	}

	return &siteport.ImageReference{
		OriginURL:     resolved,
		NormalizedURL: siteport.NormalizeImageURL(resolved),
		SourceKey:     doc.SourceKey,
		DiscoveredVia: via,
	}
}

// decide applies the exclusion heuristics using the element's ancestry.
func (s *Scanner) decide(ref *siteport.ImageReference, sel *goquery.Selection) {
	enclosing := enclosingClasses(sel)

	if insideChrome(sel) {
		ref.Decision = siteport.FilterDecision{Keep: false, Reason: "inside header/footer/nav/sidebar region"}
		return
	}

	for _, class := range s.excludedContainers {
		if sel.Closest("."+class).Length() > 0 {
			ref.Decision = siteport.FilterDecision{Keep: false, Reason: fmt.Sprintf("inside excluded container %q", class)}
			return
		}
	}

	s.decideByValue(ref, enclosing)
}

// decideByValue applies the value-based heuristics: avatar, testimonial,
// and staff-photo patterns over URL, alt text, title, and classes.
func (s *Scanner) decideByValue(ref *siteport.ImageReference, enclosingClasses string) {
	for _, probe := range []struct{ label, value string }{
		{"url", ref.NormalizedURL},
		{"alt text", ref.AltText},
		{"title", ref.Title},
		{"enclosing class", enclosingClasses},
	} {
		if probe.value != "" && avatarPattern.MatchString(probe.value) {
			ref.Decision = siteport.FilterDecision{Keep: false, Reason: "avatar/testimonial pattern in " + probe.label}
			return
		}
	}

	ref.Decision = siteport.FilterDecision{Keep: true}
}

// imgSource returns the best source value for an img element: lazy-load
// attributes first, then src, then the first entry of srcset.
func imgSource(sel *goquery.Selection) string {
	for _, attr := range lazySrcAttrs {
		if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return firstSrcsetEntry(v)
		}
	}
	if v, ok := sel.Attr("src"); ok && strings.TrimSpace(v) != "" {
		return v
	}
	if v, ok := sel.Attr("srcset"); ok && strings.TrimSpace(v) != "" {
		return firstSrcsetEntry(v)
	}
	return ""
}

// firstSrcsetEntry returns the URL of the first srcset candidate,
// stripping its width/density descriptor.
func firstSrcsetEntry(srcset string) string {
	first := srcset
	if i := strings.Index(srcset, ","); i >= 0 {
		first = srcset[:i]
	}
	fields := strings.Fields(strings.TrimSpace(first))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// insideChrome reports whether the element sits in a structural chrome
// region, by tag or by class pattern on any ancestor.
func insideChrome(sel *goquery.Selection) bool {
	if sel.Closest(chromeContainers).Length() > 0 {
		return true
	}
	matched := false
	sel.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if class, ok := p.Attr("class"); ok && chromeClassPattern.MatchString(class) {
			matched = true
			return false
		}
		return true
	})
	return matched
}

// enclosingClasses joins the class attributes of the element and its
// ancestors for pattern matching.
func enclosingClasses(sel *goquery.Selection) string {
	var classes []string
	if c, ok := sel.Attr("class"); ok {
		classes = append(classes, c)
	}
	sel.Parents().Each(func(_ int, p *goquery.Selection) {
		if c, ok := p.Attr("class"); ok {
			classes = append(classes, c)
		}
	})
	return strings.Join(classes, " ")
}

// baseURL derives the resolution base from the document's source URL.
func baseURL(sourceURL string) *url.URL {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return nil
	}
	return u
}

// resolveRef resolves a possibly-relative reference against the base.
func resolveRef(base *url.URL, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	if base == nil {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}
