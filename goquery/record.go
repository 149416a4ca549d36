package goquery

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/fwojciec/siteport"
)

// Ensure RecordBuilder implements siteport.RecordBuilder at compile time.
var _ siteport.RecordBuilder = (*RecordBuilder)(nil)

// titleSelectors is the title probe chain over the captured document,
// primary heading first.
var titleSelectors = []string{
	"h1",
	".entry-title",
	".post-title",
	".page-title",
	"h2",
	"title",
}

// dateSelectors is the publish-date probe chain for Post documents.
var dateSelectors = []string{
	"time[datetime]",
	"meta[property='article:published_time']",
	".post-date",
	".entry-date",
	".published",
	".posted-on",
	".date",
}

// residualMalformedTag matches entity-encoded tag artifacts that
// survive sanitization inside text nodes.
var residualMalformedTag = regexp.MustCompile(`&lt;/?[a-zA-Z][^&]*?&gt;`)

// maxExcerptLen bounds the plain-text excerpt.
const maxExcerptLen = 160

// RecordBuilder derives export records: titles and dates come from the
// captured (pre-sanitization) document, which still carries the
// headings and date markup that cleaning strips; the body comes from
// the sanitized document.
type RecordBuilder struct {
	category string
}

// RecordBuilderOption configures a RecordBuilder.
type RecordBuilderOption func(*RecordBuilder)

// WithCategory sets the post_category assigned to every record.
func WithCategory(category string) RecordBuilderOption {
	return func(b *RecordBuilder) {
		b.category = category
	}
}

// NewRecordBuilder creates a new RecordBuilder.
func NewRecordBuilder(opts ...RecordBuilderOption) *RecordBuilder {
	b := &RecordBuilder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build derives one export record. now anchors the date policy: Pages
// are dated to the previous day so they publish immediately on import,
// Posts fall back to now when no date can be extracted.
func (b *RecordBuilder) Build(captured *siteport.CapturedDocument, cleaned *siteport.SanitizedDocument, now time.Time) (*siteport.ExportRecord, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(captured.RawHTML))
	if err != nil {
		return nil, siteport.Errorf(siteport.EINVALID, "parsing %s: %v", captured.SourceKey, err)
	}

	title := extractTitle(gq, captured.SourceKey)
	body := cleanBody(cleaned.CleanHTML)

	record := &siteport.ExportRecord{
		Title:       title,
		Slug:        deriveSlug(captured.SourceKey, title),
		Excerpt:     extractExcerpt(body),
		PublishDate: b.publishDate(gq, cleaned.Kind, now),
		BodyHTML:    body,
		Kind:        cleaned.Kind,
		Category:    b.category,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// extractTitle walks the title probe chain and falls back to a cleaned
// filename token.
func extractTitle(gq *goquery.Document, sourceKey string) string {
	for _, selector := range titleSelectors {
		text := strings.TrimSpace(gq.Find(selector).First().Text())
		if text != "" {
			return collapseWhitespace(text)
		}
	}
	return titleize(siteport.ArticleSlug(sourceKey))
}

// deriveSlug prefers the original filename's path segments, preserving
// source URL structure; a normalized title and the raw filename are the
// fallbacks.
func deriveSlug(sourceKey, title string) string {
	if slug := siteport.ArticleSlug(sourceKey); slug != "" {
		return slug
	}
	if slug := siteport.Slugify(title); slug != "" {
		return slug
	}
	return siteport.Slugify(sourceKey)
}

// publishDate applies the date policy. Pages are dated to the previous
// day regardless of any date text in the body; Posts probe the captured
// markup and parse against ISO, US, and textual-month formats.
func (b *RecordBuilder) publishDate(gq *goquery.Document, kind siteport.Kind, now time.Time) time.Time {
	if kind == siteport.KindPage {
		return now.AddDate(0, 0, -1)
	}

	for _, selector := range dateSelectors {
		sel := gq.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		candidates := []string{}
		if v, ok := sel.Attr("datetime"); ok {
			candidates = append(candidates, v)
		}
		if v, ok := sel.Attr("content"); ok {
			candidates = append(candidates, v)
		}
		candidates = append(candidates, strings.TrimSpace(sel.Text()))

		for _, candidate := range candidates {
			if candidate == "" {
				continue
			}
			if parsed, err := dateparse.ParseAny(candidate); err == nil {
				return parsed
			}
		}
	}

	return now
}

// cleanBody performs the final cosmetic cleanup on sanitized HTML:
// residual malformed-tag artifacts go, and so do tag-listing blocks
// that are not substantial content.
func cleanBody(cleanHTML string) string {
	cleanHTML = residualMalformedTag.ReplaceAllString(cleanHTML, "")

	gq, err := goquery.NewDocumentFromReader(strings.NewReader(cleanHTML))
	if err != nil {
		return strings.TrimSpace(cleanHTML)
	}

	gq.Find("p, div").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 200 {
			return
		}
		lower := strings.ToLower(text)
		if strings.HasPrefix(lower, "tags:") || strings.HasPrefix(lower, "tagged:") ||
			strings.HasPrefix(lower, "filed under") {
			sel.Remove()
		}
	})

	body, err := gq.Find("body").Html()
	if err != nil {
		return strings.TrimSpace(cleanHTML)
	}
	return strings.TrimSpace(body)
}

// extractExcerpt returns a short plain-text excerpt from the body HTML,
// cut at a word boundary.
func extractExcerpt(bodyHTML string) string {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML))
	if err != nil {
		return ""
	}

	var text string
	gq.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		candidate := collapseWhitespace(strings.TrimSpace(sel.Text()))
		if len(candidate) >= 40 {
			text = candidate
			return false
		}
		return true
	})
	if text == "" {
		text = collapseWhitespace(strings.TrimSpace(gq.Text()))
	}

	if len(text) <= maxExcerptLen {
		return text
	}
	cut := strings.LastIndex(text[:maxExcerptLen], " ")
	if cut <= 0 {
		cut = maxExcerptLen
	}
	return strings.TrimSpace(text[:cut]) + "…"
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// titleize converts a slug into a displayable title.
func titleize(slug string) string {
	if slug == "" {
		return "Untitled"
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
