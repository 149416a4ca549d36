package siteport

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// MaxSourceKeyLen caps derived capture filenames at a filesystem-safe length.
const MaxSourceKeyLen = 120

// MaxSlugLen caps derived article slugs.
const MaxSlugLen = 50

// SourceKey derives a filesystem-safe key from a target URL. The scheme
// is stripped, runs of non-alphanumeric characters collapse to a single
// underscore, and the result is truncated to MaxSourceKeyLen.
//
// Example: https://www.example.com/blog/2025/my-post/ →
// www.example.com_blog_2025_my-post
func SourceKey(rawURL string) string {
	s := rawURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimSuffix(s, "/")

	var b strings.Builder
	prevSep := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.':
			b.WriteRune(r)
			prevSep = false
		default:
			if !prevSep && b.Len() > 0 {
				b.WriteByte('_')
				prevSep = true
			}
		}
	}

	key := strings.Trim(b.String(), "_")
	if len(key) > MaxSourceKeyLen {
		key = key[:MaxSourceKeyLen]
		key = strings.Trim(key, "_-.")
	}
	if key == "" {
		return "index"
	}
	return key
}

// monthTokens are textual month names dropped during slug derivation.
var monthTokens = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "sept": true, "oct": true,
	"nov": true, "dec": true,
}

// pathPrefixTokens are structural path segments that carry no slug value.
var pathPrefixTokens = map[string]bool{
	"blog": true, "blogs": true, "post": true, "posts": true,
	"page": true, "pages": true, "news": true, "article": true,
	"articles": true, "index": true, "archive": true, "category": true,
}

// docExtensions are document extensions stripped before tokenizing.
var docExtensions = []string{".html", ".htm", ".php", ".asp", ".aspx"}

// ArticleSlug derives a short, stable slug from a capture filename. It
// strips document extensions, then drops domain-looking tokens, date
// segments (years, day numbers, month names), and structural path
// prefixes, keeping the last remaining token that contains a letter.
// The result is lowercased, hyphenated, and truncated to MaxSlugLen.
//
// Example: www.example.com_blog_2025_december_30_best-2026-suv.htm.html →
// best-2026-suv
func ArticleSlug(filename string) string {
	name := filename
	for stripped := true; stripped; {
		stripped = false
		for _, ext := range docExtensions {
			if strings.HasSuffix(strings.ToLower(name), ext) {
				name = name[:len(name)-len(ext)]
				stripped = true
			}
		}
	}

	var candidate string
	for _, tok := range strings.Split(name, "_") {
		if tok == "" || isDomainToken(tok) || isDateToken(tok) {
			continue
		}
		if pathPrefixTokens[strings.ToLower(tok)] {
			continue
		}
		if !containsLetter(tok) {
			continue
		}
		candidate = tok
	}

	return Slugify(candidate)
}

// Slugify normalizes a string to lowercase-hyphenated form, capped at
// MaxSlugLen. Runs of non-alphanumeric characters collapse to a single
// hyphen.
func Slugify(s string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > MaxSlugLen {
		slug = slug[:MaxSlugLen]
		slug = strings.Trim(slug, "-")
	}
	return slug
}

// NormalizeImageURL strips the query string and fragment from an asset
// URL, yielding the deduplication key. At most one download attempt is
// made per normalized URL within a run.
func NormalizeImageURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// ImageFilename builds the deterministic local filename for a downloaded
// asset: {articleSlug}_{originalImageToken}.{ext}. The original token is
// the base name of the normalized URL path. Deterministic inputs produce
// deterministic names, which makes re-runs idempotent.
func ImageFilename(articleSlug, normalizedURL string) string {
	base := path.Base(strings.TrimSuffix(normalizedURL, "/"))
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}

	ext := path.Ext(base)
	token := strings.TrimSuffix(base, ext)
	token = Slugify(token)
	if token == "" {
		token = "image"
	}
	if ext == "" {
		ext = ".jpg"
	}

	if articleSlug == "" {
		return token + strings.ToLower(ext)
	}
	return articleSlug + "_" + token + strings.ToLower(ext)
}

func isDomainToken(tok string) bool {
	lower := strings.ToLower(tok)
	if strings.Contains(lower, ".") {
		return true
	}
	switch lower {
	case "www", "com", "net", "org", "ca", "us", "co", "uk":
		return true
	}
	return false
}

func isDateToken(tok string) bool {
	if monthTokens[strings.ToLower(tok)] {
		return true
	}
	if !containsLetter(tok) {
		// Purely numeric tokens are years, months, days, or IDs.
		return len(tok) > 0
	}
	return false
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
