package siteport

import (
	"context"
	"regexp"
)

// SanitizedDocument is the cleaned HTML for one captured document,
// with per-category counts of removed elements for diagnostics.
type SanitizedDocument struct {
	SourceKey string         `json:"sourceKey"`
	CleanHTML string         `json:"-"`
	Kind      Kind           `json:"kind"`
	Removed   map[string]int `json:"removed"`
}

// Sanitizer strips presentation cruft from a captured document, rewrites
// links to destination conventions, converts background images to real
// image elements, and repairs malformed markup. The classification is
// computed by the caller before sanitization and passed in.
type Sanitizer interface {
	Sanitize(doc *CapturedDocument, class ContentClassification, assets *AssetManifest) (*SanitizedDocument, error)
}

// CleanStore persists sanitized documents, mirroring capture filenames.
type CleanStore interface {
	SaveDocument(ctx context.Context, doc *SanitizedDocument) error

	// LoadDocuments reads all sanitized documents sorted by source key.
	// Export record order follows this ordering.
	LoadDocuments(ctx context.Context) ([]*SanitizedDocument, error)
}

// LayoutClassPatterns is the fixed whitelist of layout-utility class
// patterns preserved verbatim through sanitization. Everything else,
// including all id attributes, is stripped.
var LayoutClassPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^container(-fluid)?$`),
	regexp.MustCompile(`^row$`),
	regexp.MustCompile(`^col(-(xs|sm|md|lg|xl))?(-\d{1,2})?$`),
	regexp.MustCompile(`^offset(-(xs|sm|md|lg|xl))?-\d{1,2}$`),
	regexp.MustCompile(`^order(-(xs|sm|md|lg|xl))?-\d{1,2}$`),
	regexp.MustCompile(`^text-(left|right|center|justify)$`),
	regexp.MustCompile(`^(m|p)(t|b|l|r|x|y)?-\d$`),
	regexp.MustCompile(`^d-(none|block|inline|inline-block|flex|inline-flex)$`),
	regexp.MustCompile(`^(justify-content|align-items|align-self|flex)-[a-z-]+$`),
	regexp.MustCompile(`^table(-striped|-bordered|-responsive)?$`),
}

// IsLayoutClass reports whether a single class token matches the layout
// whitelist.
func IsLayoutClass(class string) bool {
	for _, re := range LayoutClassPatterns {
		if re.MatchString(class) {
			return true
		}
	}
	return false
}

// AllowedAttributes is the per-tag attribute allowlist retained through
// sanitization. Tags absent from the map keep no attributes beyond the
// whitelisted classes.
var AllowedAttributes = map[string][]string{
	"a":     {"href", "target", "rel"},
	"img":   {"src", "alt", "width", "height"},
	"video": {"src", "width", "height", "controls"},
	"audio": {"src", "controls"},
	"table": {"border", "cellpadding", "cellspacing"},
	"td":    {"colspan", "rowspan"},
	"th":    {"colspan", "rowspan", "scope"},
	"ol":    {"start", "type"},
}

// BoilerplateRule is one entry of the data-driven removal table applied
// to Post-classified documents. The pattern list grew against observed
// dealership sites; its coverage of unseen layouts is unverified, which
// is why it is configuration, not code.
type BoilerplateRule struct {
	// Name labels the rule in removal counts.
	Name string `yaml:"name"`

	// ClassPattern matches against element class attributes.
	ClassPattern string `yaml:"classPattern,omitempty"`

	// HeadingPattern matches against heading text inside the element.
	HeadingPattern string `yaml:"headingPattern,omitempty"`

	// MaxTextLen, when positive, only removes elements whose text is
	// shorter than this, guarding against removing substantial content.
	MaxTextLen int `yaml:"maxTextLen,omitempty"`
}

// DefaultBoilerplateRules is the shipped removal table. Per-site
// overrides extend, never replace, this list.
var DefaultBoilerplateRules = []BoilerplateRule{
	{Name: "cta", ClassPattern: `(?i)(cta|call-to-action|callout|banner)`, MaxTextLen: 400},
	{Name: "testimonial", ClassPattern: `(?i)(testimonial|review-card|rating-widget)`},
	{Name: "related", ClassPattern: `(?i)(related-posts?|you-may-also|recent-posts?)`},
	{Name: "pagination", ClassPattern: `(?i)(pagination|pager|post-nav(igation)?)`},
	{Name: "sidebar", ClassPattern: `(?i)(sidebar|widget-area)`},
	{Name: "share", ClassPattern: `(?i)(share|social-(links|icons))`, MaxTextLen: 200},
	{Name: "cta-heading", HeadingPattern: `(?i)(visit us today|schedule .* (test drive|service)|contact (us|our) (team|dealership))`, MaxTextLen: 500},
	{Name: "related-heading", HeadingPattern: `(?i)(related (posts|articles)|you might also like|recent posts)`},
	{Name: "testimonial-heading", HeadingPattern: `(?i)(what our customers say|customer reviews)`},
}
