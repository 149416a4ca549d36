package siteport

// ContentClassification is the Post/Page decision for one captured
// document. Classification is deterministic given identical HTML and
// configuration, and always runs before destructive cleaning removes the
// signals it depends on.
type ContentClassification struct {
	Kind       Kind   `json:"kind"`
	Confidence int    `json:"confidence"` // 0-100
	Reason     string `json:"reason"`
}

// Classifier decides the content kind of a captured document.
type Classifier interface {
	Classify(doc *CapturedDocument) (ContentClassification, error)
}

// ClassifyRule is one step of the ordered classification chain. Rules
// are evaluated in sequence; the first decisive rule wins, and the
// weighted-scoring fallback runs last.
type ClassifyRule struct {
	// Name labels the rule in classification reasons.
	Name string

	// Apply inspects the document and returns a classification plus
	// true when the rule is decisive. Non-decisive rules return false
	// and the chain continues.
	Apply func(in *ClassifyInput) (ContentClassification, bool)
}

// ClassifyInput is the evidence a classification rule sees: the
// document, its lowercased body text, and the per-site overrides.
type ClassifyInput struct {
	Doc               *CapturedDocument
	BodyText          string
	HasArticleElement bool
	PostSelectorHit   bool
	PageSelectorHit   bool
	Overrides         *SiteOverrides
}

// KeywordWeight is one entry of the scoring fallback's keyword table.
type KeywordWeight struct {
	Pattern string
	Weight  int  // positive skews Post, negative skews Page
	InName  bool // match against the filename instead of body text
}

// DefaultKeywordWeights is the scoring table used by the fallback rule.
// Testimonial and dealership-marketing language skews Post; policy,
// about, and contact language skews Page. Ties default to Post.
var DefaultKeywordWeights = []KeywordWeight{
	{Pattern: "testimonial", Weight: 25},
	{Pattern: "review", Weight: 10},
	{Pattern: "posted on", Weight: 20},
	{Pattern: "posted by", Weight: 20},
	{Pattern: "read more", Weight: 15},
	{Pattern: "comments", Weight: 10},
	{Pattern: "best deals", Weight: 10},
	{Pattern: "top 10", Weight: 10},
	{Pattern: "privacy policy", Weight: -30},
	{Pattern: "terms of use", Weight: -30},
	{Pattern: "terms and conditions", Weight: -25},
	{Pattern: "about us", Weight: -20},
	{Pattern: "contact us", Weight: -20},
	{Pattern: "our team", Weight: -15},
	{Pattern: "our staff", Weight: -15},
	{Pattern: "hours of operation", Weight: -15},
	{Pattern: "blog", Weight: 25, InName: true},
	{Pattern: "news", Weight: 15, InName: true},
	{Pattern: "about", Weight: -20, InName: true},
	{Pattern: "contact", Weight: -20, InName: true},
	{Pattern: "privacy", Weight: -25, InName: true},
	{Pattern: "sitemap", Weight: -25, InName: true},
}
