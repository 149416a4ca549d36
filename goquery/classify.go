package goquery

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/siteport"
)

// Ensure Classifier implements siteport.Classifier at compile time.
var _ siteport.Classifier = (*Classifier)(nil)

// Classifier decides Post vs Page for a captured document by running an
// ordered chain of rules: the first decisive rule wins, and a weighted
// keyword-scoring rule runs last. Classification is deterministic for
// identical HTML and configuration, and must run before sanitization
// strips the signals it reads.
type Classifier struct {
	overrides *siteport.SiteOverrides
	weights   []siteport.KeywordWeight
	rules     []siteport.ClassifyRule
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithOverrides sets the per-site overrides consulted by the manual
// mapping and custom selector rules.
func WithOverrides(o *siteport.SiteOverrides) ClassifierOption {
	return func(c *Classifier) {
		c.overrides = o
	}
}

// WithKeywordWeights replaces the scoring table used by the fallback
// rule. Defaults to siteport.DefaultKeywordWeights.
func WithKeywordWeights(weights []siteport.KeywordWeight) ClassifierOption {
	return func(c *Classifier) {
		c.weights = weights
	}
}

// NewClassifier creates a new Classifier.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		weights: siteport.DefaultKeywordWeights,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rules = []siteport.ClassifyRule{
		{Name: "explicit-kind", Apply: ruleExplicitKind},
		{Name: "manual-mapping", Apply: ruleManualMapping},
		{Name: "url-path", Apply: ruleURLPath},
		{Name: "custom-selector", Apply: ruleCustomSelector},
		{Name: "article-element", Apply: ruleArticleElement},
		{Name: "keyword-score", Apply: c.ruleKeywordScore},
	}
	return c
}

// Classify runs the rule chain over the document.
func (c *Classifier) Classify(doc *siteport.CapturedDocument) (siteport.ContentClassification, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.RawHTML))
	if err != nil {
		return siteport.ContentClassification{}, siteport.Errorf(siteport.EINVALID, "parsing %s: %v", doc.SourceKey, err)
	}

	in := &siteport.ClassifyInput{
		Doc:               doc,
		BodyText:          strings.ToLower(gq.Text()),
		HasArticleElement: gq.Find("article").Length() > 0,
		Overrides:         c.overrides,
	}
	if c.overrides != nil {
		if c.overrides.PostSelector != "" {
			in.PostSelectorHit = gq.Find(c.overrides.PostSelector).Length() > 0
		}
		if c.overrides.PageSelector != "" {
			in.PageSelectorHit = gq.Find(c.overrides.PageSelector).Length() > 0
		}
	}

	for _, rule := range c.rules {
		if class, ok := rule.Apply(in); ok {
			return class, nil
		}
	}

	// The scoring rule is always decisive, so this is unreachable.
	return siteport.ContentClassification{Kind: siteport.KindPost, Confidence: 50, Reason: "default"}, nil
}

func ruleExplicitKind(in *siteport.ClassifyInput) (siteport.ContentClassification, bool) {
	if in.Doc.ExplicitKind == "" {
		return siteport.ContentClassification{}, false
	}
	return siteport.ContentClassification{
		Kind:       in.Doc.ExplicitKind,
		Confidence: 100,
		Reason:     "explicit kind from target list",
	}, true
}

func ruleManualMapping(in *siteport.ClassifyInput) (siteport.ContentClassification, bool) {
	if in.Overrides == nil {
		return siteport.ContentClassification{}, false
	}
	kind, ok := in.Overrides.KindByFilename[in.Doc.SourceKey]
	if !ok {
		return siteport.ContentClassification{}, false
	}
	return siteport.ContentClassification{
		Kind:       kind,
		Confidence: 100,
		Reason:     "manual mapping for " + in.Doc.SourceKey,
	}, true
}

func ruleURLPath(in *siteport.ClassifyInput) (siteport.ContentClassification, bool) {
	lower := strings.ToLower(in.Doc.SourceURL)
	for _, segment := range []string{"/blog/", "/blog-", "/news/", "/posts/"} {
		if strings.Contains(lower, segment) {
			return siteport.ContentClassification{
				Kind:       siteport.KindPost,
				Confidence: 95,
				Reason:     "URL contains " + segment + " segment",
			}, true
		}
	}
	return siteport.ContentClassification{}, false
}

func ruleCustomSelector(in *siteport.ClassifyInput) (siteport.ContentClassification, bool) {
	if in.Overrides == nil {
		return siteport.ContentClassification{}, false
	}
	if in.Overrides.PostSelector != "" && in.PostSelectorHit {
		return siteport.ContentClassification{
			Kind:       siteport.KindPost,
			Confidence: 95,
			Reason:     "custom post selector matched",
		}, true
	}
	if in.Overrides.PageSelector != "" && in.PageSelectorHit {
		return siteport.ContentClassification{
			Kind:       siteport.KindPage,
			Confidence: 95,
			Reason:     "custom page selector matched",
		}, true
	}
	return siteport.ContentClassification{}, false
}

func ruleArticleElement(in *siteport.ClassifyInput) (siteport.ContentClassification, bool) {
	if !in.HasArticleElement {
		return siteport.ContentClassification{}, false
	}
	return siteport.ContentClassification{
		Kind:       siteport.KindPost,
		Confidence: 90,
		Reason:     "semantic article element present",
	}, true
}

// ruleKeywordScore is the always-decisive fallback: weighted keyword
// matches over body text and filename. Positive scores skew Post,
// negative skew Page; ties default to Post.
func (c *Classifier) ruleKeywordScore(in *siteport.ClassifyInput) (siteport.ContentClassification, bool) {
	score := 0
	var hits []string
	name := strings.ToLower(in.Doc.SourceKey)

	for _, w := range c.weights {
		haystack := in.BodyText
		where := "body"
		if w.InName {
			haystack = name
			where = "name"
		}
		if strings.Contains(haystack, w.Pattern) {
			score += w.Weight
			hits = append(hits, fmt.Sprintf("%s(%s:%+d)", w.Pattern, where, w.Weight))
		}
	}

	kind := siteport.KindPost
	if score < 0 {
		kind = siteport.KindPage
	}

	confidence := 50 + abs(score)/2
	if confidence > 85 {
		confidence = 85
	}

	reason := fmt.Sprintf("keyword score %+d", score)
	if len(hits) > 0 {
		reason += ": " + strings.Join(hits, ", ")
	}

	return siteport.ContentClassification{
		Kind:       kind,
		Confidence: confidence,
		Reason:     reason,
	}, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
