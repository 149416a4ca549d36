package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/siteport"
	"golang.org/x/net/html"
)

// Ensure Sanitizer implements siteport.Sanitizer at compile time.
var _ siteport.Sanitizer = (*Sanitizer)(nil)

// cleanupPasses bounds the fixed-point empty-wrapper removal.
const cleanupPasses = 4

// Sanitizer strips presentation cruft from captured documents down to
// the layout-utility whitelist, rewrites links and image sources to
// destination conventions, and repairs malformed markup. Boilerplate
// removal runs before class stripping, which would destroy the class
// signals it depends on.
type Sanitizer struct {
	cfg       *siteport.Config
	linkRules []LinkRule
	bpRules   []compiledBoilerplateRule
}

type compiledBoilerplateRule struct {
	name       string
	class      *regexp.Regexp
	heading    *regexp.Regexp
	maxTextLen int
}

// SanitizerOption configures a Sanitizer.
type SanitizerOption func(*Sanitizer)

// WithLinkRules replaces the link rewrite table.
// Defaults to DefaultLinkRules.
func WithLinkRules(rules []LinkRule) SanitizerOption {
	return func(s *Sanitizer) {
		s.linkRules = rules
	}
}

// NewSanitizer creates a new Sanitizer. The config supplies the
// destination upload convention and per-site overrides; boilerplate
// rules from overrides extend the shipped defaults.
func NewSanitizer(cfg *siteport.Config, opts ...SanitizerOption) (*Sanitizer, error) {
	s := &Sanitizer{
		cfg:       cfg,
		linkRules: DefaultLinkRules,
	}
	for _, opt := range opts {
		opt(s)
	}

	rules := siteport.DefaultBoilerplateRules
	if cfg.Overrides != nil {
		rules = append(append([]siteport.BoilerplateRule{}, rules...), cfg.Overrides.BoilerplateRules...)
	}
	for _, r := range rules {
		cr := compiledBoilerplateRule{name: r.Name, maxTextLen: r.MaxTextLen}
		var err error
		if r.ClassPattern != "" {
			if cr.class, err = regexp.Compile(r.ClassPattern); err != nil {
				return nil, siteport.Errorf(siteport.EINVALID, "boilerplate rule %q: %v", r.Name, err)
			}
		}
		if r.HeadingPattern != "" {
			if cr.heading, err = regexp.Compile(r.HeadingPattern); err != nil {
				return nil, siteport.Errorf(siteport.EINVALID, "boilerplate rule %q: %v", r.Name, err)
			}
		}
		s.bpRules = append(s.bpRules, cr)
	}

	return s, nil
}

// Sanitize cleans one captured document. The classification decides
// whether Post-only boilerplate removal applies; the asset manifest
// maps image sources to their destination upload URLs.
func (s *Sanitizer) Sanitize(doc *siteport.CapturedDocument, class siteport.ContentClassification, assets *siteport.AssetManifest) (*siteport.SanitizedDocument, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc.RawHTML))
	if err != nil {
		return nil, siteport.Errorf(siteport.EINVALID, "parsing %s: %v", doc.SourceKey, err)
	}

	removed := map[string]int{}
	count := func(category string, sel *goquery.Selection) {
		n := sel.Length()
		if n > 0 {
			removed[category] += n
			sel.Remove()
		}
	}

	// Structural removals first, while class signals are intact.
	count("form", gq.Find("form"))
	count("footer", gq.Find("footer"))
	if s.cfg.Overrides != nil {
		for _, selector := range s.cfg.Overrides.StripSelectors {
			count("site-override", gq.Find(selector))
		}
	}

	if class.Kind == siteport.KindPost {
		s.removeBoilerplate(gq, removed)
	}

	s.convertBackgroundImages(gq)
	s.rewriteImages(gq, assets)
	s.rewriteLinks(gq, doc.SourceURL)

	RepairLists(gq)
	NormalizeTables(gq)
	s.collapseWrappers(gq, removed)
	s.stripAttributes(gq)

	body := gq.Find("body")
	cleanHTML, err := body.Html()
	if err != nil {
		return nil, siteport.Errorf(siteport.EINTERNAL, "rendering %s: %v", doc.SourceKey, err)
	}

	return &siteport.SanitizedDocument{
		SourceKey: doc.SourceKey,
		CleanHTML: strings.TrimSpace(cleanHTML),
		Kind:      class.Kind,
		Removed:   removed,
	}, nil
}

// removeBoilerplate applies the data-driven removal table to a
// Post-classified document: dealership CTAs, testimonial blocks,
// related-post and pagination navigation.
func (s *Sanitizer) removeBoilerplate(gq *goquery.Document, removed map[string]int) {
	for _, rule := range s.bpRules {
		rule := rule

		if rule.class != nil {
			gq.Find("[class]").Each(func(_ int, sel *goquery.Selection) {
				classAttr, _ := sel.Attr("class")
				if !rule.class.MatchString(classAttr) {
					return
				}
				if rule.maxTextLen > 0 && textLen(sel) > rule.maxTextLen {
					return
				}
				removed[rule.name]++
				sel.Remove()
			})
		}

		if rule.heading != nil {
			gq.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
				if !rule.heading.MatchString(strings.TrimSpace(sel.Text())) {
					return
				}
				block := sel.Parent()
				if block.Is("body") {
					block = sel
				}
				if rule.maxTextLen > 0 && textLen(block) > rule.maxTextLen {
					block = sel
				}
				removed[rule.name]++
				block.Remove()
			})
		}
	}
}

// convertBackgroundImages turns inline background-image declarations
// into real img elements, preferring the query-string-free URL and
// deduplicating responsive variants of the same image.
func (s *Sanitizer) convertBackgroundImages(gq *goquery.Document) {
	gq.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		matches := backgroundImageDecl.FindAllStringSubmatch(style, -1)
		if len(matches) == 0 {
			return
		}

		seen := map[string]bool{}
		for _, m := range matches {
			normalized := siteport.NormalizeImageURL(strings.TrimSpace(m[1]))
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			sel.PrependHtml(`<img src="` + normalized + `"/>`)
		}
	})
}

// rewriteImages points downloaded image sources at the destination
// upload path. Images absent from the manifest keep their source URL.
func (s *Sanitizer) rewriteImages(gq *goquery.Document, assets *siteport.AssetManifest) {
	gq.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src := imgSource(sel)
		if src == "" {
			return
		}
		normalized := siteport.NormalizeImageURL(src)
		if asset := assets.AssetFor(normalized); asset != nil {
			sel.SetAttr("src", s.cfg.UploadURL(asset.LocalFilename))
			if asset.AltText != "" {
				if _, ok := sel.Attr("alt"); !ok {
					sel.SetAttr("alt", asset.AltText)
				}
			}
		} else {
			sel.SetAttr("src", normalized)
		}
	})
}

// rewriteLinks applies the destination link conventions to every anchor.
func (s *Sanitizer) rewriteLinks(gq *goquery.Document, sourceURL string) {
	host := ""
	if base := baseURL(sourceURL); base != nil {
		host = base.Host
	}
	gq.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		result := RewriteLink(href, host, s.linkRules)
		sel.SetAttr("href", result.Href)
		if result.External {
			sel.SetAttr("target", "_blank")
			sel.SetAttr("rel", "noopener")
		}
	})
}

// collapseWrappers runs the fixed-point cleanup: empty wrappers are
// removed and redundant single-child wrappers collapse into their
// child, skipping anything carrying a preserved layout class.
func (s *Sanitizer) collapseWrappers(gq *goquery.Document, removed map[string]int) {
	for pass := 0; pass < cleanupPasses; pass++ {
		changed := false

		gq.Find("div, span, p, section").Each(func(_ int, sel *goquery.Selection) {
			if hasLayoutClass(sel) {
				return
			}
			if strings.TrimSpace(sel.Text()) != "" {
				return
			}
			if sel.Find("img, table, iframe, video, audio, li").Length() > 0 {
				return
			}
			removed["empty-wrapper"]++
			sel.Remove()
			changed = true
		})

		gq.Find("div").Each(func(_ int, sel *goquery.Selection) {
			if hasLayoutClass(sel) {
				return
			}
			children := sel.Children()
			if children.Length() != 1 || !children.First().Is("div") {
				return
			}
			// Redundant div wrapping a single div: keep the inner one.
			if strings.TrimSpace(sel.Text()) != strings.TrimSpace(children.First().Text()) {
				return
			}
			removed["redundant-wrapper"]++
			sel.ReplaceWithSelection(children.First())
			changed = true
		})

		if !changed {
			break
		}
	}
}

// stripAttributes is the destructive final pass: ids always go, classes
// survive only through the layout whitelist, and other attributes only
// through the per-tag allowlist.
func (s *Sanitizer) stripAttributes(gq *goquery.Document) {
	gq.Find("*").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		tag := node.Data

		allowed := map[string]bool{}
		for _, attr := range siteport.AllowedAttributes[tag] {
			allowed[attr] = true
		}

		attrs := make([]html.Attribute, len(node.Attr))
		copy(attrs, node.Attr)

		type kv struct{ key, val string }
		var keep []kv
		for _, attr := range attrs {
			switch {
			case attr.Key == "class":
				if filtered := filterLayoutClasses(attr.Val); filtered != "" {
					keep = append(keep, kv{"class", filtered})
				}
			case allowed[attr.Key]:
				keep = append(keep, kv{attr.Key, attr.Val})
			}
		}

		// Rebuild the attribute list from the kept set.
		for _, attr := range attrs {
			sel.RemoveAttr(attr.Key)
		}
		for _, a := range keep {
			sel.SetAttr(a.key, a.val)
		}
	})
}

func filterLayoutClasses(classAttr string) string {
	var kept []string
	for _, token := range strings.Fields(classAttr) {
		if siteport.IsLayoutClass(token) {
			kept = append(kept, token)
		}
	}
	return strings.Join(kept, " ")
}

func hasLayoutClass(sel *goquery.Selection) bool {
	classAttr, ok := sel.Attr("class")
	if !ok {
		return false
	}
	for _, token := range strings.Fields(classAttr) {
		if siteport.IsLayoutClass(token) {
			return true
		}
	}
	return false
}

func textLen(sel *goquery.Selection) int {
	return len(strings.TrimSpace(sel.Text()))
}
