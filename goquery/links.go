package goquery

import (
	"net/url"
	"regexp"
	"strings"
)

// LinkRule maps a recognizable source path fragment to a fixed
// destination path. Rules are evaluated in order; first match wins.
type LinkRule struct {
	Pattern     *regexp.Regexp
	Destination string
}

// DefaultLinkRules maps legacy dealership site paths to the destination
// platform's fixed structure.
var DefaultLinkRules = []LinkRule{
	{regexp.MustCompile(`(?i)(finance|financing|credit-app)`), "/finance/"},
	{regexp.MustCompile(`(?i)(new-(inventory|vehicles)|search/new)`), "/new-vehicles/"},
	{regexp.MustCompile(`(?i)(used-(inventory|vehicles|cars)|pre-owned|search/used)`), "/used-vehicles/"},
	{regexp.MustCompile(`(?i)(service|schedule-an?-appointment)`), "/service/"},
	{regexp.MustCompile(`(?i)\bparts\b`), "/parts/"},
	{regexp.MustCompile(`(?i)(contact|directions|hours)`), "/contact-us/"},
	{regexp.MustCompile(`(?i)sitemap`), "/sitemap/"},
}

// RewriteResult describes what happened to one link.
type RewriteResult struct {
	Href     string
	External bool // force target="_blank" rel="noopener"
}

// RewriteLink applies the destination platform's link conventions:
// pattern rules first, then same-domain absolute links become
// root-relative, cross-domain links stay intact but open in a new
// context, and already-relative links pass through unchanged.
func RewriteLink(href, sourceHost string, rules []LinkRule) RewriteResult {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "mailto:") || strings.HasPrefix(trimmed, "tel:") ||
		strings.HasPrefix(trimmed, "javascript:") {
		return RewriteResult{Href: href}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return RewriteResult{Href: href}
	}

	sameDomain := u.Host == "" || hostsEqual(u.Host, sourceHost)

	if sameDomain {
		for _, rule := range rules {
			if rule.Pattern.MatchString(u.Path) {
				return RewriteResult{Href: rule.Destination}
			}
		}
	}

	// Already-relative links pass through.
	if u.Host == "" {
		return RewriteResult{Href: trimmed}
	}

	// Same-domain absolute links become root-relative.
	if sameDomain {
		rel := u.Path
		if rel == "" {
			rel = "/"
		}
		if u.RawQuery != "" {
			rel += "?" + u.RawQuery
		}
		return RewriteResult{Href: rel}
	}

	// Cross-domain links stay, but open in a new context.
	return RewriteResult{Href: trimmed, External: true}
}

func hostsEqual(a, b string) bool {
	return strings.TrimPrefix(strings.ToLower(a), "www.") == strings.TrimPrefix(strings.ToLower(b), "www.")
}
