package goquery_test

import (
	"testing"

	"github.com/fwojciec/siteport/goquery"
	"github.com/stretchr/testify/assert"
)

func TestRewriteLink(t *testing.T) {
	t.Parallel()

	host := "www.example.com"
	rules := goquery.DefaultLinkRules

	t.Run("maps known path fragments to fixed destinations", func(t *testing.T) {
		t.Parallel()

		for href, want := range map[string]string{
			"https://www.example.com/finance-application": "/finance/",
			"/new-inventory/search":                       "/new-vehicles/",
			"https://www.example.com/used-cars":           "/used-vehicles/",
			"/service/schedule":                           "/service/",
			"/parts/order":                                "/parts/",
			"/contact-us":                                 "/contact-us/",
			"/sitemap.xml":                                "/sitemap/",
		} {
			got := goquery.RewriteLink(href, host, rules)
			assert.Equal(t, want, got.Href, href)
			assert.False(t, got.External)
		}
	})

	t.Run("same-domain absolute links become root-relative", func(t *testing.T) {
		t.Parallel()

		got := goquery.RewriteLink("https://www.example.com/blog/my-post?ref=1", host, rules)
		assert.Equal(t, "/blog/my-post?ref=1", got.Href)
		assert.False(t, got.External)
	})

	t.Run("treats www and bare domains as the same site", func(t *testing.T) {
		t.Parallel()

		got := goquery.RewriteLink("https://example.com/blog/my-post", host, rules)
		assert.Equal(t, "/blog/my-post", got.Href)
	})

	t.Run("cross-domain links stay but open in a new context", func(t *testing.T) {
		t.Parallel()

		got := goquery.RewriteLink("https://other.com/page", host, rules)
		assert.Equal(t, "https://other.com/page", got.Href)
		assert.True(t, got.External)
	})

	t.Run("relative links pass through unchanged", func(t *testing.T) {
		t.Parallel()

		got := goquery.RewriteLink("/about-our-dealership", host, rules)
		assert.Equal(t, "/about-our-dealership", got.Href)
		assert.False(t, got.External)
	})

	t.Run("fragment and mailto links pass through", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "#section", goquery.RewriteLink("#section", host, rules).Href)
		assert.Equal(t, "mailto:x@y.com", goquery.RewriteLink("mailto:x@y.com", host, rules).Href)
		assert.Equal(t, "tel:+15550100", goquery.RewriteLink("tel:+15550100", host, rules).Href)
	})
}
