package goquery_test

import (
	"testing"

	"github.com/fwojciec/siteport"
	"github.com/fwojciec/siteport/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capturedDoc(html string) *siteport.CapturedDocument {
	return &siteport.CapturedDocument{
		SourceKey: "www.example.com_blog_test-post",
		SourceURL: "https://www.example.com/blog/test-post",
		RawHTML:   html,
	}
}

func keptURLs(refs []*siteport.ImageReference) []string {
	var urls []string
	for _, ref := range refs {
		if ref.Decision.Keep {
			urls = append(urls, ref.NormalizedURL)
		}
	}
	return urls
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	t.Run("finds img tags", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(
			`<div><img src="https://cdn.example.com/hero.jpg" alt="Hero" title="The hero"></div>`))

		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "https://cdn.example.com/hero.jpg", refs[0].NormalizedURL)
		assert.Equal(t, "Hero", refs[0].AltText)
		assert.Equal(t, "The hero", refs[0].Title)
		assert.Equal(t, siteport.DiscoveredViaTag, refs[0].DiscoveredVia)
		assert.True(t, refs[0].Decision.Keep)
	})

	t.Run("prefers lazy-load attributes over src", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(
			`<img src="placeholder.gif" data-src="https://cdn.example.com/real.jpg">`))

		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "https://cdn.example.com/real.jpg", refs[0].NormalizedURL)
	})

	t.Run("takes the first srcset entry", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(
			`<img srcset="https://cdn.example.com/a-320.jpg 320w, https://cdn.example.com/a-640.jpg 640w">`))

		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "https://cdn.example.com/a-320.jpg", refs[0].NormalizedURL)
	})

	t.Run("resolves relative URLs against the source domain", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(`<img src="/uploads/pic.png">`))

		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "https://www.example.com/uploads/pic.png", refs[0].NormalizedURL)
	})

	t.Run("decodes HTML entities in URLs", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(
			`<img src="https://cdn.example.com/pic.jpg?a=1&amp;b=2">`))

		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "https://cdn.example.com/pic.jpg", refs[0].NormalizedURL)
	})

	t.Run("finds CSS background images", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(
			`<div style="background-image: url('https://cdn.example.com/bg.jpg')">text</div>`))

		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, siteport.DiscoveredViaBackground, refs[0].DiscoveredVia)
		assert.Equal(t, "https://cdn.example.com/bg.jpg", refs[0].NormalizedURL)
	})

	t.Run("recovers malformed entity-encoded tags", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(
			`<p>broken: &lt;img src=&quot;https://cdn.example.com/broken.jpg&quot; /&gt;</p>`))

		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, siteport.DiscoveredViaMalformed, refs[0].DiscoveredVia)
		assert.Equal(t, "https://cdn.example.com/broken.jpg", refs[0].NormalizedURL)
	})

	t.Run("drops images in chrome regions", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(`
			<header><img src="https://cdn.example.com/logo.png"></header>
			<div class="site-footer"><img src="https://cdn.example.com/badge.png"></div>
			<p><img src="https://cdn.example.com/content.jpg"></p>`))

		require.NoError(t, err)
		require.Len(t, refs, 3)
		assert.Equal(t, []string{"https://cdn.example.com/content.jpg"}, keptURLs(refs))
		for _, ref := range refs {
			if !ref.Decision.Keep {
				assert.NotEmpty(t, ref.Decision.Reason)
			}
		}
	})

	t.Run("drops avatar and staff-photo imagery", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(`
			<p><img src="https://cdn.example.com/avatar-joe.jpg"></p>
			<p><img src="https://cdn.example.com/pic.jpg" alt="staff photo of Joe"></p>
			<div class="testimonial-card"><img src="https://cdn.example.com/customer.jpg"></div>
			<p><img src="https://cdn.example.com/real-content.jpg"></p>`))

		require.NoError(t, err)
		assert.Equal(t, []string{"https://cdn.example.com/real-content.jpg"}, keptURLs(refs))
	})

	t.Run("drops images in configured excluded containers", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner(goquery.WithExcludedContainers([]string{"promo-strip"}))
		refs, err := scanner.Scan(capturedDoc(
			`<div class="promo-strip"><img src="https://cdn.example.com/promo.jpg"></div>`))

		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.False(t, refs[0].Decision.Keep)
		assert.Contains(t, refs[0].Decision.Reason, "promo-strip")
	})

	t.Run("ignores data URIs", func(t *testing.T) {
		t.Parallel()

		scanner := goquery.NewScanner()
		refs, err := scanner.Scan(capturedDoc(`<img src="data:image/gif;base64,R0lGOD">`))

		require.NoError(t, err)
		assert.Empty(t, refs)
	})
}
