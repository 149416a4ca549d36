package trafilatura_test

import (
	"testing"

	"github.com/fwojciec/siteport"
	"github.com/fwojciec/siteport/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Extractor implements siteport.Extractor at compile time.
var _ siteport.Extractor = (*trafilatura.Extractor)(nil)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts main content and drops chrome", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
<nav><a href="/">Home</a><a href="/inventory">Inventory</a></nav>
<article>
<h1>Best 2026 SUVs</h1>
<p>Shopping for a family hauler this winter? These are the models our
service team sees the least, and the ones owners keep the longest.</p>
<p>We compared cargo space, all-wheel-drive availability, and projected
maintenance costs across the segment before settling on this list.</p>
</article>
<aside>Sidebar content</aside>
<footer>Copyright 2026</footer>
</body>
</html>`

		ext := trafilatura.NewExtractor()
		content, err := ext.Extract(html)

		require.NoError(t, err)
		assert.Contains(t, content, "family hauler")
		assert.NotContains(t, content, "Sidebar content")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		ext := trafilatura.NewExtractor()
		_, err := ext.Extract("")

		require.Error(t, err)
		assert.Equal(t, siteport.EINVALID, siteport.ErrorCode(err))
	})
}
