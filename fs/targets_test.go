package fs_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/siteport"
	"github.com/fwojciec/siteport/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargets(t *testing.T) {
	t.Parallel()

	t.Run("parses URLs, kinds, comments, and sitemap refs", func(t *testing.T) {
		t.Parallel()

		input := `
# blog posts
https://www.example.com/blog/first-post
https://www.example.com/blog/second-post post

// static pages
https://www.example.com/about-us page

sitemap: https://www.example.com/blog/
`
		list, err := fs.ParseTargets(strings.NewReader(input))
		require.NoError(t, err)

		require.Len(t, list.Targets, 3)
		assert.Equal(t, "https://www.example.com/blog/first-post", list.Targets[0].URL)
		assert.Equal(t, siteport.Kind(""), list.Targets[0].ExplicitKind)
		assert.Equal(t, siteport.KindPost, list.Targets[1].ExplicitKind)
		assert.Equal(t, siteport.KindPage, list.Targets[2].ExplicitKind)

		assert.Equal(t, []string{"https://www.example.com/blog/"}, list.Sitemaps)
	})

	t.Run("deduplicates repeated URLs keeping first occurrence", func(t *testing.T) {
		t.Parallel()

		input := `https://www.example.com/page post
https://www.example.com/page page`
		list, err := fs.ParseTargets(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, list.Targets, 1)
		assert.Equal(t, siteport.KindPost, list.Targets[0].ExplicitKind)
	})

	t.Run("rejects unknown kind token", func(t *testing.T) {
		t.Parallel()

		_, err := fs.ParseTargets(strings.NewReader("https://www.example.com/a article"))
		require.Error(t, err)
		assert.Equal(t, siteport.EINVALID, siteport.ErrorCode(err))
	})

	t.Run("rejects relative URL", func(t *testing.T) {
		t.Parallel()

		_, err := fs.ParseTargets(strings.NewReader("/blog/post"))
		require.Error(t, err)
		assert.Equal(t, siteport.EINVALID, siteport.ErrorCode(err))
	})

	t.Run("sitemap prefix is case-insensitive and preserves URL case", func(t *testing.T) {
		t.Parallel()

		list, err := fs.ParseTargets(strings.NewReader("Sitemap: https://www.Example.com/Blog/"))
		require.NoError(t, err)
		assert.Equal(t, []string{"https://www.Example.com/Blog/"}, list.Sitemaps)
	})
}
