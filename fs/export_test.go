package fs_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/siteport"
	"github.com/fwojciec/siteport/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportWriter(t *testing.T) {
	t.Parallel()

	t.Run("quotes every field and doubles internal quotes", func(t *testing.T) {
		t.Parallel()

		w := fs.NewExportWriter(t.TempDir(), "run-1")
		date := time.Date(2025, 12, 30, 14, 5, 0, 0, time.UTC)

		summary, err := w.Write(context.Background(), []*siteport.ExportRecord{
			{
				Title:       `Best "2026" SUVs`,
				Slug:        "best-2026-suv",
				Excerpt:     "Our picks, ranked.",
				PublishDate: date,
				BodyHTML:    `<p>It's the "top" list</p>`,
				Kind:        siteport.KindPost,
				Category:    "blog",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Posts)
		assert.Equal(t, 0, summary.Pages)

		data, err := os.ReadFile(w.Path())
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		require.Len(t, lines, 2)

		assert.Equal(t, `"post_title","post_content","post_type","post_status","post_date","post_name","post_excerpt","post_category"`, lines[0])
		assert.Equal(t, `"Best ""2026"" SUVs","<p>It's the ""top"" list</p>","post","publish","2025-12-30 14:05:00","best-2026-suv","Our picks, ranked.","blog"`, lines[1])
	})

	t.Run("summary counts posts and pages and records byte size", func(t *testing.T) {
		t.Parallel()

		w := fs.NewExportWriter(t.TempDir(), "run-2")
		records := []*siteport.ExportRecord{
			{Title: "A", Slug: "a", Kind: siteport.KindPost},
			{Title: "B", Slug: "b", Kind: siteport.KindPage},
			{Title: "C", Slug: "c", Kind: siteport.KindPage},
		}
		summary, err := w.Write(context.Background(), records)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Posts)
		assert.Equal(t, 2, summary.Pages)
		require.Len(t, summary.Items, 3)
		assert.Equal(t, "a", summary.Items[0].Slug)

		info, err := os.Stat(w.Path())
		require.NoError(t, err)
		assert.Equal(t, info.Size(), summary.ByteSize)
	})

	t.Run("invalid record aborts the export", func(t *testing.T) {
		t.Parallel()

		w := fs.NewExportWriter(t.TempDir(), "run-3")
		_, err := w.Write(context.Background(), []*siteport.ExportRecord{
			{Title: "", Slug: "x", Kind: siteport.KindPost},
		})
		require.Error(t, err)
		assert.Equal(t, siteport.EINVALID, siteport.ErrorCode(err))
	})
}
