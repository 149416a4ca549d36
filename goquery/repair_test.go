package goquery_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/siteport"
	"github.com/stretchr/testify/assert"
)

func TestRepairLists(t *testing.T) {
	t.Parallel()

	t.Run("converts bullet paragraphs into list markup", func(t *testing.T) {
		t.Parallel()

		html := `<p>Intro paragraph.</p>
<p>• First point</p>
<p>• Second point</p>
<p>Outro paragraph.</p>`

		out := sanitize(t, html, siteport.KindPage, nil)

		assert.Contains(t, out.CleanHTML, "<ul>")
		assert.Contains(t, out.CleanHTML, "<li>First point</li>")
		assert.Contains(t, out.CleanHTML, "<li>Second point</li>")
		assert.Contains(t, out.CleanHTML, "Intro paragraph.")
		assert.NotContains(t, out.CleanHTML, "•")
	})

	t.Run("converts MsoListParagraph paragraphs", func(t *testing.T) {
		t.Parallel()

		html := `<p class="MsoListParagraph">Word bullet one</p><p class="MsoListParagraph">Word bullet two</p>`
		out := sanitize(t, html, siteport.KindPage, nil)

		assert.Contains(t, out.CleanHTML, "<li>Word bullet one</li>")
		assert.Contains(t, out.CleanHTML, "<li>Word bullet two</li>")
	})

	t.Run("groups consecutive items under one list", func(t *testing.T) {
		t.Parallel()

		html := `<p>• A</p><p>• B</p><p>• C</p>`
		out := sanitize(t, html, siteport.KindPage, nil)

		assert.Equal(t, 1, countSubstr(out.CleanHTML, "<ul>"))
		assert.Equal(t, 3, countSubstr(out.CleanHTML, "<li>"))
	})

	t.Run("leaves genuine lists alone", func(t *testing.T) {
		t.Parallel()

		html := `<ul><li>Already</li><li>Fine</li></ul>`
		out := sanitize(t, html, siteport.KindPage, nil)

		assert.Equal(t, 1, countSubstr(out.CleanHTML, "<ul>"))
		assert.Equal(t, 2, countSubstr(out.CleanHTML, "<li>"))
	})
}

func TestNormalizeTables(t *testing.T) {
	t.Parallel()

	t.Run("applies destination table styling", func(t *testing.T) {
		t.Parallel()

		html := `<table class="fancy-grid"><tr><td>Cell</td></tr></table>`
		out := sanitize(t, html, siteport.KindPage, nil)

		assert.Contains(t, out.CleanHTML, `class="table table-bordered"`)
		assert.Contains(t, out.CleanHTML, `class="table-responsive"`)
		assert.NotContains(t, out.CleanHTML, "fancy-grid")
	})
}

func countSubstr(s, sub string) int {
	return strings.Count(s, sub)
}
