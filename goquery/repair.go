package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// bulletPrefix matches word-processor bullet characters at the start of
// a paragraph.
var bulletPrefix = regexp.MustCompile(`^\s*(?:•|·|▪|\*|-|o)\s+`)

// RepairLists converts word-processor-style bullet paragraphs into
// genuine list markup: bullet-prefixed or MsoListParagraph paragraphs
// become li elements, and consecutive orphaned li elements are grouped
// under a ul.
func RepairLists(gq *goquery.Document) {
	gq.Find("p").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		isMso := strings.Contains(class, "MsoListParagraph")
		text := strings.TrimSpace(sel.Text())
		if !isMso && !bulletPrefix.MatchString(text) {
			return
		}
		inner, err := sel.Html()
		if err != nil {
			return
		}
		inner = bulletPrefix.ReplaceAllString(inner, "")
		if strings.TrimSpace(inner) == "" {
			sel.Remove()
			return
		}
		sel.ReplaceWithHtml("<li>" + inner + "</li>")
	})

	groupOrphanListItems(gq)
}

// groupOrphanListItems wraps runs of li elements that lack a list
// parent in a shared ul.
func groupOrphanListItems(gq *goquery.Document) {
	for {
		orphan := gq.Find("li").FilterFunction(func(_ int, sel *goquery.Selection) bool {
			parent := sel.Parent()
			return !parent.Is("ul") && !parent.Is("ol")
		}).First()
		if orphan.Length() == 0 {
			return
		}

		orphan.BeforeHtml("<ul></ul>")
		ul := orphan.Prev()

		node := orphan
		for node.Length() > 0 && node.Is("li") {
			next := node.Next()
			ul.AppendSelection(node)
			node = next
		}
	}
}

// NormalizeTables applies the destination theme's table styling and
// wraps bare tables for responsive layout.
func NormalizeTables(gq *goquery.Document) {
	gq.Find("table").Each(func(_ int, sel *goquery.Selection) {
		sel.SetAttr("class", "table table-bordered")
		if !sel.Parent().HasClass("table-responsive") {
			sel.WrapHtml(`<div class="table-responsive"></div>`)
		}
	})
}
