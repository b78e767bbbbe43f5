// Package textutil holds the small text-shaping helpers shared by the
// parsers and the normalizer.
package textutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	sentencePair  = regexp.MustCompile(`(.+?[.!?])\s+(.+?[.!?])?`)
)

// Collapse trims the string and squeezes interior whitespace runs to a
// single space.
func Collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// FirstSentences reduces free text to roughly its first one or two
// sentences, capped at maxChars runes. Feeds and pages routinely carry whole
// article bodies in their description fields; only the lede is worth
// propagating downstream.
func FirstSentences(s string, maxChars int) string {
	text := Collapse(s)
	if text == "" {
		return ""
	}
	if m := sentencePair.FindStringSubmatch(text); m != nil {
		out := m[1]
		if m[2] != "" {
			out += " " + m[2]
		}
		text = out
	}
	return truncateRunes(text, maxChars)
}

// Ellipsize caps the string at maxChars runes, appending an ellipsis marker
// when truncation happened.
func Ellipsize(s string, maxChars int) string {
	runes := []rune(s)
	if maxChars <= 0 || len(runes) <= maxChars {
		return s
	}
	return strings.TrimSpace(string(runes[:maxChars])) + "…"
}

func truncateRunes(s string, maxChars int) string {
	runes := []rune(s)
	if maxChars <= 0 || len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

// HTMLToText strips markup and returns the document's visible text with
// whitespace collapsed. Unparseable markup degrades to the raw input with
// tags crudely removed rather than an error.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Collapse(tagStripper.ReplaceAllString(html, " "))
	}
	doc.Find("script, style").Remove()
	return Collapse(doc.Text())
}

var tagStripper = regexp.MustCompile(`<[^>]*>`)
