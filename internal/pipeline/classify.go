package pipeline

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	icsPattern  = regexp.MustCompile(`(?i)\.ics($|\?)`)
	xmlPattern  = regexp.MustCompile(`(?i)\.xml($|\?)`)
	feedPattern = regexp.MustCompile(`(?i)rss|atom|feed`)
)

// Classify decides which parsing strategy applies to a URL. Calendar file
// extensions win over syndication markers; anything unrecognized, including
// a malformed URL, classifies as a page since the heuristic extractor is the
// most permissive strategy.
func Classify(rawURL string) Kind {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return KindPage
	}
	if _, err := url.Parse(trimmed); err != nil {
		return KindPage
	}
	switch {
	case icsPattern.MatchString(trimmed):
		return KindCalendar
	case xmlPattern.MatchString(trimmed) || feedPattern.MatchString(trimmed):
		return KindFeed
	default:
		return KindPage
	}
}
