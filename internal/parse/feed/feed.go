// Package feed parses syndication (RSS/Atom) sources into raw events.
package feed

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/textutil"
)

var (
	venueGuess   = regexp.MustCompile(`(?i)(Centro|Teatro|Museo|Sala|Club|Cultural|Malba|Konex|Colon)\s+[A-ZÁÉÍÓÚÑ][^.,\n]{2,80}`)
	addressGuess = regexp.MustCompile(`(?i)[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+\.?\s+[0-9]{1,5}(?:\s?\w{0,3})?,?\s*(CABA|Buenos Aires)?`)

	itemSplit   = regexp.MustCompile(`(?i)<item[\s>]`)
	titleTag    = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
	linkTag     = regexp.MustCompile(`(?is)<link>(.*?)</link>`)
	descTag     = regexp.MustCompile(`(?is)<description>(.*?)</description>`)
	pubDateTag  = regexp.MustCompile(`(?is)<pubDate>(.*?)</pubDate>`)
	cdataMarker = strings.NewReplacer("<![CDATA[", "", "]]>", "")
)

// Parser maps feed entries to raw events.
type Parser struct {
	descMax int
	logger  *zap.Logger
}

// New builds a feed Parser. descMax caps the extracted description length.
func New(descMax int, logger *zap.Logger) *Parser {
	return &Parser{descMax: descMax, logger: logger}
}

// Parse produces zero or more raw events from feed content. A feed the
// structural reader cannot handle degrades to a minimal regex entry
// splitter over the raw markup; if that also yields nothing, the source
// contributes zero events.
func (p *Parser) Parse(_ context.Context, src pipeline.Source, body string) []pipeline.RawEvent {
	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		p.logger.Warn("structural feed parse failed, degrading to raw splitter",
			zap.String("url", src.URL), zap.Error(err))
		return p.parseRaw(src, body)
	}

	events := make([]pipeline.RawEvent, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		raw, ok := p.mapItem(src, item)
		if !ok {
			continue
		}
		events = append(events, raw)
	}
	return events
}

func (p *Parser) mapItem(src pipeline.Source, item *gofeed.Item) (pipeline.RawEvent, bool) {
	when := item.PublishedParsed
	if when == nil {
		when = item.UpdatedParsed
	}
	// Entries with no parseable time are dropped: substituting the clock
	// would change the event fingerprint on every run.
	if when == nil {
		return pipeline.RawEvent{}, false
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}
	plain := textutil.HTMLToText(content)

	link := item.Link
	if link == "" {
		link = src.URL
	}

	return pipeline.RawEvent{
		Title:       strings.TrimSpace(item.Title),
		Description: textutil.FirstSentences(plain, p.descMax),
		URL:         link,
		Start:       when.UTC(),
		End:         nil,
		Venue: pipeline.Venue{
			Name:    strings.TrimSpace(venueGuess.FindString(plain)),
			Address: strings.TrimSpace(addressGuess.FindString(plain)),
		},
	}, true
}

// parseRaw is the degraded path: split on <item> boundaries and pick fields
// with permissive regexes.
func (p *Parser) parseRaw(src pipeline.Source, body string) []pipeline.RawEvent {
	chunks := itemSplit.Split(body, -1)
	if len(chunks) < 2 {
		return nil
	}

	var events []pipeline.RawEvent
	for _, chunk := range chunks[1:] {
		title := pick(titleTag, chunk)
		link := pick(linkTag, chunk)
		date := pick(pubDateTag, chunk)
		when, ok := parsePubDate(date)
		if !ok || title == "" {
			continue
		}
		if link == "" {
			link = src.URL
		}
		desc := textutil.FirstSentences(textutil.HTMLToText(pick(descTag, chunk)), p.descMax)
		events = append(events, pipeline.RawEvent{
			Title:       title,
			Description: desc,
			URL:         link,
			Start:       when.UTC(),
		})
	}
	return events
}

func pick(re *regexp.Regexp, chunk string) string {
	m := re.FindStringSubmatch(chunk)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(cdataMarker.Replace(m[1]))
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parsePubDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
