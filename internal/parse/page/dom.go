// Package page extracts events from free-form HTML pages, either by DOM
// heuristics or through an external text-understanding model.
package page

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/textutil"
)

// DOMConfig controls the heuristic extractor.
type DOMConfig struct {
	MinTitleLen int
	Lookahead   time.Duration
	DescMax     int
}

// DOMExtractor scans a document for event-card structures using ordered
// selector tables and per-field candidate lists.
type DOMExtractor struct {
	cfg    DOMConfig
	clock  pipeline.Clock
	logger *zap.Logger
}

// NewDOM builds a DOMExtractor.
func NewDOM(cfg DOMConfig, clock pipeline.Clock, logger *zap.Logger) *DOMExtractor {
	if cfg.MinTitleLen <= 0 {
		cfg.MinTitleLen = 4
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = 30 * 24 * time.Hour
	}
	return &DOMExtractor{cfg: cfg, clock: clock, logger: logger}
}

// Parse walks the selector tables and emits one raw event per accepted
// card. Cards with a short title, an unparseable date, a past date, or a
// date beyond the lookahead window are excluded here; the pipeline-wide
// temporal filter applies again later.
func (e *DOMExtractor) Parse(_ context.Context, src pipeline.Source, body string) []pipeline.RawEvent {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		e.logger.Warn("page parse failed", zap.String("url", src.URL), zap.Error(err))
		return nil
	}

	base, _ := url.Parse(src.URL)
	now := e.clock.Now()
	horizon := now.Add(e.cfg.Lookahead)

	var events []pipeline.RawEvent
	seen := make(map[string]struct{})

	for _, selector := range eventSelectors {
		doc.Find(selector).Each(func(_ int, card *goquery.Selection) {
			raw, ok := e.extractCard(card, src, base, now, horizon)
			if !ok {
				return
			}
			key := raw.Title + "|" + raw.Start.Format(time.RFC3339)
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			events = append(events, raw)
		})
	}
	return events
}

func (e *DOMExtractor) extractCard(
	card *goquery.Selection,
	src pipeline.Source,
	base *url.URL,
	now, horizon time.Time,
) (pipeline.RawEvent, bool) {
	title := firstText(card, titleSelectors)
	if len([]rune(title)) < e.cfg.MinTitleLen {
		return pipeline.RawEvent{}, false
	}

	when := parseDate(dateText(card), now)
	if when.IsZero() || when.Before(now) || when.After(horizon) {
		return pipeline.RawEvent{}, false
	}

	eventURL := firstHref(card, base)
	if eventURL == "" {
		eventURL = src.URL
	}

	return pipeline.RawEvent{
		Title:       title,
		Description: textutil.FirstSentences(firstText(card, descriptionSelectors), e.cfg.DescMax),
		URL:         eventURL,
		Start:       when.UTC(),
		Venue: pipeline.Venue{
			Name:    firstText(card, venueSelectors),
			Address: firstText(card, venueSelectors[4:]),
		},
		PriceText: firstText(card, priceSelectors),
	}, true
}

// firstText takes the first non-empty text among the candidate selectors.
func firstText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		found := card.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		if text := textutil.Collapse(found.Text()); text != "" {
			return text
		}
	}
	return ""
}

// dateText prefers a machine-readable datetime attribute over visible text.
func dateText(card *goquery.Selection) string {
	if dt, ok := card.Find("[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
		return dt
	}
	for _, sel := range dateSelectors {
		found := card.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		if text := textutil.Collapse(found.Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstHref resolves the first usable link in the card against the page's
// own URL, so relative venue/event links come out absolute.
func firstHref(card *goquery.Selection, base *url.URL) string {
	var resolved string
	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		if base != nil {
			resolved = base.ResolveReference(ref).String()
		} else if ref.IsAbs() {
			resolved = ref.String()
		}
		return resolved == ""
	})
	return resolved
}
