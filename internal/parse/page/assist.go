package page

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/ai"
	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/telemetry"
	"github.com/cartelera/cartelera/internal/textutil"
)

// maxPromptChars bounds how much page text goes to the model.
const maxPromptChars = 18000

// AssistExtractor submits the page's plain text to an external
// text-understanding service and decodes its structured reply defensively:
// malformed or missing-field replies degrade to an empty list.
type AssistExtractor struct {
	completer ai.Completer
	descMax   int
	logger    *zap.Logger
}

// NewAssist builds an AssistExtractor. A nil completer disables the
// strategy; Parse then returns nothing.
func NewAssist(completer ai.Completer, descMax int, logger *zap.Logger) *AssistExtractor {
	return &AssistExtractor{completer: completer, descMax: descMax, logger: logger}
}

type assistReply struct {
	Events []assistEvent `json:"events"`
}

type assistEvent struct {
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PriceText   string `json:"price_text"`
	Venue       struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	} `json:"venue"`
}

// Parse extracts structured events from the page text via the model.
func (e *AssistExtractor) Parse(ctx context.Context, src pipeline.Source, body string) []pipeline.RawEvent {
	if e.completer == nil {
		return nil
	}
	text := textutil.HTMLToText(body)
	if text == "" {
		return nil
	}
	if len([]rune(text)) > maxPromptChars {
		text = string([]rune(text)[:maxPromptChars])
	}

	reply, err := e.completer.Complete(ctx, buildPrompt(text))
	if err != nil {
		telemetry.ObserveAssist("error")
		e.logger.Warn("assisted extraction failed", zap.String("url", src.URL), zap.Error(err))
		return nil
	}
	telemetry.ObserveAssist("ok")

	var parsed assistReply
	if err := json.Unmarshal([]byte(reply), &parsed); err != nil {
		e.logger.Warn("assisted extraction reply not parseable",
			zap.String("url", src.URL), zap.Error(err))
		return nil
	}

	base, _ := url.Parse(src.URL)
	events := make([]pipeline.RawEvent, 0, len(parsed.Events))
	for _, ae := range parsed.Events {
		raw, ok := e.mapEvent(src, base, ae)
		if !ok {
			continue
		}
		events = append(events, raw)
	}
	return events
}

func (e *AssistExtractor) mapEvent(src pipeline.Source, base *url.URL, ae assistEvent) (pipeline.RawEvent, bool) {
	title := strings.TrimSpace(ae.Title)
	if title == "" {
		return pipeline.RawEvent{}, false
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(ae.Start))
	if err != nil {
		return pipeline.RawEvent{}, false
	}

	raw := pipeline.RawEvent{
		Title:       title,
		Description: textutil.FirstSentences(ae.Description, e.descMax),
		URL:         resolveURL(base, ae.URL, src.URL),
		Start:       start.UTC(),
		Venue:       pipeline.Venue{Name: strings.TrimSpace(ae.Venue.Name), Address: strings.TrimSpace(ae.Venue.Address)},
		PriceText:   strings.TrimSpace(ae.PriceText),
	}
	if end, err := time.Parse(time.RFC3339, strings.TrimSpace(ae.End)); err == nil {
		endUTC := end.UTC()
		raw.End = &endUTC
	}
	return raw, true
}

func resolveURL(base *url.URL, candidate, fallback string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return fallback
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		return fallback
	}
	if base != nil {
		return base.ResolveReference(ref).String()
	}
	if ref.IsAbs() {
		return ref.String()
	}
	return fallback
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`Extract upcoming public events from the page text below.
Reply with a JSON object holding an "events" array; each element must be
{"title":"...","start":"ISO-8601","end":"ISO-8601 or empty","venue":{"name":"","address":""},"price_text":"","url":"","description":""}.
Only include events with a concrete future date. Page text:
%s`, text)
}
