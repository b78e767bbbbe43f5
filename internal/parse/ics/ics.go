// Package ics parses ICS calendar sources into raw events.
package ics

import (
	"context"
	"strings"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/textutil"
)

// Parser maps VEVENT components to raw events.
type Parser struct {
	descMax int
	logger  *zap.Logger
}

// New builds an ICS Parser.
func New(descMax int, logger *zap.Logger) *Parser {
	return &Parser{descMax: descMax, logger: logger}
}

// Parse emits one raw event per VEVENT with a parseable start. A missing
// DTEND stays absent so normalization can fill the default duration.
// Malformed calendar text yields zero events, not a crash.
func (p *Parser) Parse(_ context.Context, src pipeline.Source, body string) []pipeline.RawEvent {
	cal, err := ical.ParseCalendar(strings.NewReader(body))
	if err != nil {
		p.logger.Warn("calendar parse failed", zap.String("url", src.URL), zap.Error(err))
		return nil
	}

	var events []pipeline.RawEvent
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			p.logger.Debug("vevent without usable DTSTART skipped",
				zap.String("url", src.URL), zap.Error(err))
			continue
		}

		raw := pipeline.RawEvent{
			Title:       prop(ve, ical.ComponentPropertySummary),
			Description: textutil.FirstSentences(prop(ve, ical.ComponentPropertyDescription), p.descMax),
			URL:         prop(ve, ical.ComponentPropertyUrl),
			Start:       start.UTC(),
		}
		if raw.URL == "" {
			raw.URL = src.URL
		}
		if end, err := ve.GetEndAt(); err == nil {
			endUTC := end.UTC()
			raw.End = &endUTC
		}
		// LOCATION is the only place signal a calendar carries; it doubles
		// as both name and address for downstream geocoding.
		if loc := prop(ve, ical.ComponentPropertyLocation); loc != "" {
			raw.Venue = pipeline.Venue{Name: loc, Address: loc}
		}
		events = append(events, raw)
	}
	return events
}

func prop(ve *ical.VEvent, name ical.ComponentProperty) string {
	p := ve.GetProperty(name)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}
