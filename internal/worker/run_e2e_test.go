package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/assemble"
	"github.com/cartelera/cartelera/internal/fetch"
	"github.com/cartelera/cartelera/internal/normalize"
	"github.com/cartelera/cartelera/internal/parse/feed"
	"github.com/cartelera/cartelera/internal/parse/ics"
	"github.com/cartelera/cartelera/internal/parse/page"
	"github.com/cartelera/cartelera/internal/pipeline"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

const e2eFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Agenda</title>
<item>
<title>Recital de jazz gratuito</title>
<link>https://example.com/eventos/jazz</link>
<description>Una noche de jazz. Entrada gratis.</description>
<pubDate>Wed, 20 May 2026 21:00:00 +0000</pubDate>
</item>
<item>
<title>Recital ya pasado</title>
<link>https://example.com/eventos/viejo</link>
<description>Ya ocurrio.</description>
<pubDate>Wed, 01 Apr 2026 21:00:00 +0000</pubDate>
</item>
</channel>
</rss>`

const e2eCalendar = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:future@example.com
DTSTAMP:20260501T000000Z
DTSTART:20260525T200000Z
DTEND:20260525T223000Z
SUMMARY:Obra de teatro
URL:https://example.com/obra
END:VEVENT
BEGIN:VEVENT
UID:past@example.com
DTSTAMP:20260501T000000Z
DTSTART:20260401T200000Z
SUMMARY:Funcion pasada
END:VEVENT
END:VCALENDAR
`

const e2ePage = `<html><body>
<div class="event-card">
  <h3>Feria de libros</h3>
  <span class="fecha">22/05/2026 11:00</span>
  <p class="descripcion">Feria en la plaza. Entrada libre.</p>
  <span class="lugar">Plaza Central</span>
  <a href="/eventos/feria">Ver</a>
</div>
<div class="event-card">
  <h3>Feria ya pasada</h3>
  <span class="fecha">10/04/2026</span>
</div>
</body></html>`

// runPipeline wires the real fetcher, parsers, normalizer, and assembler the
// way the build command does, minus renderer, geocoder, and AI.
func runPipeline(t *testing.T, baseURL string, now time.Time) []pipeline.CanonicalEvent {
	t.Helper()
	logger := zap.NewNop()
	clock := fixedClock{now}

	fetcher := fetch.New(fetch.Config{
		UserAgent:    "cartelera-test/1.0",
		Timeout:      5 * time.Second,
		MaxBodyBytes: 1 << 20,
	}, logger)

	normalizer := normalize.New(normalize.Config{
		DescriptionMax:  220,
		DefaultDuration: 3 * time.Hour,
		FreeLabel:       "Free",
	}, nil, nil, nil, logger)

	parsers := map[pipeline.Kind]pipeline.Parser{
		pipeline.KindFeed:     feed.New(220, logger),
		pipeline.KindCalendar: ics.New(220, logger),
		pipeline.KindPage:     page.NewDOM(page.DOMConfig{DescMax: 220}, clock, logger),
	}

	srcs := []pipeline.Source{
		{URL: baseURL + "/feed.xml", Kind: pipeline.Classify(baseURL + "/feed.xml")},
		{URL: baseURL + "/cal.ics", Kind: pipeline.Classify(baseURL + "/cal.ics")},
		{URL: baseURL + "/agenda", Kind: pipeline.Classify(baseURL + "/agenda")},
	}
	require.Equal(t, pipeline.KindFeed, srcs[0].Kind)
	require.Equal(t, pipeline.KindCalendar, srcs[1].Kind)
	require.Equal(t, pipeline.KindPage, srcs[2].Kind)

	engine := NewEngine(fetcher, parsers, normalizer, 3, logger)
	batch := engine.Run(context.Background(), srcs)

	assembler := assemble.New(assemble.Config{
		OutputDir:   t.TempDir(),
		GraceWindow: 30 * time.Minute,
		MaxEvents:   50,
	}, clock, logger)
	return assembler.Select(batch)
}

func TestEndToEndRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(e2eFeed))
	})
	mux.HandleFunc("/cal.ics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(e2eCalendar))
	})
	mux.HandleFunc("/agenda", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(e2ePage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	got := runPipeline(t, srv.URL, now)

	require.Len(t, got, 3, "one future event per source survives")
	assert.Equal(t, "Recital de jazz gratuito", got[0].Title)
	assert.Equal(t, "Feria de libros", got[1].Title)
	assert.Equal(t, "Obra de teatro", got[2].Title)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Start.Time.Before(got[i-1].Start.Time), "sorted by start")
	}

	assert.Contains(t, got[0].Tags, "music")
	assert.Contains(t, got[0].Tags, "free")
	assert.True(t, got[0].Price.IsFree)
	assert.Contains(t, got[1].Tags, "fair")
	assert.Contains(t, got[2].Tags, "theatre")

	// Ids are stable across consecutive runs.
	again := runPipeline(t, srv.URL, now)
	require.Len(t, again, 3)
	for i := range got {
		assert.Equal(t, got[i].ID, again[i].ID)
	}
}
