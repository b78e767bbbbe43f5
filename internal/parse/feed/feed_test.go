package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Agenda Cultural</title>
<item>
<title>Recital de jazz</title>
<link>https://example.com/eventos/jazz</link>
<description><![CDATA[<p>Una noche de jazz en el Centro Cultural Recoleta. Entrada libre y gratuita. Más detalles en la web del centro.</p>]]></description>
<pubDate>Mon, 02 Mar 2026 21:00:00 -0300</pubDate>
</item>
<item>
<title>Entrada sin fecha</title>
<link>https://example.com/eventos/sinfecha</link>
<description>No deberia aparecer.</description>
</item>
</channel>
</rss>`

func testSource() pipeline.Source {
	return pipeline.Source{URL: "https://example.com/rss", Kind: pipeline.KindFeed}
}

func TestParseStructural(t *testing.T) {
	p := New(220, zap.NewNop())
	events := p.Parse(context.Background(), testSource(), rssFixture)

	require.Len(t, events, 1, "the dateless entry must be dropped")
	ev := events[0]
	require.Equal(t, "Recital de jazz", ev.Title)
	require.Equal(t, "https://example.com/eventos/jazz", ev.URL)
	require.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), ev.Start)
	require.Nil(t, ev.End)
	require.Contains(t, ev.Description, "Una noche de jazz")
	require.NotContains(t, ev.Description, "<p>")
	require.Contains(t, ev.Venue.Name, "Centro Cultural Recoleta")
}

func TestParseDegradedSplitter(t *testing.T) {
	// Broken XML prologue defeats the structural reader but the item
	// splitter still finds entries.
	broken := `garbage <not-xml> <item>
<title><![CDATA[Feria de libros]]></title>
<link>https://example.com/feria</link>
<description>Feria en la plaza. Habra puestos de todo tipo.</description>
<pubDate>Tue, 03 Mar 2026 12:00:00 +0000</pubDate>
</item>`

	p := New(220, zap.NewNop())
	events := p.Parse(context.Background(), testSource(), broken)

	require.Len(t, events, 1)
	require.Equal(t, "Feria de libros", events[0].Title)
	require.Equal(t, "https://example.com/feria", events[0].URL)
	require.Equal(t, "Feria en la plaza. Habra puestos de todo tipo.", events[0].Description)
}

func TestParseGarbageYieldsNothing(t *testing.T) {
	p := New(220, zap.NewNop())
	require.Empty(t, p.Parse(context.Background(), testSource(), "completely unrelated text"))
	require.Empty(t, p.Parse(context.Background(), testSource(), ""))
}

func TestParseDescriptionCap(t *testing.T) {
	p := New(40, zap.NewNop())
	events := p.Parse(context.Background(), testSource(), rssFixture)
	require.Len(t, events, 1)
	require.LessOrEqual(t, len([]rune(events[0].Description)), 40)
}
