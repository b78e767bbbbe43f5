package page

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func pageSource() pipeline.Source {
	return pipeline.Source{URL: "https://example.com/agenda", Kind: pipeline.KindPage}
}

func newTestDOM() *DOMExtractor {
	return NewDOM(DOMConfig{DescMax: 220}, fixedClock{now: testNow}, zap.NewNop())
}

func TestDOMExtracts(t *testing.T) {
	html := fmt.Sprintf(`<html><body>
<div class="event-card">
  <h3>Concierto de tango</h3>
  <span class="fecha">10/03/2026 20:30</span>
  <p class="descripcion">Una noche de tango en vivo. Con orquesta completa.</p>
  <span class="lugar">Usina del Arte</span>
  <span class="direccion">Caffarena 1</span>
  <span class="precio-x"></span>
  <span class="precio entrada">ARS 5000</span>
  <a href="/eventos/tango-123">Ver m%s</a>
</div>
</body></html>`, "ás")

	events := newTestDOM().Parse(context.Background(), pageSource(), html)
	require.Len(t, events, 1)

	ev := events[0]
	require.Equal(t, "Concierto de tango", ev.Title)
	require.Equal(t, time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC), ev.Start)
	require.Equal(t, "https://example.com/eventos/tango-123", ev.URL, "relative link resolved")
	require.Contains(t, ev.Description, "Una noche de tango")
	require.Equal(t, "Usina del Arte", ev.Venue.Name)
	require.Equal(t, "Caffarena 1", ev.Venue.Address)
	require.Equal(t, "ARS 5000", ev.PriceText)
}

func TestDOMRejectsShortTitle(t *testing.T) {
	html := `<div class="event"><h3>ok</h3><span class="fecha">10/03/2026</span></div>`
	require.Empty(t, newTestDOM().Parse(context.Background(), pageSource(), html))
}

func TestDOMRejectsPastAndUnparseableDates(t *testing.T) {
	html := `<html><body>
<div class="event"><h3>Evento pasado</h3><span class="fecha">10/02/2026</span></div>
<div class="event"><h3>Evento sin fecha</h3><span class="fecha">proximamente</span></div>
<div class="event"><h3>Evento lejano</h3><span class="fecha">10/08/2026</span></div>
</body></html>`
	require.Empty(t, newTestDOM().Parse(context.Background(), pageSource(), html))
}

func TestDOMDedupsAcrossSelectors(t *testing.T) {
	// The same element matches both ".event" and `div[class*="event"]`.
	html := `<div class="event"><h3>Feria artesanal</h3><span class="fecha">15/03/2026</span></div>`
	events := newTestDOM().Parse(context.Background(), pageSource(), html)
	require.Len(t, events, 1)
}

func TestDOMPrefersDatetimeAttribute(t *testing.T) {
	html := `<div class="event">
  <h3>Charla de fotografia</h3>
  <time datetime="2026-03-20T18:00:00Z">viernes 20</time>
</div>`
	events := newTestDOM().Parse(context.Background(), pageSource(), html)
	require.Len(t, events, 1)
	require.Equal(t, time.Date(2026, 3, 20, 18, 0, 0, 0, time.UTC), events[0].Start)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "iso", in: "2026-03-10T20:00:00Z", want: time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)},
		{name: "slash dmy with time", in: "10/03/2026 20:30", want: time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC)},
		{name: "dotted dmy", in: "10.03.2026", want: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{name: "spanish with year", in: "10 de marzo de 2026", want: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		{name: "spanish no year rolls forward", in: "15 de enero", want: time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", in: "proximamente", want: time.Time{}},
		{name: "empty", in: "", want: time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, parseDate(tt.in, testNow))
		})
	}
}
