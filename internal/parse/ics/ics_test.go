package ics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
)

const icsFixture = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:evt-1@example.com
DTSTAMP:20260301T000000Z
DTSTART:20260310T200000Z
DTEND:20260310T230000Z
SUMMARY:Obra de teatro
DESCRIPTION:Una obra imperdible. Segunda funcion confirmada. Tercera oracion de relleno.
LOCATION:Teatro San Martin\, Av. Corrientes 1530
URL:https://example.com/obra
END:VEVENT
BEGIN:VEVENT
UID:evt-2@example.com
DTSTAMP:20260301T000000Z
DTSTART:20260312T180000Z
SUMMARY:Charla abierta
END:VEVENT
END:VCALENDAR
`

func testSource() pipeline.Source {
	return pipeline.Source{URL: "https://example.com/cal.ics", Kind: pipeline.KindCalendar}
}

func TestParse(t *testing.T) {
	p := New(220, zap.NewNop())
	events := p.Parse(context.Background(), testSource(), icsFixture)
	require.Len(t, events, 2)

	first := events[0]
	require.Equal(t, "Obra de teatro", first.Title)
	require.Equal(t, "https://example.com/obra", first.URL)
	require.Equal(t, time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), first.Start)
	require.NotNil(t, first.End)
	require.Equal(t, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), *first.End)
	require.Contains(t, first.Venue.Name, "Teatro San Martin")
	require.Equal(t, first.Venue.Name, first.Venue.Address)
	require.Contains(t, first.Description, "Una obra imperdible.")
	require.False(t, strings.Contains(first.Description, "Tercera oracion"))

	second := events[1]
	require.Equal(t, "Charla abierta", second.Title)
	require.Equal(t, "https://example.com/cal.ics", second.URL, "URL falls back to the source")
	require.Nil(t, second.End, "missing DTEND stays absent")
}

func TestParseMalformed(t *testing.T) {
	p := New(220, zap.NewNop())
	require.Empty(t, p.Parse(context.Background(), testSource(), "this is not a calendar"))
	require.Empty(t, p.Parse(context.Background(), testSource(), ""))
}
