package page

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(_ context.Context, _ string) (string, error) {
	return s.reply, s.err
}

func TestAssistParsesReply(t *testing.T) {
	reply := `{"events":[
  {"title":"Festival de cine","start":"2026-03-12T19:00:00Z","end":"2026-03-12T22:00:00Z",
   "venue":{"name":"Malba","address":"Av. Figueroa Alcorta 3415"},
   "price_text":"ARS 1500","url":"/cine/festival","description":"Ciclo de cine argentino. Funciones dobles."},
  {"title":"","start":"2026-03-13T10:00:00Z"},
  {"title":"Sin fecha valida","start":"el martes"}
]}`

	e := NewAssist(stubCompleter{reply: reply}, 220, zap.NewNop())
	events := e.Parse(context.Background(), pageSource(), "<html><body>agenda</body></html>")

	require.Len(t, events, 1, "events without title or parseable start are dropped")
	ev := events[0]
	require.Equal(t, "Festival de cine", ev.Title)
	require.Equal(t, time.Date(2026, 3, 12, 19, 0, 0, 0, time.UTC), ev.Start)
	require.NotNil(t, ev.End)
	require.Equal(t, "https://example.com/cine/festival", ev.URL, "relative url resolved against the page")
	require.Equal(t, "Malba", ev.Venue.Name)
	require.Equal(t, "ARS 1500", ev.PriceText)
}

func TestAssistMalformedReply(t *testing.T) {
	e := NewAssist(stubCompleter{reply: "sorry, I cannot do that"}, 220, zap.NewNop())
	require.Empty(t, e.Parse(context.Background(), pageSource(), "<html><body>x</body></html>"))
}

func TestAssistCompleterError(t *testing.T) {
	e := NewAssist(stubCompleter{err: errors.New("boom")}, 220, zap.NewNop())
	require.Empty(t, e.Parse(context.Background(), pageSource(), "<html><body>x</body></html>"))
}

func TestAssistNilCompleter(t *testing.T) {
	e := NewAssist(nil, 220, zap.NewNop())
	require.Empty(t, e.Parse(context.Background(), pageSource(), "<html><body>x</body></html>"))
}

func TestAssistEmptyPage(t *testing.T) {
	e := NewAssist(stubCompleter{reply: `{"events":[]}`}, 220, zap.NewNop())
	require.Empty(t, e.Parse(context.Background(), pageSource(), ""))
}
