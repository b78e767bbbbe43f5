package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
)

type stubFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (pipeline.Fetched, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()
	body, ok := s.bodies[url]
	if !ok {
		return pipeline.Fetched{}, errors.New("unreachable")
	}
	return pipeline.Fetched{Body: body, Via: pipeline.TransportDirect}, nil
}

func (s *stubFetcher) FetchPage(ctx context.Context, url string) (pipeline.Fetched, error) {
	return s.Fetch(ctx, url)
}

type stubParser struct{ perBody map[string][]pipeline.RawEvent }

func (p stubParser) Parse(_ context.Context, _ pipeline.Source, body string) []pipeline.RawEvent {
	return p.perBody[body]
}

type passNormalizer struct{}

func (passNormalizer) Normalize(_ context.Context, raw pipeline.RawEvent) pipeline.CanonicalEvent {
	return pipeline.CanonicalEvent{
		ID:    raw.URL,
		Title: raw.Title,
		URL:   raw.URL,
		Start: pipeline.NewISOTime(raw.Start),
		End:   pipeline.NewISOTime(raw.Start.Add(time.Hour)),
	}
}

func TestRunIsolatesFailingSources(t *testing.T) {
	start := time.Date(2026, 5, 20, 20, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{bodies: map[string]string{
		"https://ok.example.com/feed": "feed-body",
	}}
	parser := stubParser{perBody: map[string][]pipeline.RawEvent{
		"feed-body": {{Title: "Recital", URL: "https://ok.example.com/e/1", Start: start}},
	}}
	engine := NewEngine(fetcher,
		map[pipeline.Kind]pipeline.Parser{pipeline.KindFeed: parser},
		passNormalizer{}, 4, zap.NewNop())

	got := engine.Run(context.Background(), []pipeline.Source{
		{URL: "https://down.example.com/feed", Kind: pipeline.KindFeed},
		{URL: "https://ok.example.com/feed", Kind: pipeline.KindFeed},
		{URL: "https://ok.example.com/cal.ics", Kind: pipeline.KindCalendar}, // no parser wired
	})

	require.Len(t, got, 1)
	require.Equal(t, "Recital", got[0].Title)
	// The unparseable-kind source is skipped without fetching.
	require.NotContains(t, fetcher.calls, "https://ok.example.com/cal.ics")
}

func TestRunEmptySources(t *testing.T) {
	engine := NewEngine(&stubFetcher{}, map[pipeline.Kind]pipeline.Parser{},
		passNormalizer{}, 2, zap.NewNop())
	require.Empty(t, engine.Run(context.Background(), nil))
}
