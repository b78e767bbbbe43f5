// Package worker runs the per-source pipeline over a bounded pool and joins
// the results into one batch for assembly.
package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/telemetry"
)

// Fetcher is the retrieval surface the engine needs: plain fetches for
// structured sources and the page-aware variant that may promote to a
// headless render.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (pipeline.Fetched, error)
	FetchPage(ctx context.Context, url string) (pipeline.Fetched, error)
}

// Engine fans sources out to workers. There is no ordering contract between
// sources; the assembler sorts the joined batch.
type Engine struct {
	fetcher     Fetcher
	parsers     map[pipeline.Kind]pipeline.Parser
	normalizer  pipeline.Normalizer
	concurrency int
	logger      *zap.Logger
}

// NewEngine builds an Engine. parsers must cover every Kind the registry can
// produce; a source with no parser is skipped with a log line.
func NewEngine(
	fetcher Fetcher,
	parsers map[pipeline.Kind]pipeline.Parser,
	normalizer pipeline.Normalizer,
	concurrency int,
	logger *zap.Logger,
) *Engine {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Engine{
		fetcher:     fetcher,
		parsers:     parsers,
		normalizer:  normalizer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run processes every source and returns the joined, unordered batch of
// normalized events. Per-source failures are absorbed; a run never fails as
// a whole here.
func (e *Engine) Run(ctx context.Context, srcs []pipeline.Source) []pipeline.CanonicalEvent {
	log := e.logger.With(zap.String("run_id", uuid.NewString()))
	log.Info("run started", zap.Int("sources", len(srcs)), zap.Int("workers", e.concurrency))

	jobs := make(chan pipeline.Source)
	results := make(chan []pipeline.CanonicalEvent)

	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				results <- e.processSource(ctx, log, src)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, src := range srcs {
			select {
			case jobs <- src:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []pipeline.CanonicalEvent
	for batch := range results {
		out = append(out, batch...)
	}
	log.Info("run finished", zap.Int("events", len(out)))
	return out
}

func (e *Engine) processSource(ctx context.Context, log *zap.Logger, src pipeline.Source) []pipeline.CanonicalEvent {
	slog := log.With(zap.String("url", src.URL), zap.String("kind", string(src.Kind)))

	parser, ok := e.parsers[src.Kind]
	if !ok {
		slog.Warn("no parser for source kind")
		telemetry.ObserveSource(string(src.Kind), "skipped")
		return nil
	}

	fetch := e.fetcher.Fetch
	if src.Kind == pipeline.KindPage {
		fetch = e.fetcher.FetchPage
	}
	fetched, err := fetch(ctx, src.URL)
	if err != nil {
		slog.Warn("fetch failed", zap.Error(err))
		telemetry.ObserveSource(string(src.Kind), "fetch_error")
		return nil
	}

	raws := parser.Parse(ctx, src, fetched.Body)
	telemetry.ObserveRawEvents(string(src.Kind), len(raws))
	slog.Debug("source parsed",
		zap.String("via", string(fetched.Via)),
		zap.Int("raw_events", len(raws)))

	events := make([]pipeline.CanonicalEvent, 0, len(raws))
	for _, raw := range raws {
		events = append(events, e.normalizer.Normalize(ctx, raw))
	}
	telemetry.ObserveSource(string(src.Kind), "ok")
	return events
}
