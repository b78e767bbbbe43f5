package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/ai"
	"github.com/cartelera/cartelera/internal/assemble"
	"github.com/cartelera/cartelera/internal/clock/system"
	"github.com/cartelera/cartelera/internal/fetch"
	"github.com/cartelera/cartelera/internal/geocode"
	"github.com/cartelera/cartelera/internal/normalize"
	"github.com/cartelera/cartelera/internal/parse/feed"
	"github.com/cartelera/cartelera/internal/parse/ics"
	"github.com/cartelera/cartelera/internal/parse/page"
	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/sources"
	"github.com/cartelera/cartelera/internal/telemetry"
	"github.com/cartelera/cartelera/internal/worker"
)

// newBuildCmd creates the 'build' subcommand: one full ingestion run ending
// in the published artifacts.
func newBuildCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Runs one ingestion pass and publishes the event artifacts",
		Long: `Fetches every registered source, parses and normalizes what it can,
and atomically replaces the events.json and events.js artifacts. Individual
source failures are logged and absorbed; only configuration or artifact
write problems fail the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, logger)
		},
	}
}

func runBuild(cmd *cobra.Command, logger *zap.Logger) error {
	cfg, err := pipeline.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	telemetry.Init()

	srcs, err := sources.Load(cfg.SourcesFile)
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	if len(srcs) == 0 {
		logger.Warn("sources file is empty", zap.String("path", cfg.SourcesFile))
	}

	clk := system.New()

	fetcher := fetch.New(fetch.Config{
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.RequestTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		ProxyPrefix:  cfg.ProxyPrefix,
	}, logger)

	renderer, err := buildRenderer(cfg, logger)
	if err != nil {
		return err
	}
	if renderer != nil {
		defer renderer.Close()
		fetcher.WithRenderer(renderer, fetch.NewDetector(cfg.DetectorMinHTMLBytes, cfg.DetectorKeywords))
	}

	assistClient := ai.New(ai.Config{
		BaseURL:  cfg.AIBaseURL,
		Key:      cfg.AIKey,
		Model:    cfg.AIModel,
		QPS:      cfg.AIQPS,
		JSONMode: true,
	}, logger)

	var translator normalize.Completer
	if c := ai.New(ai.Config{
		BaseURL: cfg.AIBaseURL,
		Key:     cfg.AIKey,
		Model:   cfg.AIModel,
		QPS:     cfg.AIQPS,
	}, logger); c != nil {
		translator = c
	}

	normalizer := normalize.New(normalize.Config{
		DescriptionMax:   cfg.DescriptionMax,
		DefaultDuration:  cfg.DefaultDuration,
		FreeLabel:        cfg.FreeLabel,
		TranslateEnabled: cfg.TranslateEnabled,
		Dictionary:       cfg.TranslateDictionary,
	}, nil, geocode.New(geocode.Config{
		Key:        cfg.GeocodeKey,
		CitySuffix: cfg.GeocodeSuffix,
		Region:     cfg.GeocodeRegion,
		Language:   cfg.GeocodeLanguage,
		QPS:        cfg.GeocodeQPS,
	}, logger), translator, logger)

	parsers := map[pipeline.Kind]pipeline.Parser{
		pipeline.KindFeed:     feed.New(cfg.DescriptionMax, logger),
		pipeline.KindCalendar: ics.New(cfg.DescriptionMax, logger),
		pipeline.KindPage:     buildPageParser(cfg, assistClient, clk, logger),
	}

	engine := worker.NewEngine(fetcher, parsers, normalizer, cfg.Concurrency, logger)
	batch := engine.Run(cmd.Context(), srcs)

	assembler := assemble.New(assemble.Config{
		OutputDir:   cfg.OutputDir,
		GraceWindow: cfg.GraceWindow,
		MaxEvents:   cfg.MaxEvents,
	}, clk, logger)

	if err := assembler.Publish(assembler.Select(batch)); err != nil {
		return fmt.Errorf("publish artifacts: %w", err)
	}
	return nil
}

// buildPageParser picks the page strategy. Assisted extraction silently
// degrades to the DOM heuristics when no AI key is configured.
func buildPageParser(cfg pipeline.Config, assistClient *ai.Client, clk pipeline.Clock, logger *zap.Logger) pipeline.Parser {
	if cfg.PageStrategy == "assist" && assistClient != nil {
		return page.NewAssist(assistClient, cfg.DescriptionMax, logger)
	}
	if cfg.PageStrategy == "assist" {
		logger.Warn("page.strategy is assist but no AI key is configured; using DOM heuristics")
	}
	return page.NewDOM(page.DOMConfig{
		MinTitleLen: cfg.MinTitleLen,
		Lookahead:   cfg.PageLookahead,
		DescMax:     cfg.DescriptionMax,
	}, clk, logger)
}

func buildRenderer(cfg pipeline.Config, logger *zap.Logger) (*fetch.ChromedpRenderer, error) {
	if !cfg.RenderEnabled {
		return nil, nil
	}
	renderer, err := fetch.NewChromedpRenderer(fetch.RenderConfig{
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.RenderTimeout,
		MaxConcurrency: cfg.RenderMaxConcurrency,
		DomainQPS:      cfg.RenderDomainQPS,
	}, logger)
	switch {
	case err == nil:
		return renderer, nil
	case errors.Is(err, fetch.ErrRendererDisabled):
		logger.Warn("Renderer disabled despite feature flag; staying on the fast path")
		return nil, nil
	default:
		return nil, fmt.Errorf("init renderer: %w", err)
	}
}
