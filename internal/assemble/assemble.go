// Package assemble turns the run's normalized events into the published
// artifacts: temporal filtering, dedup, ordering, capping, and the atomic
// write of the JSON and script outputs.
package assemble

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/telemetry"
)

// Artifact file names inside the output directory.
const (
	JSONFile   = "events.json"
	ScriptFile = "events.js"
)

// Config controls assembly.
type Config struct {
	OutputDir   string
	GraceWindow time.Duration
	MaxEvents   int
}

// Assembler filters and publishes events.
type Assembler struct {
	cfg    Config
	clock  pipeline.Clock
	logger *zap.Logger
}

// New builds an Assembler.
func New(cfg Config, clock pipeline.Clock, logger *zap.Logger) *Assembler {
	return &Assembler{cfg: cfg, clock: clock, logger: logger}
}

// Select applies the temporal filter, drops duplicate ids, sorts by start
// ascending, and caps the result. The input slice is not modified.
func (a *Assembler) Select(events []pipeline.CanonicalEvent) []pipeline.CanonicalEvent {
	cutoff := a.clock.Now().Add(-a.cfg.GraceWindow)

	seen := make(map[string]bool, len(events))
	kept := make([]pipeline.CanonicalEvent, 0, len(events))
	for _, ev := range events {
		// Ongoing events stay; only events whose end is strictly before the
		// cutoff are dropped, so an event ending exactly at the cutoff is
		// retained.
		if ev.End.Time.Before(cutoff) {
			continue
		}
		if seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true
		kept = append(kept, ev)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start.Time.Before(kept[j].Start.Time)
	})

	if a.cfg.MaxEvents > 0 && len(kept) > a.cfg.MaxEvents {
		kept = kept[:a.cfg.MaxEvents]
	}
	return kept
}

// Publish writes both artifacts for the given events. Each file is written
// to a temp file in the output directory and renamed into place so readers
// never observe a partial artifact.
func (a *Assembler) Publish(events []pipeline.CanonicalEvent) error {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	pretty, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	if err := a.writeAtomic(JSONFile, append(pretty, '\n')); err != nil {
		return err
	}

	compact, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	script := append([]byte("window.EVENTS="), compact...)
	script = append(script, ';', '\n')
	if err := a.writeAtomic(ScriptFile, script); err != nil {
		return err
	}

	telemetry.SetEventsEmitted(len(events))
	a.logger.Info("artifacts published",
		zap.Int("events", len(events)),
		zap.String("dir", a.cfg.OutputDir))
	return nil
}

func (a *Assembler) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(a.cfg.OutputDir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(a.cfg.OutputDir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}
