// Package sources loads the registry of URLs the pipeline reads from.
package sources

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cartelera/cartelera/internal/pipeline"
)

// Load reads a newline-delimited list of source URLs and classifies each by
// its shape. Blank lines and #-comments are ignored. The file's order is
// preserved.
func Load(path string) ([]pipeline.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []pipeline.Source
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, pipeline.Source{URL: line, Kind: pipeline.Classify(line)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return out, nil
}
