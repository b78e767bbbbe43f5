// Package normalize converts raw parsed events into their canonical form:
// identity, tags, price, trimmed description, optional translation and
// geocoding. Every sub-step degrades to a default value rather than failing
// the record.
package normalize

import (
	"context"
	"encoding/base64"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/textutil"
)

// TagRule maps one category label to the expression that detects it in the
// event's concatenated text.
type TagRule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// DefaultTagRules is the built-in controlled vocabulary. Latin alternates
// use word boundaries; Cyrillic stems match as plain substrings because RE2
// word boundaries are ASCII-only.
func DefaultTagRules() []TagRule {
	return []TagRule{
		{"music", regexp.MustCompile(`(?i)\b(music|música|musica|dj|band|live|recital)\b|музык`)},
		{"concert", regexp.MustCompile(`(?i)\b(concert|recital|gig)\b|концерт`)},
		{"fair", regexp.MustCompile(`(?i)\b(fair|feria|market|mercado)\b|ярмарк`)},
		{"party", regexp.MustCompile(`(?i)\b(party|fiesta|rave)\b|вечеринк`)},
		{"cinema", regexp.MustCompile(`(?i)\b(cinema|cine|film)\b|pel[ií]cula|кино`)},
		{"theatre", regexp.MustCompile(`(?i)\b(theatre|theater|teatro)\b|театр`)},
		{"kids", regexp.MustCompile(`(?i)\b(kids|infantil)\b|niñ|дет(ям|и|ск)`)},
		{"russian", regexp.MustCompile(`(?i)\b(ruso|russian)\b|русск`)},
		{"free", freePattern},
	}
}

var (
	freePattern  = regexp.MustCompile(`(?i)free|gratis|gratuito|бесплат`)
	amountRe     = regexp.MustCompile(`(?i)(?:ARS|\$|usd|u\$s)\s?\d[\d.,]*`)
	usdWordRe    = regexp.MustCompile(`(?i)usd`)
	usdSymbolRe  = regexp.MustCompile(`(?i)u\$s`)
	idBytes      = 24
)

// Config carries the normalization knobs. Rule tables and the dictionary are
// immutable once the Normalizer is built.
type Config struct {
	DescriptionMax  int
	DefaultDuration time.Duration
	FreeLabel       string

	TranslateEnabled bool
	Dictionary       map[string]string
}

// Completer produces a completion for a prompt. Satisfied by the ai client;
// nil disables AI-backed description translation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Normalizer implements pipeline.Normalizer.
type Normalizer struct {
	cfg      Config
	rules    []TagRule
	dict     *dictionary
	geocoder pipeline.Geocoder
	ai       Completer
	logger   *zap.Logger
}

// New builds a Normalizer. geocoder and completer may be nil; rules may be
// nil to use the default vocabulary.
func New(cfg Config, rules []TagRule, geocoder pipeline.Geocoder, completer Completer, logger *zap.Logger) *Normalizer {
	if rules == nil {
		rules = DefaultTagRules()
	}
	if cfg.FreeLabel == "" {
		cfg.FreeLabel = "Free"
	}
	if cfg.DescriptionMax <= 0 {
		cfg.DescriptionMax = 220
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = 3 * time.Hour
	}
	return &Normalizer{
		cfg:      cfg,
		rules:    rules,
		dict:     newDictionary(cfg.Dictionary),
		geocoder: geocoder,
		ai:       completer,
		logger:   logger,
	}
}

// Normalize converts one raw event. The fingerprint is computed from the
// untranslated title so dictionary changes do not re-identify events.
func (n *Normalizer) Normalize(ctx context.Context, raw pipeline.RawEvent) pipeline.CanonicalEvent {
	title := textutil.Collapse(raw.Title)
	desc := shapeDescription(raw.Description, n.cfg.DescriptionMax)
	venue := pipeline.Venue{
		Name:    textutil.Collapse(raw.Venue.Name),
		Address: textutil.Collapse(raw.Venue.Address),
	}

	start := raw.Start.UTC()
	end := start.Add(n.cfg.DefaultDuration)
	if raw.End != nil && raw.End.After(start) {
		end = raw.End.UTC()
	}

	id := Fingerprint(title, start, raw.URL)

	baseText := title + " " + desc + " " + venue.Name + " " + venue.Address
	tags := n.tagify(baseText)
	price := n.priceFrom(raw.PriceText, baseText)

	if n.cfg.TranslateEnabled {
		if n.ai != nil {
			desc = n.translateAI(ctx, desc)
		}
		title = n.dict.Apply(title)
		desc = n.dict.Apply(desc)
		venue.Name = n.dict.Apply(venue.Name)
	}

	return pipeline.CanonicalEvent{
		ID:          id,
		Title:       title,
		Description: desc,
		URL:         raw.URL,
		Start:       pipeline.NewISOTime(start),
		End:         pipeline.NewISOTime(end),
		Venue:       venue,
		Location:    n.locate(ctx, venue),
		Tags:        tags,
		Price:       price,
	}
}

// Fingerprint derives the stable event id from the identity triple. Same
// triple, same id; collisions are accepted risk.
func Fingerprint(title string, start time.Time, url string) string {
	encoded := base64.StdEncoding.EncodeToString(
		[]byte(title + start.UTC().Format(time.RFC3339) + url))
	if len(encoded) > idBytes {
		return encoded[:idBytes]
	}
	return encoded
}

func shapeDescription(s string, maxChars int) string {
	lede := textutil.FirstSentences(s, maxChars*2)
	return textutil.Ellipsize(lede, maxChars)
}

func (n *Normalizer) tagify(text string) []string {
	var tags []string
	seen := make(map[string]bool, len(n.rules))
	for _, r := range n.rules {
		if seen[r.Tag] || !r.Pattern.MatchString(text) {
			continue
		}
		seen[r.Tag] = true
		tags = append(tags, r.Tag)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}

// priceFrom prefers an explicit per-element price string over the record's
// free text.
func (n *Normalizer) priceFrom(explicit, fallback string) pipeline.Price {
	for _, text := range []string{explicit, fallback} {
		if text == "" {
			continue
		}
		if freePattern.MatchString(text) {
			return pipeline.Price{IsFree: true, Text: n.cfg.FreeLabel}
		}
		if m := amountRe.FindString(text); m != "" {
			m = usdSymbolRe.ReplaceAllString(m, "USD")
			m = usdWordRe.ReplaceAllString(m, "USD")
			return pipeline.Price{Text: m}
		}
		if text == explicit {
			// An explicit price string that matched nothing is still worth
			// keeping verbatim.
			return pipeline.Price{Text: textutil.Collapse(text)}
		}
	}
	return pipeline.Price{}
}

// locate tries the street address first, the venue name second.
func (n *Normalizer) locate(ctx context.Context, venue pipeline.Venue) *pipeline.LatLng {
	if n.geocoder == nil {
		return nil
	}
	for _, query := range []string{venue.Address, venue.Name} {
		if query == "" {
			continue
		}
		loc, err := n.geocoder.Geocode(ctx, query)
		if err != nil {
			n.logger.Debug("geocode failed", zap.String("query", query), zap.Error(err))
			continue
		}
		if loc != nil {
			return loc
		}
	}
	return nil
}

func (n *Normalizer) translateAI(ctx context.Context, text string) string {
	if text == "" {
		return text
	}
	prompt := "Translate the following event description to Russian, concisely (1-2 sentences):\n" + text
	out, err := n.ai.Complete(ctx, prompt)
	if err != nil || textutil.Collapse(out) == "" {
		if err != nil {
			n.logger.Debug("ai translation failed", zap.Error(err))
		}
		return text
	}
	return textutil.Ellipsize(textutil.Collapse(out), n.cfg.DescriptionMax)
}
