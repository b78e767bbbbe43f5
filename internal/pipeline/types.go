// Package pipeline defines core types shared across the ingestion subsystems.
package pipeline

import "time"

// Kind tells the engine which parsing strategy applies to a source.
type Kind string

// Source kinds inferred from the URL shape.
const (
	KindFeed     Kind = "feed"
	KindCalendar Kind = "calendar"
	KindPage     Kind = "page"
)

// Source is one external URL the pipeline reads from. Sources are supplied
// by the registry and are read-only for the duration of a run.
type Source struct {
	URL  string
	Kind Kind
}

// Venue is a best-effort place description. Either field may be empty.
type Venue struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// LatLng is a geocoded position.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Price describes the cost of attending an event. IsFree=true implies Text
// holds the canned free label; otherwise Text is a best-effort extracted
// amount or empty.
type Price struct {
	IsFree bool   `json:"is_free"`
	Text   string `json:"text"`
}

// RawEvent is the loosely validated record every parser produces. End is a
// pointer so "the source gave no end" is distinguishable from a zero time;
// normalization fills the default duration later.
type RawEvent struct {
	Title       string
	Description string
	URL         string
	Start       time.Time
	End         *time.Time
	Venue       Venue
	// PriceText carries an explicit price string when a parser found one
	// (only the page extractor does); empty means no per-element price and
	// normalization infers the price from the record's text instead.
	PriceText string
}

// CanonicalEvent is the normalized, persisted unit. Instances are created
// fresh each run; the emitted artifacts are the only store.
type CanonicalEvent struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Start       ISOTime  `json:"start"`
	End         ISOTime  `json:"end"`
	Venue       Venue    `json:"venue"`
	Location    *LatLng  `json:"location"`
	Tags        []string `json:"tags"`
	Price       Price    `json:"price"`
}

// ISOTime marshals as an RFC 3339 UTC timestamp.
type ISOTime struct {
	time.Time
}

// NewISOTime converts t to UTC and wraps it.
func NewISOTime(t time.Time) ISOTime {
	return ISOTime{t.UTC()}
}

// MarshalJSON renders the timestamp as a quoted RFC 3339 string.
func (t ISOTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON parses a quoted RFC 3339 string.
func (t *ISOTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	t.Time = parsed.UTC()
	return nil
}
