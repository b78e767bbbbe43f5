package pipeline

import (
	"context"
	"time"
)

// Transport records which tier of the fetch strategy produced a body.
type Transport string

// Fetch transports, in escalation order.
const (
	TransportDirect      Transport = "direct"
	TransportReadability Transport = "readability"
	TransportHeadless    Transport = "headless"
)

// Fetched is the result of a successful retrieval.
type Fetched struct {
	Body string
	Via  Transport
}

// Fetcher retrieves a URL, capping the body size. Every transport failure
// surfaces as an error; callers translate errors into zero events.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Fetched, error)
}

// Parser turns fetched source content into raw events. Malformed content
// yields zero events, never an error that aborts the run.
type Parser interface {
	Parse(ctx context.Context, src Source, body string) []RawEvent
}

// Normalizer converts a raw event into its canonical form. Every sub-step
// degrades to a default value rather than failing the record.
type Normalizer interface {
	Normalize(ctx context.Context, raw RawEvent) CanonicalEvent
}

// Geocoder resolves a free-text place query to coordinates. A nil result
// with a nil error means the query did not resolve.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*LatLng, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
