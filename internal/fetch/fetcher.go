// Package fetch implements resilient retrieval of source URLs.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/cartelera/cartelera/internal/pipeline"
	"github.com/cartelera/cartelera/internal/telemetry"
)

// Config controls fetcher behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
	// ProxyPrefix is prepended to the target URL to route the retry through
	// the readability proxy. Empty disables the fallback tier.
	ProxyPrefix string
}

// Fetcher retrieves URLs with an explicit two-step strategy: a direct GET,
// then a single retry through the readability proxy. Source loss is
// tolerated, not escalated, so both steps failing yields an error the
// caller maps to zero events.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger

	// Renderer upgrades JS-shell pages when configured. Optional.
	renderer Renderer
	detector *Detector
}

// Renderer executes a page with JavaScript enabled and returns the DOM
// snapshot.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

type step struct {
	via pipeline.Transport
	url string
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	base := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: base,
		logger:        logger,
	}
}

// WithRenderer attaches an optional headless renderer and its promotion
// detector.
func (f *Fetcher) WithRenderer(r Renderer, d *Detector) *Fetcher {
	f.renderer = r
	f.detector = d
	return f
}

// Fetch tries the direct transport, then the readability proxy. The body is
// truncated to MaxBodyBytes before decoding to text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (pipeline.Fetched, error) {
	steps := []step{{via: pipeline.TransportDirect, url: rawURL}}
	if f.cfg.ProxyPrefix != "" {
		steps = append(steps, step{via: pipeline.TransportReadability, url: f.cfg.ProxyPrefix + rawURL})
	}

	var lastErr error
	for _, s := range steps {
		body, err := f.fetchOnce(ctx, s.url)
		if err != nil {
			lastErr = err
			f.logger.Warn("fetch attempt failed",
				zap.String("url", rawURL),
				zap.String("transport", string(s.via)),
				zap.Error(err),
			)
			continue
		}
		if s.via != pipeline.TransportDirect {
			telemetry.ObserveFallback(string(s.via))
		}
		return pipeline.Fetched{Body: body, Via: s.via}, nil
	}
	return pipeline.Fetched{}, fmt.Errorf("all transports failed for %s: %w", rawURL, lastErr)
}

// FetchPage behaves like Fetch but may promote the result to a headless
// render when the body looks like a JS shell. Render failure falls back to
// the already fetched body.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (pipeline.Fetched, error) {
	res, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return pipeline.Fetched{}, err
	}
	if f.renderer == nil || f.detector == nil || res.Via != pipeline.TransportDirect {
		return res, nil
	}
	if !f.detector.NeedsJS(res.Body) {
		return res, nil
	}
	rendered, rerr := f.renderer.Render(ctx, rawURL)
	if rerr != nil {
		f.logger.Warn("headless promotion failed", zap.String("url", rawURL), zap.Error(rerr))
		return res, nil
	}
	telemetry.ObserveFallback(string(pipeline.TransportHeadless))
	return pipeline.Fetched{Body: f.truncate(rendered), Via: pipeline.TransportHeadless}, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	collector := f.baseCollector.Clone()
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		body     []byte
		status   int
		fetchErr error
		once     sync.Once
	)
	collector.OnResponse(func(r *colly.Response) {
		once.Do(func() {
			status = r.StatusCode
			body = append([]byte(nil), r.Body...)
		})
	})
	collector.OnError(func(r *colly.Response, err error) {
		once.Do(func() {
			if r != nil {
				status = r.StatusCode
			}
			if err == nil {
				err = errors.New("unknown collector error")
			}
			fetchErr = err
		})
	})

	done := make(chan error, 1)
	go func() {
		verr := collector.Visit(url)
		collector.Wait()
		done <- verr
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("fetch canceled: %w", ctx.Err())
	case verr := <-done:
		switch {
		case fetchErr != nil:
			return "", fmt.Errorf("http %d: %w", status, fetchErr)
		case verr != nil:
			return "", fmt.Errorf("visit %s: %w", url, verr)
		case status < 200 || status >= 300:
			return "", fmt.Errorf("unexpected status %d", status)
		}
		return f.truncate(string(body)), nil
	}
}

func (f *Fetcher) truncate(body string) string {
	if f.cfg.MaxBodyBytes > 0 && int64(len(body)) > f.cfg.MaxBodyBytes {
		return body[:f.cfg.MaxBodyBytes]
	}
	return body
}
