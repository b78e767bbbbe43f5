package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob that influences a pipeline run. All values
// originate from Viper so the pipeline can be configured via files, env
// vars, or CLI flags.
type Config struct {
	SourcesFile     string
	OutputDir       string
	UserAgent       string
	RequestTimeout  time.Duration
	MaxBodyBytes    int64
	Concurrency     int
	ProxyPrefix     string
	GraceWindow     time.Duration
	DefaultDuration time.Duration
	MaxEvents       int
	DescriptionMax  int
	PageLookahead   time.Duration
	MinTitleLen     int

	PageStrategy string // "dom" or "assist"

	RenderEnabled        bool
	RenderTimeout        time.Duration
	RenderMaxConcurrency int
	RenderDomainQPS      float64
	DetectorMinHTMLBytes int
	DetectorKeywords     []string

	GeocodeKey      string
	GeocodeSuffix   string
	GeocodeRegion   string
	GeocodeLanguage string
	GeocodeQPS      float64

	AIBaseURL string
	AIKey     string
	AIModel   string
	AIQPS     float64

	TranslateEnabled    bool
	TranslateDictionary map[string]string
	FreeLabel           string
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		SourcesFile:     v.GetString("pipeline.sources_file"),
		OutputDir:       v.GetString("pipeline.output_dir"),
		UserAgent:       v.GetString("pipeline.user_agent"),
		RequestTimeout:  v.GetDuration("pipeline.request_timeout"),
		MaxBodyBytes:    v.GetInt64("pipeline.max_body_bytes"),
		Concurrency:     v.GetInt("pipeline.concurrency"),
		ProxyPrefix:     v.GetString("pipeline.proxy_prefix"),
		GraceWindow:     v.GetDuration("pipeline.grace_window"),
		DefaultDuration: v.GetDuration("pipeline.default_duration"),
		MaxEvents:       v.GetInt("pipeline.max_events"),
		DescriptionMax:  v.GetInt("pipeline.description_max_chars"),
		PageLookahead:   v.GetDuration("pipeline.page_lookahead"),
		MinTitleLen:     v.GetInt("pipeline.min_title_len"),

		PageStrategy: strings.ToLower(v.GetString("page.strategy")),

		RenderEnabled:        v.GetBool("render.enabled"),
		RenderTimeout:        v.GetDuration("render.timeout"),
		RenderMaxConcurrency: v.GetInt("render.max_concurrency"),
		RenderDomainQPS:      v.GetFloat64("render.domain_qps"),
		DetectorMinHTMLBytes: v.GetInt("detector.min_html_bytes"),
		DetectorKeywords:     v.GetStringSlice("detector.keywords"),

		GeocodeKey:      v.GetString("geocode.key"),
		GeocodeSuffix:   v.GetString("geocode.city_suffix"),
		GeocodeRegion:   v.GetString("geocode.region"),
		GeocodeLanguage: v.GetString("geocode.language"),
		GeocodeQPS:      v.GetFloat64("geocode.qps"),

		AIBaseURL: v.GetString("ai.base_url"),
		AIKey:     v.GetString("ai.key"),
		AIModel:   v.GetString("ai.model"),
		AIQPS:     v.GetFloat64("ai.qps"),

		TranslateEnabled:    v.GetBool("translate.enabled"),
		TranslateDictionary: v.GetStringMapString("translate.dictionary"),
		FreeLabel:           v.GetString("pipeline.free_label"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.SourcesFile == "" {
		return fmt.Errorf("pipeline.sources_file must be set")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("pipeline.output_dir must be set")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("pipeline.user_agent must be set")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("pipeline.request_timeout must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("pipeline.max_body_bytes must be > 0")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be > 0")
	}
	if c.GraceWindow < 0 {
		return fmt.Errorf("pipeline.grace_window must be >= 0")
	}
	if c.DefaultDuration <= 0 {
		return fmt.Errorf("pipeline.default_duration must be > 0")
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("pipeline.max_events must be > 0")
	}
	if c.DescriptionMax <= 0 {
		return fmt.Errorf("pipeline.description_max_chars must be > 0")
	}
	if c.PageStrategy != "dom" && c.PageStrategy != "assist" {
		return fmt.Errorf("page.strategy must be %q or %q, got %q", "dom", "assist", c.PageStrategy)
	}
	if c.RenderEnabled && c.RenderMaxConcurrency <= 0 {
		return fmt.Errorf("render.max_concurrency must be > 0 when rendering is enabled")
	}
	if c.GeocodeQPS < 0 || c.AIQPS < 0 || c.RenderDomainQPS < 0 {
		return fmt.Errorf("qps values must be >= 0")
	}
	return nil
}
