// Package config initializes the application's configuration. It uses the
// Viper library to read settings from a config file, environment variables,
// and command-line flags, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InitConfig initializes the application's configuration using Viper. It
// sets up default values, defines configuration search paths, and enables
// reading from environment variables. Designed to be called once at
// application startup.
func InitConfig(cfgFile string, logger *zap.Logger) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/cartelera/")
		viper.AddConfigPath("$HOME/.cartelera")
	}

	const defaultUA = "cartelera/1.0 (+https://github.com/cartelera/cartelera)"
	viper.SetDefault("pipeline.sources_file", "sources.txt")
	viper.SetDefault("pipeline.output_dir", "data")
	viper.SetDefault("pipeline.user_agent", defaultUA)
	viper.SetDefault("pipeline.request_timeout", "20s")
	viper.SetDefault("pipeline.max_body_bytes", 900_000)
	viper.SetDefault("pipeline.concurrency", 4)
	viper.SetDefault("pipeline.proxy_prefix", "https://r.jina.ai/")
	viper.SetDefault("pipeline.grace_window", "30m")
	viper.SetDefault("pipeline.default_duration", "3h")
	viper.SetDefault("pipeline.max_events", 50)
	viper.SetDefault("pipeline.description_max_chars", 220)
	viper.SetDefault("pipeline.page_lookahead", "720h")
	viper.SetDefault("pipeline.min_title_len", 4)
	viper.SetDefault("pipeline.free_label", "Free")

	viper.SetDefault("page.strategy", "dom")

	viper.SetDefault("render.enabled", false)
	viper.SetDefault("render.timeout", "15s")
	viper.SetDefault("render.max_concurrency", 2)
	viper.SetDefault("render.domain_qps", 0.5)
	viper.SetDefault("detector.min_html_bytes", 2000)
	viper.SetDefault("detector.keywords", []string{
		"__NEXT_DATA__",
		"data-reactroot",
		"ng-app",
		"window.__APOLLO_STATE__",
	})

	viper.SetDefault("geocode.key", "")
	viper.SetDefault("geocode.city_suffix", ", Buenos Aires, Argentina")
	viper.SetDefault("geocode.region", "ar")
	viper.SetDefault("geocode.language", "es")
	viper.SetDefault("geocode.qps", 5.0)

	viper.SetDefault("ai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.key", "")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.qps", 1.0)

	viper.SetDefault("translate.enabled", false)
	viper.SetDefault("translate.dictionary", map[string]string{})

	viper.SetEnvPrefix("CARTELERA") // e.g., CARTELERA_GEOCODE_KEY=...
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logger.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logger.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
