// Package config handles loading and validating the voxcue CLI's
// configuration, following the viper-backed pattern in
// nadzzz-switchyard's internal/config/config.go.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for the voxcue CLI.
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers"`
	Mixer     MixerConfig     `mapstructure:"mixer"`
	SSML      SSMLConfig      `mapstructure:"ssml"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ProvidersConfig configures each registered synthesis backend.
type ProvidersConfig struct {
	HTTP []HTTPProviderConfig `mapstructure:"http"`
	WS   []WSProviderConfig   `mapstructure:"ws"`
}

// HTTPProviderConfig configures one httpvoice.Backend.
type HTTPProviderConfig struct {
	Name              string `mapstructure:"name"`
	BaseURL           string `mapstructure:"base_url"`
	APIKey            string `mapstructure:"api_key"`
	SupportsEmotions  bool   `mapstructure:"supports_emotions"`
	RateLimitPerSec   int    `mapstructure:"rate_limit_per_sec"`
	VoiceCacheTTLSecs int    `mapstructure:"voice_cache_ttl_secs"`
}

// WSProviderConfig configures one wsvoice.Backend.
type WSProviderConfig struct {
	Name             string `mapstructure:"name"`
	URL              string `mapstructure:"url"`
	APIKey           string `mapstructure:"api_key"`
	SupportsEmotions bool   `mapstructure:"supports_emotions"`
	MaxRetries       int    `mapstructure:"max_retries"`
}

// MixerConfig mirrors mixer.Options.
type MixerConfig struct {
	Normalize        bool    `mapstructure:"normalize"`
	CompressionLevel float64 `mapstructure:"compression_level"`
	CrossfadeMs      int64   `mapstructure:"crossfade_ms"`
	MasterVolume     float64 `mapstructure:"master_volume"`
}

// SSMLConfig mirrors ssml.Options.
type SSMLConfig struct {
	Deterministic     bool     `mapstructure:"deterministic"`
	Seed              int64    `mapstructure:"seed"`
	EmphasisStyle     float64  `mapstructure:"emphasis_style"`
	Catchphrases      []string `mapstructure:"catchphrases"`
	FillerWords       []string `mapstructure:"filler_words"`
	FillerProbability float64  `mapstructure:"filler_probability"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	ListenAddr  string `mapstructure:"listen_addr"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./voxcue.yaml, ./configs/voxcue.yaml, /etc/voxcue/voxcue.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("mixer.normalize", true)
	v.SetDefault("mixer.compression_level", 0.0)
	v.SetDefault("mixer.crossfade_ms", 0)
	v.SetDefault("mixer.master_volume", 1.0)
	v.SetDefault("ssml.deterministic", true)
	v.SetDefault("ssml.seed", 1)
	v.SetDefault("ssml.filler_probability", 0.0)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.service_name", "voxcue")
	v.SetDefault("metrics.listen_addr", ":9090")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("voxcue")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/voxcue")
	}

	v.SetEnvPrefix("VOXCUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	for i := range cfg.Providers.HTTP {
		cfg.Providers.HTTP[i].APIKey = resolveEnvRef(cfg.Providers.HTTP[i].APIKey)
	}
	for i := range cfg.Providers.WS {
		cfg.Providers.WS[i].APIKey = resolveEnvRef(cfg.Providers.WS[i].APIKey)
	}

	return &cfg, nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env
// var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on cfg.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
