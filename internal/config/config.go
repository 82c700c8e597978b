// Package config provides the configuration schema, loader, and provider
// registry for the Slidecast server.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps [time.Duration] so YAML values like "30s" or "800ms"
// decode through [time.ParseDuration].
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	if strings.TrimSpace(s) == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML renders the duration back in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

// LogLevel controls log verbosity for the Slidecast server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel converts l to the corresponding [slog.Level]. Unknown values map
// to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure for Slidecast.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Player    PlayerConfig    `yaml:"player"`
	Speech    SpeechConfig    `yaml:"speech"`
}

// ServerConfig holds network and logging settings for the Slidecast server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// AllowedOrigins lists browser origins permitted to open WebSocket
	// connections. Empty means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// backend. Each entry selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	// TextGen is the primary text-generation backend.
	TextGen ProviderEntry `yaml:"textgen"`

	// TextGenFallbacks are tried in order when the primary fails or its
	// circuit breaker is open.
	TextGenFallbacks []ProviderEntry `yaml:"textgen_fallbacks"`

	// ImageSearch is the image search backend.
	ImageSearch ProviderEntry `yaml:"imagesearch"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "gemini", "pixabay").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gemini-1.5-flash").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// PipelineConfig tunes the question-to-slideshow pipeline.
type PipelineConfig struct {
	// TargetSlides is the segment count the pipeline aims for. Default: 8.
	TargetSlides int `yaml:"target_slides"`

	// GenerateTimeout bounds the text-generation stage. Default: 30s.
	GenerateTimeout Duration `yaml:"generate_timeout"`

	// ImageTimeout bounds each image search request. Default: 12s.
	ImageTimeout Duration `yaml:"image_timeout"`

	// Prefetch is the number of concurrent first-variant image searches.
	// Zero disables prefetching.
	Prefetch int `yaml:"prefetch"`
}

// PlayerConfig tunes slideshow playback timing.
type PlayerConfig struct {
	// PostNarrationPause separates narration end from the next slide.
	// Default: 800ms.
	PostNarrationPause Duration `yaml:"post_narration_pause"`

	// FinishPause delays the finished state after the last caption.
	// Default: 1s.
	FinishPause Duration `yaml:"finish_pause"`
}

// SpeechConfig selects the narration voice offered to browsers.
type SpeechConfig struct {
	// Language is the BCP-47 prefix preferred for narration (e.g., "en-US").
	Language string `yaml:"language"`

	// VoiceHint optionally biases voice selection towards a named voice.
	// Matching is fuzzy, so partial names work.
	VoiceHint string `yaml:"voice_hint"`
}
