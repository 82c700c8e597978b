package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"textgen":     {"gemini", "openai", "anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"imagesearch": {"pixabay"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Provider names: warn for unknown ones, they may be typos.
	validateProviderName("textgen", cfg.Providers.TextGen.Name)
	for _, fb := range cfg.Providers.TextGenFallbacks {
		validateProviderName("textgen", fb.Name)
	}
	validateProviderName("imagesearch", cfg.Providers.ImageSearch.Name)

	// Provider availability warnings
	if cfg.Providers.TextGen.Name == "" {
		errs = append(errs, errors.New("providers.textgen.name is required; questions cannot be answered without a text-generation backend"))
	}
	for i, fb := range cfg.Providers.TextGenFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.textgen_fallbacks[%d].name is required", i))
		}
	}
	if cfg.Providers.ImageSearch.Name == "" {
		slog.Warn("providers.imagesearch is not configured; every slide will use static default images")
	}

	// Pipeline
	if cfg.Pipeline.TargetSlides < 0 {
		errs = append(errs, fmt.Errorf("pipeline.target_slides %d must not be negative", cfg.Pipeline.TargetSlides))
	}
	if cfg.Pipeline.GenerateTimeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("pipeline.generate_timeout %s must not be negative", cfg.Pipeline.GenerateTimeout))
	}
	if cfg.Pipeline.ImageTimeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("pipeline.image_timeout %s must not be negative", cfg.Pipeline.ImageTimeout))
	}
	if cfg.Pipeline.Prefetch < 0 {
		errs = append(errs, fmt.Errorf("pipeline.prefetch %d must not be negative", cfg.Pipeline.Prefetch))
	}

	// Player
	if cfg.Player.PostNarrationPause.Duration < 0 {
		errs = append(errs, fmt.Errorf("player.post_narration_pause %s must not be negative", cfg.Player.PostNarrationPause))
	}
	if cfg.Player.FinishPause.Duration < 0 {
		errs = append(errs, fmt.Errorf("player.finish_pause %s must not be negative", cfg.Player.FinishPause))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
