// Command slidecast is the main entry point for the Slidecast explainer server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/slidecast/slidecast/internal/app"
	"github.com/slidecast/slidecast/internal/config"
	"github.com/slidecast/slidecast/pkg/provider/imagesearch"
	"github.com/slidecast/slidecast/pkg/provider/imagesearch/pixabay"
	"github.com/slidecast/slidecast/pkg/provider/textgen"
	"github.com/slidecast/slidecast/pkg/provider/textgen/anyllm"
	"github.com/slidecast/slidecast/pkg/provider/textgen/gemini"
	oaitextgen "github.com/slidecast/slidecast/pkg/provider/textgen/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "slidecast: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "slidecast: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	levelVar := new(slog.LevelVar)
	levelVar.Set(cfg.Server.LogLevel.SlogLevel())
	slog.SetDefault(newLogger(levelVar))

	slog.Info("slidecast starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, providers,
		app.WithLogLevelVar(levelVar),
		app.WithConfigWatch(*configPath),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
// Each factory receives a config.ProviderEntry and constructs the appropriate
// provider from the real implementation packages.
func registerBuiltinProviders(reg *config.Registry) {
	// ── Text generation ───────────────────────────────────────────────────────

	// gemini talks to the Generative Language REST API directly.
	reg.RegisterTextGen("gemini", func(entry config.ProviderEntry) (textgen.Provider, error) {
		var opts []gemini.Option
		if entry.Model != "" {
			opts = append(opts, gemini.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(entry.BaseURL))
		}
		return gemini.New(entry.APIKey, opts...)
	})

	// openai uses the official SDK.
	reg.RegisterTextGen("openai", func(entry config.ProviderEntry) (textgen.Provider, error) {
		var opts []oaitextgen.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaitextgen.WithBaseURL(entry.BaseURL))
		}
		return oaitextgen.New(entry.APIKey, entry.Model, opts...)
	})

	// The remaining backends share the any-llm adapter: optional APIKey +
	// optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterTextGen(providerName, func(entry config.ProviderEntry) (textgen.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterTextGen("ollama", func(entry config.ProviderEntry) (textgen.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── Image search ──────────────────────────────────────────────────────────

	reg.RegisterImageSearch("pixabay", func(entry config.ProviderEntry) (imagesearch.Provider, error) {
		var opts []pixabay.Option
		if entry.BaseURL != "" {
			opts = append(opts, pixabay.WithBaseURL(entry.BaseURL))
		}
		return pixabay.New(entry.APIKey, opts...)
	})
}

// buildProviders instantiates all providers named in cfg using the registry
// and returns them in an [app.Providers] struct for the application to consume.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	p, err := reg.CreateTextGen(cfg.Providers.TextGen)
	if err != nil {
		return nil, fmt.Errorf("create textgen provider %q: %w", cfg.Providers.TextGen.Name, err)
	}
	ps.TextGen = p
	slog.Info("provider created", "kind", "textgen", "name", cfg.Providers.TextGen.Name)

	for _, entry := range cfg.Providers.TextGenFallbacks {
		fb, err := reg.CreateTextGen(entry)
		if err != nil {
			return nil, fmt.Errorf("create textgen fallback %q: %w", entry.Name, err)
		}
		ps.TextGenFallbacks = append(ps.TextGenFallbacks, app.NamedTextGen{Name: entry.Name, Provider: fb})
		slog.Info("provider created", "kind", "textgen-fallback", "name", entry.Name)
	}

	if name := cfg.Providers.ImageSearch.Name; name != "" {
		img, err := reg.CreateImageSearch(cfg.Providers.ImageSearch)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not yet implemented — skipping", "kind", "imagesearch", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create imagesearch provider %q: %w", name, err)
		} else {
			ps.ImageSearch = img
			slog.Info("provider created", "kind", "imagesearch", "name", name)
		}
	}

	return ps, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Slidecast — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("TextGen", cfg.Providers.TextGen.Name, cfg.Providers.TextGen.Model)
	for _, fb := range cfg.Providers.TextGenFallbacks {
		printProvider("  fallback", fb.Name, fb.Model)
	}
	printProvider("ImageSearch", cfg.Providers.ImageSearch.Name, "")
	if cfg.Speech.Language != "" {
		fmt.Printf("║  Narration       : %-19s ║\n", cfg.Speech.Language)
	}
	if cfg.Server.ListenAddr != "" {
		fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

// newLogger builds the process logger around a level var so config reloads
// can adjust verbosity at runtime.
func newLogger(level *slog.LevelVar) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
