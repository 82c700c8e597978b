// Package app wires all Slidecast subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithTextGen, WithImageSearch). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slidecast/slidecast/internal/config"
	"github.com/slidecast/slidecast/internal/gateway"
	"github.com/slidecast/slidecast/internal/health"
	"github.com/slidecast/slidecast/internal/imageresolve"
	"github.com/slidecast/slidecast/internal/observe"
	"github.com/slidecast/slidecast/internal/pipeline"
	"github.com/slidecast/slidecast/internal/player"
	"github.com/slidecast/slidecast/internal/resilience"
	"github.com/slidecast/slidecast/pkg/provider/imagesearch"
	"github.com/slidecast/slidecast/pkg/provider/textgen"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	// TextGen is the primary text-generation backend. Required.
	TextGen textgen.Provider

	// TextGenFallbacks are tried in order when the primary fails.
	TextGenFallbacks []NamedTextGen

	// ImageSearch is the image search backend. Nil means every slide falls
	// back to static default images.
	ImageSearch imagesearch.Provider
}

// NamedTextGen pairs a fallback provider with its config name for logging
// and circuit-breaker labelling.
type NamedTextGen struct {
	Name     string
	Provider textgen.Provider
}

// App owns all subsystem lifetimes for the Slidecast server.
type App struct {
	cfg       *config.Config
	providers *Providers

	metrics  *observe.Metrics
	pipeline *pipeline.Pipeline
	gateway  *gateway.Handler
	server   *http.Server

	// Config hot reload.
	watchPath   string
	watchOpts   []config.WatcherOption
	logLevelVar *slog.LevelVar

	// closers are called in order during Shutdown.
	closers []func(context.Context) error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithMetrics injects a metrics instance instead of using the global default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithConfigWatch starts a file watcher on the given config path so log
// level, speech, and player settings apply without a restart. Watcher options
// tune the poll interval.
func WithConfigWatch(path string, opts ...config.WatcherOption) Option {
	return func(a *App) {
		a.watchPath = path
		a.watchOpts = opts
	}
}

// WithLogLevelVar hands the app the level var behind the process logger so
// config reloads can adjust verbosity.
func WithLogLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.logLevelVar = v }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry).
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers.TextGen == nil {
		return nil, errors.New("app: a text-generation provider is required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Observability ─────────────────────────────────────────────────
	if a.metrics == nil {
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName: "slidecast",
		})
		if err != nil {
			return nil, fmt.Errorf("app: init telemetry: %w", err)
		}
		a.closers = append(a.closers, shutdown)
		a.metrics = observe.DefaultMetrics()
	}

	// ── 2. Pipeline ──────────────────────────────────────────────────────
	a.pipeline = pipeline.New(
		a.buildTextGen(),
		a.buildResolver(),
		a.pipelineOptions()...,
	)

	// ── 3. Gateway ───────────────────────────────────────────────────────
	a.gateway = gateway.NewHandler(a.pipeline, gateway.Config{
		Language:       cfg.Speech.Language,
		VoiceHint:      cfg.Speech.VoiceHint,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		PlayerOptions:  playerOptionsFrom(cfg.Player),
	}, a.metrics)

	// ── 4. HTTP server ───────────────────────────────────────────────────
	a.server = a.buildServer()

	// ── 5. Config hot reload ─────────────────────────────────────────────
	if a.watchPath != "" {
		watcher, err := config.NewWatcher(a.watchPath, a.applyReload, a.watchOpts...)
		if err != nil {
			return nil, fmt.Errorf("app: watch config: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error {
			watcher.Stop()
			return nil
		})
	}

	return a, nil
}

// applyReload pushes hot-reloadable config changes into the running
// subsystems: logger verbosity immediately, speech and player settings for
// slideshows started after the reload.
func (a *App) applyReload(_, _ *config.Config, diff config.ConfigDiff) {
	if diff.Empty() {
		return
	}
	if diff.LogLevelChanged && a.logLevelVar != nil {
		a.logLevelVar.Set(diff.NewLogLevel.SlogLevel())
		slog.Info("log level updated", "level", diff.NewLogLevel)
	}
	if diff.SpeechChanged {
		a.gateway.SetSpeech(diff.NewSpeech.Language, diff.NewSpeech.VoiceHint)
	}
	if diff.PlayerChanged {
		a.gateway.SetPlayerOptions(playerOptionsFrom(diff.NewPlayer))
	}
}

// buildTextGen composes the primary provider and any fallbacks behind
// per-provider circuit breakers.
func (a *App) buildTextGen() textgen.Provider {
	if len(a.providers.TextGenFallbacks) == 0 {
		return a.providers.TextGen
	}

	fb := resilience.NewTextGenFallback(
		a.providers.TextGen,
		a.cfg.Providers.TextGen.Name,
		resilience.FallbackConfig{},
	)
	for _, entry := range a.providers.TextGenFallbacks {
		fb.AddFallback(entry.Name, entry.Provider)
		slog.Info("registered textgen fallback", "name", entry.Name)
	}
	return fb
}

// buildResolver creates the image resolver over the configured search
// backend. A nil backend still resolves: every slide gets a static default.
func (a *App) buildResolver() *imageresolve.Resolver {
	var opts []imageresolve.Option
	if a.cfg.Pipeline.ImageTimeout.Duration > 0 {
		opts = append(opts, imageresolve.WithRequestTimeout(a.cfg.Pipeline.ImageTimeout.Duration))
	}
	if a.cfg.Pipeline.Prefetch > 0 {
		opts = append(opts, imageresolve.WithPrefetch(a.cfg.Pipeline.Prefetch))
	}
	return imageresolve.New(a.providers.ImageSearch, opts...)
}

func (a *App) pipelineOptions() []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithMetrics(a.metrics)}
	if a.cfg.Pipeline.TargetSlides > 0 {
		opts = append(opts, pipeline.WithTargetSlides(a.cfg.Pipeline.TargetSlides))
	}
	if a.cfg.Pipeline.GenerateTimeout.Duration > 0 {
		opts = append(opts, pipeline.WithGenerateTimeout(a.cfg.Pipeline.GenerateTimeout.Duration))
	}
	return opts
}

func playerOptionsFrom(cfg config.PlayerConfig) []player.Option {
	var opts []player.Option
	if cfg.PostNarrationPause.Duration > 0 {
		opts = append(opts, player.WithPostNarrationPause(cfg.PostNarrationPause.Duration))
	}
	if cfg.FinishPause.Duration > 0 {
		opts = append(opts, player.WithFinishPause(cfg.FinishPause.Duration))
	}
	return opts
}

// buildServer assembles the HTTP mux: health probes, Prometheus metrics, and
// the WebSocket gateway, all behind the tracing middleware.
func (a *App) buildServer() *http.Server {
	mux := http.NewServeMux()

	checks := []health.Checker{
		{Name: "textgen", Check: func(ctx context.Context) error {
			if a.providers.TextGen == nil {
				return errors.New("no text-generation provider")
			}
			return nil
		}},
		{Name: "imagesearch", Check: func(ctx context.Context) error {
			if a.providers.ImageSearch == nil {
				return errors.New("no image search provider; static images only")
			}
			return nil
		}},
	}
	health.New(checks...).Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/ws", a.gateway)

	return &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run serves HTTP and blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("app running", "listen_addr", a.cfg.Server.ListenAddr)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("app: serve: %w", err)
	}
}

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		// Stop accepting connections first. Open WebSockets end when their
		// request contexts are cancelled.
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown error", "err", err)
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
