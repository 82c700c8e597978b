// Package pipeline turns a free-form question into a narrated slideshow.
//
// A question flows through four stages: text generation (an LLM writes a
// step-by-step explanation), segmentation (the explanation becomes short
// captions), keyword extraction (each caption becomes a search phrase), and
// image resolution (each phrase becomes an image URL). Only the generation
// stage can fail the pipeline; every later stage degrades instead of
// erroring, so a generated explanation always becomes a complete slideshow.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/slidecast/slidecast/internal/imageresolve"
	"github.com/slidecast/slidecast/internal/keyword"
	"github.com/slidecast/slidecast/internal/observe"
	"github.com/slidecast/slidecast/internal/segment"
	"github.com/slidecast/slidecast/internal/topic"
	"github.com/slidecast/slidecast/pkg/provider/textgen"
	"github.com/slidecast/slidecast/pkg/types"
)

// explainerPrompt wraps the user's question with instructions that shape the
// generated text for segmentation: short concrete segments, each focused on
// one photographable step, tool, or component.
const explainerPrompt = `Create a detailed, step-by-step visual explanation about: %s.

Structure your response in exactly 6-8 clear segments. Each segment should:
1. Be 1-2 sentences maximum (under 120 characters each)
2. Focus on a specific step, tool, or component that can be clearly illustrated
3. Use concrete, specific terminology (mention exact tools, parts, actions)
4. Be practical and actionable
5. Include visual elements that can be photographed or illustrated

Make each segment focus on different visual aspects like tools, parts, steps, or techniques. Keep the explanation practical and visual.`

const (
	// defaultTargetSlides is the segment count the pipeline aims for.
	defaultTargetSlides = 8

	// defaultGenerateTimeout bounds the text-generation stage.
	defaultGenerateTimeout = 30 * time.Second

	// generateTemperature and generateMaxTokens match the explainer prompt:
	// enough creative range for natural instructions, bounded output so the
	// response stays segmentable.
	generateTemperature = 0.7
	generateMaxTokens   = 1000
)

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithTargetSlides overrides the segment count the pipeline aims for.
// Default: 8.
func WithTargetSlides(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.target = n
		}
	}
}

// WithGenerateTimeout bounds the text-generation stage. Default: 30s.
func WithGenerateTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.generateTimeout = d
		}
	}
}

// WithMetrics sets the metrics instance used for stage instrumentation.
// Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline orchestrates the question-to-slideshow stages. It is stateless
// between runs and safe for concurrent use.
type Pipeline struct {
	generator textgen.Provider
	resolver  *imageresolve.Resolver

	target          int
	generateTimeout time.Duration
	metrics         *observe.Metrics
}

// New creates a Pipeline. generator produces the explanation text and
// resolver maps search phrases to image URLs.
func New(generator textgen.Provider, resolver *imageresolve.Resolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		generator:       generator,
		resolver:        resolver,
		target:          defaultTargetSlides,
		generateTimeout: defaultGenerateTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Run generates a slideshow for the given question. The returned slides are
// ordered, each with a non-empty image URL and a caption of at most 120
// characters. Run fails only when text generation fails; image problems are
// absorbed by the resolver's fallback chain.
func (p *Pipeline) Run(ctx context.Context, question string) ([]types.Slide, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.run")
	defer span.End()

	start := time.Now()
	log := observe.Logger(ctx)

	text, err := p.generate(ctx, question)
	if err != nil {
		p.metrics.RecordQuestion(ctx, string(topic.Classify(question)), "error")
		return nil, fmt.Errorf("pipeline: generate explanation: %w", err)
	}

	captions := segment.Split(text, p.target)
	phrases := keyword.Extract(captions, question)

	images, stats := p.resolve(ctx, phrases, question)

	slides := make([]types.Slide, len(captions))
	for i, caption := range captions {
		slides[i] = types.Slide{
			Image:   images[i],
			Caption: caption,
		}
		if i < len(phrases) && phrases[i] != "" {
			slides[i].Keywords = []string{phrases[i]}
		}
	}

	searched := len(slides) - stats.FillAssigned - stats.StaticAssigned
	p.metrics.RecordImageFill(ctx, "search", int64(searched))
	p.metrics.RecordImageFill(ctx, "fill", int64(stats.FillAssigned))
	p.metrics.RecordImageFill(ctx, "static", int64(stats.StaticAssigned))
	p.metrics.RecordQuestion(ctx, string(topic.Classify(question)), "ok")
	p.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())

	log.Info("slideshow generated",
		"slides", len(slides),
		"queries", stats.Queries,
		"fill_images", stats.FillAssigned,
		"static_images", stats.StaticAssigned,
		"duration", time.Since(start))
	return slides, nil
}

// generate runs the text-generation stage under its own timeout.
func (p *Pipeline) generate(ctx context.Context, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.generateTimeout)
	defer cancel()

	start := time.Now()
	res, err := p.generator.Generate(ctx, textgen.Request{
		Prompt:      fmt.Sprintf(explainerPrompt, question),
		Temperature: generateTemperature,
		MaxTokens:   generateMaxTokens,
	})
	p.metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordProviderError(ctx, "textgen", "generate")
		return "", err
	}
	p.metrics.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		observe.Attr("provider", res.Model),
		observe.Attr("kind", "textgen"),
		observe.Attr("status", "ok"),
	))
	return res.Text, nil
}

// resolve runs the image-resolution stage and records its latency.
func (p *Pipeline) resolve(ctx context.Context, phrases []string, question string) ([]string, imageresolve.Stats) {
	start := time.Now()
	images, stats := p.resolver.Resolve(ctx, phrases, question)
	p.metrics.ImageResolveDuration.Record(ctx, time.Since(start).Seconds())
	return images, stats
}
