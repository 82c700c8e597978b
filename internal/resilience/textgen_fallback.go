package resilience

import (
	"context"

	"github.com/slidecast/slidecast/pkg/provider/textgen"
)

// TextGenFallback implements [textgen.Provider] with automatic failover
// across multiple generation backends. Each backend has its own circuit
// breaker; when the primary fails or its breaker is open, the next healthy
// fallback is tried.
type TextGenFallback struct {
	group *FallbackGroup[textgen.Provider]
}

// Compile-time interface assertion.
var _ textgen.Provider = (*TextGenFallback)(nil)

// NewTextGenFallback creates a [TextGenFallback] with primary as the
// preferred backend.
func NewTextGenFallback(primary textgen.Provider, primaryName string, cfg FallbackConfig) *TextGenFallback {
	return &TextGenFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional generation provider as a fallback.
func (f *TextGenFallback) AddFallback(name string, provider textgen.Provider) {
	f.group.AddFallback(name, provider)
}

// Generate sends the request to the first healthy provider and returns its
// result. If the primary fails, subsequent fallbacks are tried.
func (f *TextGenFallback) Generate(ctx context.Context, req textgen.Request) (*textgen.Result, error) {
	return ExecuteWithResult(f.group, func(p textgen.Provider) (*textgen.Result, error) {
		return p.Generate(ctx, req)
	})
}
