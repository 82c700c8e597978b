// Package textgen defines the Provider interface for text-generation
// backends.
//
// A provider wraps a language-model API (Gemini's REST endpoint, OpenAI, or
// any backend reachable through any-llm-go) and turns a single prompt into a
// single block of answer text. The slideshow pipeline treats generation as
// all-or-nothing: any failure here aborts the conversation turn, so providers
// wrap their errors in [ErrGeneration] rather than inventing partial results.
//
// Implementations must be safe for concurrent use.
package textgen

import (
	"context"
	"errors"
)

// ErrGeneration marks any text-generation failure: backend unreachable,
// rate-limited, non-2xx status, or a response with no usable text. Callers
// test with errors.Is and surface a fixed apology instead of a slideshow.
var ErrGeneration = errors.New("text generation failed")

// Request carries everything the backend needs to produce an answer.
type Request struct {
	// Prompt is the full instruction text, including any structuring
	// directives the caller wraps around the user's question.
	Prompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero means use
	// the provider default.
	Temperature float64

	// MaxTokens caps the generated length. Zero means provider default.
	MaxTokens int
}

// Result is the backend's answer.
type Result struct {
	// Text is the raw generated answer. Always non-empty on success.
	Text string

	// Model identifies the model that produced the answer, when known.
	Model string
}

// Provider is the abstraction over any text-generation backend.
//
// Generate returns a non-empty Result or an error wrapping [ErrGeneration].
// Implementations must respect context cancellation and be safe for
// concurrent use.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
