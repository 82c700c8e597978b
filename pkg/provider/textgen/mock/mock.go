// Package mock provides a test double for the textgen.Provider interface.
//
// Use Provider in unit tests to feed controlled answer text through the
// pipeline and to verify the prompts it sends, without a live backend.
//
// Example:
//
//	p := &mock.Provider{
//	    Result: &textgen.Result{Text: "Step one. Step two."},
//	}
//	res, err := p.Generate(ctx, textgen.Request{Prompt: "explain"})
package mock

import (
	"context"
	"sync"

	"github.com/slidecast/slidecast/pkg/provider/textgen"
)

// GenerateCall records a single invocation of Generate.
type GenerateCall struct {
	// Ctx is the context passed to Generate.
	Ctx context.Context
	// Req is the Request passed to Generate.
	Req textgen.Request
}

// Provider is a mock implementation of textgen.Provider.
// Zero values cause Generate to return nil, nil. Set Err to inject failures.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// Result is returned by Generate. May be nil (returns nil, nil).
	Result *textgen.Result

	// Err, if non-nil, is returned as the error from Generate.
	Err error

	// --- Call records (read after test) ---

	// GenerateCalls records every invocation of Generate in order.
	GenerateCalls []GenerateCall
}

// Generate records the call and returns Result, Err.
func (p *Provider) Generate(ctx context.Context, req textgen.Request) (*textgen.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateCalls = append(p.GenerateCalls, GenerateCall{Ctx: ctx, Req: req})
	return p.Result, p.Err
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateCalls = nil
}

// Ensure Provider implements textgen.Provider at compile time.
var _ textgen.Provider = (*Provider)(nil)
