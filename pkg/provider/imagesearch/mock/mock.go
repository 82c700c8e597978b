// Package mock provides a test double for the imagesearch.Provider interface.
//
// Use Provider to feed controlled candidate lists per query and to verify
// which queries the resolver issued and in what order.
//
// Example:
//
//	p := &mock.Provider{
//	    Results: map[string][]imagesearch.Candidate{
//	        "bike chain repair": {{URL: "https://img/1.jpg", Tags: "bike, chain"}},
//	    },
//	}
//	got, _ := p.Search(ctx, "bike chain repair", imagesearch.Filters{})
package mock

import (
	"context"
	"sync"

	"github.com/slidecast/slidecast/pkg/provider/imagesearch"
)

// SearchCall records a single invocation of Search.
type SearchCall struct {
	// Ctx is the context passed to Search.
	Ctx context.Context
	// Query is the query string passed to Search.
	Query string
	// Filters is the filter set passed to Search.
	Filters imagesearch.Filters
}

// Provider is a mock implementation of imagesearch.Provider.
// Zero values cause Search to return no candidates and a nil error.
type Provider struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// Results maps exact query strings to the candidates returned for them.
	// Queries with no entry fall back to Default.
	Results map[string][]imagesearch.Candidate

	// Default is returned for queries not present in Results.
	Default []imagesearch.Candidate

	// Err, if non-nil, is returned from every Search call.
	Err error

	// --- Call records (read after test) ---

	// SearchCalls records every invocation of Search in order.
	SearchCalls []SearchCall
}

// Search records the call and returns the configured candidates for query.
func (p *Provider) Search(ctx context.Context, query string, f imagesearch.Filters) ([]imagesearch.Candidate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SearchCalls = append(p.SearchCalls, SearchCall{Ctx: ctx, Query: query, Filters: f})
	if p.Err != nil {
		return nil, p.Err
	}
	if res, ok := p.Results[query]; ok {
		out := make([]imagesearch.Candidate, len(res))
		copy(out, res)
		return out, nil
	}
	out := make([]imagesearch.Candidate, len(p.Default))
	copy(out, p.Default)
	return out, nil
}

// Queries returns the queries issued so far, in order. Thread-safe.
func (p *Provider) Queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.SearchCalls))
	for i, c := range p.SearchCalls {
		out[i] = c.Query
	}
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SearchCalls = nil
}

// Ensure Provider implements imagesearch.Provider at compile time.
var _ imagesearch.Provider = (*Provider)(nil)
