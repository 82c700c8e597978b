// Package imageresolve turns search phrases into one image URL per slide.
//
// Resolution is a cascading fallback chain. For each phrase the resolver
// tries an ordered list of query variants (most specific first), scores every
// candidate the backend returns, and claims the best-scoring URL not already
// used by an earlier slide in the batch. Slides still empty after the
// per-phrase pass are filled from a fixed sequence of increasingly generic
// fallback queries, and anything left over gets a static topic-keyed default
// URL. The returned list therefore never contains an empty slot: a total
// backend outage degrades to 100% static defaults, never an error.
//
// The claim set that enforces batch-wide de-duplication is created per
// Resolve call and threaded through every step; nothing is shared between
// runs.
package imageresolve

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/slidecast/slidecast/internal/topic"
	"github.com/slidecast/slidecast/pkg/provider/imagesearch"
)

// searchFilters is the fixed filter set applied to every backend query:
// photo-only, a safe category allowlist, slide-worthy resolution, safe
// search, most popular first.
var searchFilters = imagesearch.Filters{
	ImageType:  "photo",
	Categories: "industry,transportation,science,education",
	MinWidth:   800,
	MinHeight:  600,
	SafeSearch: true,
	Order:      "popular",
	PerPage:    20,
}

const defaultRequestTimeout = 12 * time.Second

// Stats summarises one Resolve run for observability.
type Stats struct {
	// Queries is the number of backend searches issued.
	Queries int

	// FillAssigned counts slots filled by the generic fill pass.
	FillAssigned int

	// StaticAssigned counts slots that fell through to static default URLs.
	StaticAssigned int
}

// Option is a functional option for configuring a Resolver.
type Option func(*Resolver)

// WithRequestTimeout bounds each backend search. Default: 12s. Timeouts are
// treated like any other backend failure: no results for that variant.
func WithRequestTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.requestTimeout = d }
}

// WithPrefetch enables concurrent prefetching of each slide's first query
// variant, with at most limit fetches in flight. Selection and URL claiming
// remain serialised in slide order, so results are identical to the
// sequential path. Zero disables prefetching.
func WithPrefetch(limit int) Option {
	return func(r *Resolver) { r.prefetchLimit = limit }
}

// Resolver resolves search phrases to image URLs against one backend.
// It is stateless between Resolve calls and safe for concurrent use.
type Resolver struct {
	provider       imagesearch.Provider
	requestTimeout time.Duration
	prefetchLimit  int
}

// New creates a Resolver backed by the given provider.
func New(provider imagesearch.Provider, opts ...Option) *Resolver {
	r := &Resolver{
		provider:       provider,
		requestTimeout: defaultRequestTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns exactly one image URL per phrase, in phrase order. prompt
// is the original user question; it fixes the action context, the broad topic
// query and the static default pool for the whole batch. Every returned URL
// is non-empty.
func (r *Resolver) Resolve(ctx context.Context, phrases []string, prompt string) ([]string, Stats) {
	urls := make([]string, len(phrases))
	claimed := make(map[string]bool, len(phrases))
	stats := &Stats{}

	actionCtx := topic.ActionContext(prompt)
	topicQuery := topic.SearchPhrase(prompt)

	prefetched := r.prefetchFirstVariants(ctx, phrases, stats)

	for i, phrase := range phrases {
		variants := queryVariants(phrase, actionCtx, topicQuery)
		for vi, query := range variants {
			var candidates []imagesearch.Candidate
			if vi == 0 && prefetched != nil {
				candidates = prefetched[i]
			} else {
				candidates = r.search(ctx, query, stats)
			}
			if len(candidates) == 0 {
				continue
			}

			if url := selectBest(candidates, phrase, prompt, query, claimed); url != "" {
				urls[i] = url
				claimed[url] = true
				break
			}
		}
	}

	r.fillPass(ctx, urls, claimed, topicQuery, actionCtx, stats)
	fillStatic(urls, prompt, stats)

	slog.Debug("image resolution complete",
		"slides", len(phrases),
		"queries", stats.Queries,
		"fill_assigned", stats.FillAssigned,
		"static_assigned", stats.StaticAssigned,
	)
	return urls, *stats
}

// prefetchFirstVariants concurrently fetches each slide's primary query.
// Returns nil when prefetching is disabled or the batch is trivial. Fetches
// run in parallel; the shared stats counter is the only cross-goroutine
// state and is updated after the group finishes.
func (r *Resolver) prefetchFirstVariants(ctx context.Context, phrases []string, stats *Stats) [][]imagesearch.Candidate {
	if r.prefetchLimit <= 0 || len(phrases) < 2 {
		return nil
	}

	out := make([][]imagesearch.Candidate, len(phrases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.prefetchLimit)
	for i, phrase := range phrases {
		g.Go(func() error {
			out[i] = r.searchQuiet(gctx, phrase)
			return nil
		})
	}
	_ = g.Wait() // fetch errors already degraded to empty result lists
	stats.Queries += len(phrases)
	return out
}

// queryVariants builds the cascading query list for one phrase, most specific
// first.
func queryVariants(phrase, actionCtx, topicQuery string) []string {
	return []string{
		phrase,
		phrase + " " + actionCtx,
		phrase + " tools",
		topicQuery,
		phrase + " tutorial",
	}
}

// selectBest scores candidates and returns the highest-scoring URL not yet
// claimed, or "" when every candidate is taken.
func selectBest(candidates []imagesearch.Candidate, keyword, prompt, searchTerm string, claimed map[string]bool) string {
	type scored struct {
		url   string
		score int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scored{url: c.URL, score: relevance(c, keyword, prompt, searchTerm)})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	for _, s := range ranked {
		if !claimed[s.url] {
			return s.url
		}
	}
	return ""
}

// fillPass assigns results from increasingly generic queries to slots the
// per-phrase pass left empty, earliest slot first.
func (r *Resolver) fillPass(ctx context.Context, urls []string, claimed map[string]bool, topicQuery, actionCtx string, stats *Stats) {
	fallbackQueries := []string{
		topicQuery + " " + actionCtx,
		topicQuery + " tools",
		"repair tools workshop",
		"maintenance equipment",
		"tutorial instruction",
	}

	for _, query := range fallbackQueries {
		if !hasEmpty(urls) {
			return
		}
		candidates := r.search(ctx, query, stats)
		for i := range urls {
			if urls[i] != "" {
				continue
			}
			assigned := false
			for _, c := range candidates {
				if !claimed[c.URL] {
					urls[i] = c.URL
					claimed[c.URL] = true
					assigned = true
					stats.FillAssigned++
					break
				}
			}
			if !assigned {
				break // this query is exhausted; try the next one
			}
		}
	}
}

// search issues one backend query with the configured timeout, degrading any
// error to an empty result list.
func (r *Resolver) search(ctx context.Context, query string, stats *Stats) []imagesearch.Candidate {
	if r.provider == nil {
		return nil
	}
	stats.Queries++
	return r.searchQuiet(ctx, query)
}

func (r *Resolver) searchQuiet(ctx context.Context, query string) []imagesearch.Candidate {
	if r.provider == nil {
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	candidates, err := r.provider.Search(sctx, query, searchFilters)
	if err != nil {
		slog.Warn("image search failed, treating as no results", "query", query, "error", err)
		return nil
	}
	return candidates
}

func hasEmpty(urls []string) bool {
	for _, u := range urls {
		if u == "" {
			return true
		}
	}
	return false
}
