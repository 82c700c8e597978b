// Package pixabay provides a Pixabay-backed image search provider using the
// Pixabay REST API. It implements the imagesearch.Provider interface.
package pixabay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/slidecast/slidecast/pkg/provider/imagesearch"
)

const (
	defaultBaseURL = "https://pixabay.com/api/"
	defaultTimeout = 12 * time.Second
)

// Option is a functional option for configuring the Pixabay Provider.
type Option func(*Provider)

// WithBaseURL overrides the default API endpoint. Useful for tests.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// WithTimeout sets the per-request HTTP timeout. Default: 12s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// Provider implements imagesearch.Provider backed by the Pixabay API.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Pixabay Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("pixabay: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// hit mirrors one entry of the Pixabay response.
type hit struct {
	ID           int    `json:"id"`
	WebformatURL string `json:"webformatURL"`
	Tags         string `json:"tags"`
	Views        int    `json:"views"`
	Downloads    int    `json:"downloads"`
	Likes        int    `json:"likes"`
}

// searchResponse mirrors the Pixabay response envelope.
type searchResponse struct {
	TotalHits int   `json:"totalHits"`
	Hits      []hit `json:"hits"`
}

// Search implements imagesearch.Provider. A query with no matches returns an
// empty slice and a nil error; HTTP and decode failures return an error.
func (p *Provider) Search(ctx context.Context, query string, f imagesearch.Filters) ([]imagesearch.Candidate, error) {
	q := url.Values{}
	q.Set("key", p.apiKey)
	q.Set("q", query)
	if f.ImageType != "" {
		q.Set("image_type", f.ImageType)
	}
	if f.Categories != "" {
		q.Set("category", f.Categories)
	}
	if f.MinWidth > 0 {
		q.Set("min_width", strconv.Itoa(f.MinWidth))
	}
	if f.MinHeight > 0 {
		q.Set("min_height", strconv.Itoa(f.MinHeight))
	}
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	if f.SafeSearch {
		q.Set("safesearch", "true")
	}
	if f.Order != "" {
		q.Set("order", f.Order)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pixabay: build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pixabay: search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pixabay: search %q: unexpected status %d", query, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("pixabay: decode response: %w", err)
	}

	out := make([]imagesearch.Candidate, 0, len(body.Hits))
	for _, h := range body.Hits {
		if h.WebformatURL == "" {
			continue
		}
		out = append(out, imagesearch.Candidate{
			URL:       h.WebformatURL,
			Tags:      h.Tags,
			Likes:     h.Likes,
			Views:     h.Views,
			Downloads: h.Downloads,
		})
	}
	return out, nil
}

// Ensure Provider implements imagesearch.Provider at compile time.
var _ imagesearch.Provider = (*Provider)(nil)
