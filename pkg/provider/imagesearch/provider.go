// Package imagesearch defines the Provider interface for stock-image search
// backends.
//
// A provider wraps an image API (e.g. Pixabay) and returns scored-by-caller
// candidate lists for short text queries. Providers are pure lookup: they do
// not rank beyond the backend's own sort order and they hold no state between
// calls.
//
// Implementations must be safe for concurrent use.
package imagesearch

import "context"

// Candidate is one result returned by the image backend. Candidates are
// ephemeral: the resolver scores them and keeps only the chosen URL.
type Candidate struct {
	// URL is the direct image URL suitable for a slide.
	URL string

	// Tags is the backend's free-text descriptor string (comma-separated on
	// most backends).
	Tags string

	// Likes is the backend's popularity signal for the image.
	Likes int

	// Views is the backend's view count for the image.
	Views int

	// Downloads is the backend's download count, where available.
	Downloads int
}

// Filters narrows a search. The zero value means "backend defaults"; the
// resolver always sets the full set so results are photo-only, safe, popular
// and large enough for a slide.
type Filters struct {
	// ImageType restricts the result kind (e.g. "photo").
	ImageType string

	// Categories is a comma-separated category allowlist understood by the
	// backend (e.g. "industry,transportation,science,education").
	Categories string

	// MinWidth and MinHeight set the minimum acceptable resolution.
	MinWidth  int
	MinHeight int

	// SafeSearch excludes unsafe content when true.
	SafeSearch bool

	// Order selects the backend sort (e.g. "popular").
	Order string

	// PerPage caps the number of candidates returned.
	PerPage int
}

// Provider is the abstraction over any image-search backend.
//
// Search returns the backend's candidates for query, best-first in the
// backend's own ordering. An empty result slice with a nil error is a valid
// "no matches" answer. Implementations must be safe for concurrent use and
// must respect context cancellation.
type Provider interface {
	Search(ctx context.Context, query string, f Filters) ([]Candidate, error)
}
