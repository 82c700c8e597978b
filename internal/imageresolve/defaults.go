package imageresolve

import "strings"

// Static default pools, keyed by the broad subject of the prompt. Used only
// when both the per-phrase pass and the fill pass come up empty, e.g. during
// a total backend outage.
var (
	bikeDefaults = []string{
		"https://images.unsplash.com/photo-1558618047-3c8c76ca7d13?w=800&h=600&fit=crop",
		"https://images.unsplash.com/photo-1571068316344-75bc76f77890?w=800&h=600&fit=crop",
		"https://images.unsplash.com/photo-1544191696-15693072b5a7?w=800&h=600&fit=crop",
		"https://images.unsplash.com/photo-1571068316344-75bc76f77890?w=800&h=600&fit=crop",
	}
	carDefaults = []string{
		"https://images.unsplash.com/photo-1486262715619-67b85e0b08d3?w=800&h=600&fit=crop",
		"https://images.unsplash.com/photo-1487754180451-c456f719a1fc?w=800&h=600&fit=crop",
		"https://images.unsplash.com/photo-1609630875171-b1321377ee65?w=800&h=600&fit=crop",
		"https://images.unsplash.com/photo-1615906655593-ad0386982a0f?w=800&h=600&fit=crop",
	}
	genericDefaults = []string{
		"https://images.unsplash.com/photo-1581833971358-2c8b550f87b3?w=800&h=600&fit=crop",
		"https://images.unsplash.com/photo-1504148455328-c376907d081c?w=800&h=600&fit=crop",
		"https://images.unsplash.com/photo-1609630875171-b1321377ee65?w=800&h=600&fit=crop",
		"https://images.unsplash.com/photo-1487754180451-c456f719a1fc?w=800&h=600&fit=crop",
	}
)

// defaultPool picks the static default list for a prompt.
func defaultPool(prompt string) []string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "bike") || strings.Contains(lower, "bicycle"):
		return bikeDefaults
	case strings.Contains(lower, "car") || strings.Contains(lower, "vehicle"):
		return carDefaults
	default:
		return genericDefaults
	}
}

// fillStatic assigns static default URLs to any remaining empty slots,
// cycling through the pool when there are more gaps than entries. After this
// pass no slot is empty.
func fillStatic(urls []string, prompt string, stats *Stats) {
	pool := defaultPool(prompt)
	next := 0
	for i := range urls {
		if urls[i] != "" {
			continue
		}
		urls[i] = pool[next%len(pool)]
		next++
		stats.StaticAssigned++
	}
}
