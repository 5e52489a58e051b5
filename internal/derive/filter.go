// internal/derive/filter.go
//
// Pure list transforms computed from the cache on every render. Nothing in
// this package holds state: same input, same output, so the boards can
// recompute freely instead of maintaining incremental indexes.

package derive

import "strings"

// Searchable exposes the fields the filter can look at: free-text fields
// for substring matching and named facets for exact matching.
type Searchable interface {
	SearchText() []string
	Facet(key string) string
}

// FacetAll is the facet value meaning "no constraint".
const FacetAll = ""

// Filter returns the records matching both the free-text query and every
// facet constraint. An empty query matches everything; a facet set to
// FacetAll is ignored. Input order is preserved.
func Filter[E Searchable](items []E, query string, facets map[string]string) []E {
	query = strings.TrimSpace(strings.ToLower(query))
	out := make([]E, 0, len(items))
	for _, item := range items {
		if !matchesQuery(item, query) {
			continue
		}
		if !matchesFacets(item, facets) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesQuery(item Searchable, query string) bool {
	if query == "" {
		return true
	}
	for _, field := range item.SearchText() {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func matchesFacets(item Searchable, facets map[string]string) bool {
	for key, want := range facets {
		if want == FacetAll {
			continue
		}
		if item.Facet(key) != want {
			return false
		}
	}
	return true
}
