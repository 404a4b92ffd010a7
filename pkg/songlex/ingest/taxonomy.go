package ingest

import (
	"sort"
	"strings"
)

// Taxonomy groups descriptor lemmas into categories such as pitch,
// tempo or quality.
type Taxonomy struct {
	categories map[string][]string // category → keywords (lowercase)
}

// NewTaxonomy creates an empty taxonomy.
func NewTaxonomy() *Taxonomy {
	return &Taxonomy{categories: make(map[string][]string)}
}

// AddCategory adds a descriptor category with its keywords. Multi-word
// keywords are stored hyphenated to match fused compounds.
func (t *Taxonomy) AddCategory(name string, keywords []string) {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = Hyphenate(kw); kw != "" {
			normalized = append(normalized, kw)
		}
	}
	t.categories[strings.ToLower(name)] = normalized
}

// Categories returns the category names, sorted.
func (t *Taxonomy) Categories() []string {
	names := make([]string, 0, len(t.categories))
	for name := range t.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keywords returns the keywords of a category.
func (t *Taxonomy) Keywords(category string) []string {
	return t.categories[strings.ToLower(category)]
}

// AssignCategories determines which categories apply to the given tokens.
// The result is sorted.
func (t *Taxonomy) AssignCategories(tokens []string) []string {
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		tokenSet[strings.ToLower(tok)] = struct{}{}
	}

	var result []string
	for cat, keywords := range t.categories {
		for _, kw := range keywords {
			if _, ok := tokenSet[kw]; ok {
				result = append(result, cat)
				break
			}
		}
	}
	sort.Strings(result)
	return result
}
