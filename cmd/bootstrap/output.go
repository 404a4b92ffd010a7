package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/songlex/pkg/songlex/analytics"
	"github.com/cognicore/songlex/pkg/songlex/autotune/taxonomy"
	"github.com/cognicore/songlex/pkg/songlex/config"
	"github.com/cognicore/songlex/pkg/songlex/ingest"
	"github.com/cognicore/songlex/pkg/songlex/stoplist"
)

const candidateCategory = "candidate"

type highDFEntry struct {
	Token     string  `json:"token"`
	DFPercent float64 `json:"df_percent"`
	Entropy   float64 `json:"guide_entropy"`
}

func limitInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func filterPairs(pairs []analytics.PairStat, minSupport int64, limit int) []analytics.PairStat {
	var filtered []analytics.PairStat
	for _, p := range pairs {
		if p.Support < minSupport {
			continue
		}
		filtered = append(filtered, p)
		if limit > 0 && len(filtered) >= limit {
			break
		}
	}
	return filtered
}

// compoundEntries turns adjacent pairs into dictionary entries. The
// spaced phrase is canonical and the hyphenated spelling is a variant.
func compoundEntries(pairs []analytics.PairStat, categories map[string][]string) []config.DictEntry {
	tokenToCategories := make(map[string][]string)
	for _, name := range sortedCategories(categories) {
		for _, kw := range categories[name] {
			kw = strings.ToLower(kw)
			tokenToCategories[kw] = append(tokenToCategories[kw], name)
		}
	}

	entries := make([]config.DictEntry, 0, len(pairs))
	for _, p := range pairs {
		canonical := p.A + " " + p.B
		category := findBestCategory(p.A, p.B, tokenToCategories)
		if category == "" {
			category = candidateCategory
		}
		entries = append(entries, config.DictEntry{
			Canonical: canonical,
			Variants:  []string{ingest.Hyphenate(canonical)},
			Category:  category,
		})
	}
	return entries
}

// findBestCategory prefers a category holding both tokens, then the
// first category of either token. It returns "" when neither is classified.
func findBestCategory(tokenA, tokenB string, tokenToCategories map[string][]string) string {
	catsA := tokenToCategories[strings.ToLower(tokenA)]
	catsB := tokenToCategories[strings.ToLower(tokenB)]

	for _, catA := range catsA {
		for _, catB := range catsB {
			if catA == catB {
				return catA
			}
		}
	}
	if len(catsA) > 0 {
		return catsA[0]
	}
	if len(catsB) > 0 {
		return catsB[0]
	}
	return ""
}

// generateTaxonomy groups associated descriptors into categories named
// after their most widespread member. Without any cluster it falls back
// to a single category of mid-frequency lemmas.
func generateTaxonomy(stats analytics.Stats, stops *stoplist.Manager, limit int, minSupport int64, minPMI float64) map[string][]string {
	clusters := buildClusters(stats, stops, minSupport, minPMI)
	if len(clusters) == 0 {
		log.Printf("WARNING: No descriptor clusters found. Falling back to mid-frequency lemmas.")
		return map[string][]string{"descriptors": extractKeywords(stats, stops, limit)}
	}

	categories := make(map[string][]string, len(clusters))
	for _, cluster := range clusters {
		sort.Slice(cluster, func(i, j int) bool {
			di, dj := stats.TokenDF[cluster[i]], stats.TokenDF[cluster[j]]
			if di != dj {
				return di > dj
			}
			return cluster[i] < cluster[j]
		})
		if limit > 0 && len(cluster) > limit {
			cluster = cluster[:limit]
		}
		name := cluster[0]
		for n := 2; categories[name] != nil; n++ {
			name = fmt.Sprintf("%s-%d", cluster[0], n)
		}
		categories[name] = cluster
	}
	return categories
}

// buildClusters returns the connected components, of at least three
// lemmas, of the association graph.
func buildClusters(stats analytics.Stats, stops *stoplist.Manager, minSupport int64, minPMI float64) [][]string {
	graph := make(map[string]map[string]struct{})
	addEdge := func(a, b string) {
		if graph[a] == nil {
			graph[a] = make(map[string]struct{})
		}
		graph[a][b] = struct{}{}
	}
	for _, as := range stats.Associations(minSupport) {
		if as.PMI < minPMI || as.A == as.B {
			continue
		}
		if stops.IsStop(as.A) || stops.IsStop(as.B) {
			continue
		}
		addEdge(as.A, as.B)
		addEdge(as.B, as.A)
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	visited := make(map[string]bool)
	var clusters [][]string
	for _, node := range nodes {
		if visited[node] {
			continue
		}
		queue := []string{node}
		visited[node] = true
		var cluster []string
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			cluster = append(cluster, cur)
			for neighbor := range graph[cur] {
				if !visited[neighbor] {
					visited[neighbor] = true
					queue = append(queue, neighbor)
				}
			}
		}
		if len(cluster) >= 3 {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

// extractKeywords picks lemmas that are neither rare nor ubiquitous,
// most frequent first.
func extractKeywords(stats analytics.Stats, stops *stoplist.Manager, limit int) []string {
	entries := stats.StopwordStats()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DF != entries[j].DF {
			return entries[i].DF > entries[j].DF
		}
		return entries[i].Token < entries[j].Token
	})

	var words []string
	for _, entry := range entries {
		tok := entry.Token
		if stops.IsStop(tok) {
			continue
		}
		if entry.DFPercent < 2 || entry.DFPercent > 60 {
			continue
		}
		if len(tok) < 3 || strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
			continue
		}
		words = append(words, tok)
		if limit > 0 && len(words) >= limit {
			break
		}
	}
	if len(words) == 0 {
		log.Printf("WARNING: No taxonomy keywords found. Corpus may be too small.")
	}
	return words
}

func sortedCategories(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeTaxonomy(path string, categories map[string][]string) error {
	buf, err := yaml.Marshal(config.Taxonomy{Categories: categories})
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func writeReport(path string, res iterationResult, pairs []analytics.PairStat, highDF []highDFEntry, categories map[string][]string, drift []taxonomy.Suggestion) error {
	report := struct {
		GeneratedAt time.Time             `json:"generated_at"`
		TotalDocs   int64                 `json:"total_docs"`
		TotalGuides int                   `json:"total_guides"`
		Iterations  []iterationStep       `json:"iterations"`
		Stopwords   []string              `json:"stopwords"`
		Pairs       []analytics.PairStat  `json:"pairs"`
		HighDF      []highDFEntry         `json:"high_df_tokens"`
		Taxonomy    map[string][]string   `json:"taxonomy"`
		Drift       []taxonomy.Suggestion `json:"taxonomy_drift,omitempty"`
	}{
		GeneratedAt: time.Now(),
		TotalDocs:   res.stats.TotalDocs,
		TotalGuides: res.stats.TotalGuides,
		Iterations:  res.iterations,
		Stopwords:   res.stopwords,
		Pairs:       pairs,
		HighDF:      highDF,
		Taxonomy:    categories,
		Drift:       drift,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func topHighDF(stats analytics.Stats, limit int) []highDFEntry {
	entries := stats.StopwordStats()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DFPercent > entries[j].DFPercent
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]highDFEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, highDFEntry{Token: entry.Token, DFPercent: entry.DFPercent, Entropy: entry.GuideEntropy})
	}
	return out
}
