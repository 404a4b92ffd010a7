// Package taxonomy reports drift between a descriptor taxonomy and the
// corpus it tags: keywords that rarely appear in the descriptions of
// their own category, and frequent lemmas no category claims.
package taxonomy

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/cognicore/songlex/pkg/songlex/ingest"
	"github.com/cognicore/songlex/pkg/songlex/stoplist"
)

// Drift type constants.
const (
	DriftLowCoverage = "low_coverage" // keyword absent from most descriptions of its category
	DriftOrphan      = "orphan"       // frequent lemma in no category
)

// DriftStats captures keyword coverage within a category.
type DriftStats struct {
	Type        string // DriftLowCoverage or DriftOrphan
	Category    string // for orphans, the category whose descriptions it shares most, or ""
	Keyword     string
	SupportDocs int64   // descriptions containing the keyword
	MissedDocs  int64   // descriptions tagged with the category but lacking the keyword
	Coverage    float64 // share of category descriptions with the keyword; DF share for orphans
}

// Suggestion is a proposed keyword addition or removal.
type Suggestion struct {
	Type       string  `json:"type"`
	Category   string  `json:"category"`
	Keyword    string  `json:"keyword"`
	Confidence float64 `json:"confidence"`
	MissedDocs int64   `json:"missed_docs"`
}

// StatsProvider supplies drift metrics.
type StatsProvider interface {
	TaxonomyDrift(ctx context.Context) ([]DriftStats, error)
}

// Reviewer optionally approves taxonomy suggestions.
type Reviewer interface {
	ApproveTaxonomy(ctx context.Context, sugg Suggestion) (bool, error)
}

// Thresholds control sensitivity. Zero fields take defaults sized for
// corpora of a few hundred descriptions.
type Thresholds struct {
	MinCoverage    float64 // keywords below this coverage are reported
	MinMissedDocs  int64   // and only when at least this many descriptions miss them
	MinOrphanDF    float64 // orphans need at least this DF share
	ConfidenceBias float64
}

// AutoTuner turns drift metrics into ranked suggestions.
type AutoTuner struct {
	Provider   StatsProvider
	Thresholds Thresholds
	Reviewer   Reviewer // optional
}

// Run returns the approved suggestions, most confident first.
func (t *AutoTuner) Run(ctx context.Context) ([]Suggestion, error) {
	if t.Provider == nil {
		return nil, errors.New("taxonomy autotune: nil stats provider")
	}
	stats, err := t.Provider.TaxonomyDrift(ctx)
	if err != nil {
		return nil, err
	}

	th := t.thresholdsOrDefault()
	var suggestions []Suggestion
	for _, stat := range stats {
		switch stat.Type {
		case DriftOrphan:
			if stat.SupportDocs == 0 || stat.Coverage < th.MinOrphanDF {
				continue
			}
			suggestions = append(suggestions, Suggestion{
				Type:       DriftOrphan,
				Category:   stat.Category,
				Keyword:    stat.Keyword,
				Confidence: orphanConfidence(stat, th),
				MissedDocs: stat.SupportDocs,
			})
		default:
			if stat.Coverage >= th.MinCoverage || stat.MissedDocs < th.MinMissedDocs {
				continue
			}
			suggestions = append(suggestions, Suggestion{
				Type:       DriftLowCoverage,
				Category:   stat.Category,
				Keyword:    stat.Keyword,
				Confidence: coverageConfidence(stat, th),
				MissedDocs: stat.MissedDocs,
			})
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].Keyword < suggestions[j].Keyword
	})

	if t.Reviewer == nil {
		return suggestions, nil
	}
	var approved []Suggestion
	for _, sugg := range suggestions {
		ok, err := t.Reviewer.ApproveTaxonomy(ctx, sugg)
		if err != nil {
			return nil, err
		}
		if ok {
			approved = append(approved, sugg)
		}
	}
	return approved, nil
}

func (t *AutoTuner) thresholdsOrDefault() Thresholds {
	th := t.Thresholds
	if th.MinCoverage == 0 {
		th.MinCoverage = 0.4
	}
	if th.MinMissedDocs == 0 {
		th.MinMissedDocs = 3
	}
	if th.MinOrphanDF == 0 {
		th.MinOrphanDF = 0.1
	}
	if th.ConfidenceBias == 0 {
		th.ConfidenceBias = 0.2
	}
	return th
}

func coverageConfidence(stat DriftStats, th Thresholds) float64 {
	missed := 1 - math.Exp(-float64(stat.MissedDocs)/float64(th.MinMissedDocs))
	return clamp(th.ConfidenceBias + 0.5*missed + 0.5*(1-stat.Coverage))
}

func orphanConfidence(stat DriftStats, th Thresholds) float64 {
	df := 1 - math.Exp(-stat.Coverage/th.MinOrphanDF)
	c := th.ConfidenceBias + 0.8*df
	if stat.Category != "" {
		c += 0.1
	}
	return clamp(c)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// CorpusDrift computes drift metrics from normalized descriptions.
type CorpusDrift struct {
	Docs     []ingest.ProcessedDoc
	Taxonomy *ingest.Taxonomy
	Stops    *stoplist.Manager // optional; stop words are never orphans
}

// TaxonomyDrift implements StatsProvider. Output is sorted by type,
// category, then keyword.
func (c CorpusDrift) TaxonomyDrift(ctx context.Context) ([]DriftStats, error) {
	if c.Taxonomy == nil {
		return nil, errors.New("taxonomy drift: nil taxonomy")
	}
	if len(c.Docs) == 0 {
		return nil, nil
	}

	lemmaDocs := make(map[string]map[int]struct{})
	categoryDocs := make(map[string]map[int]struct{})
	for i, d := range c.Docs {
		for _, lemma := range d.Lemmas() {
			if lemmaDocs[lemma] == nil {
				lemmaDocs[lemma] = make(map[int]struct{})
			}
			lemmaDocs[lemma][i] = struct{}{}
		}
		for _, cat := range d.Categories {
			if categoryDocs[cat] == nil {
				categoryDocs[cat] = make(map[int]struct{})
			}
			categoryDocs[cat][i] = struct{}{}
		}
	}

	var out []DriftStats
	claimed := make(map[string]struct{})
	for _, cat := range c.Taxonomy.Categories() {
		tagged := categoryDocs[cat]
		for _, kw := range c.Taxonomy.Keywords(cat) {
			claimed[kw] = struct{}{}
			if len(tagged) == 0 {
				continue
			}
			support := int64(len(lemmaDocs[kw]))
			out = append(out, DriftStats{
				Type:        DriftLowCoverage,
				Category:    cat,
				Keyword:     kw,
				SupportDocs: support,
				MissedDocs:  int64(len(tagged)) - support,
				Coverage:    float64(support) / float64(len(tagged)),
			})
		}
	}

	lemmas := make([]string, 0, len(lemmaDocs))
	for lemma := range lemmaDocs {
		lemmas = append(lemmas, lemma)
	}
	sort.Strings(lemmas)
	for _, lemma := range lemmas {
		if _, ok := claimed[lemma]; ok {
			continue
		}
		if c.Stops != nil && c.Stops.IsStop(lemma) {
			continue
		}
		docs := lemmaDocs[lemma]
		out = append(out, DriftStats{
			Type:        DriftOrphan,
			Category:    closestCategory(docs, categoryDocs),
			Keyword:     lemma,
			SupportDocs: int64(len(docs)),
			Coverage:    float64(len(docs)) / float64(len(c.Docs)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out, nil
}

// closestCategory returns the category sharing the most descriptions with
// docs, ties broken by name.
func closestCategory(docs map[int]struct{}, categoryDocs map[string]map[int]struct{}) string {
	names := make([]string, 0, len(categoryDocs))
	for name := range categoryDocs {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestOverlap := "", 0
	for _, name := range names {
		overlap := 0
		for d := range docs {
			if _, ok := categoryDocs[name][d]; ok {
				overlap++
			}
		}
		if overlap > bestOverlap {
			best, bestOverlap = name, overlap
		}
	}
	return best
}
