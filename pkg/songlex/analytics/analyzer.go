// Package analytics aggregates corpus counts over processed voice
// descriptions: term and document frequencies, spread across guides,
// adjacency and window co-occurrence, and the statistics that drive stop
// word and compound discovery.
package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/cognicore/songlex/pkg/songlex/pmi"
	"github.com/cognicore/songlex/pkg/songlex/stoplist"
)

const (
	// DefaultSkipGramWindow is the distance within which two tokens count as
	// contextually related.
	DefaultSkipGramWindow = 5

	// MinSkipGramWindow is the minimum valid window size.
	MinSkipGramWindow = 2
)

// Analyzer accumulates description-level token statistics.
type Analyzer struct {
	docs           *pmi.Counter
	termFreq       map[string]int64
	tokenGuides    map[string]map[string]int64
	guides         map[string]struct{}
	bigramCounts   map[pmi.TokenPair]int64 // ordered: T1 precedes T2
	skipGramCounts map[pmi.TokenPair]int64 // canonical order
	windowSize     int
	calc           *pmi.Calculator
}

// NewAnalyzer creates an empty analyzer scoring pairs with default NPMI.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		docs:           pmi.NewCounter(),
		termFreq:       make(map[string]int64),
		tokenGuides:    make(map[string]map[string]int64),
		guides:         make(map[string]struct{}),
		bigramCounts:   make(map[pmi.TokenPair]int64),
		skipGramCounts: make(map[pmi.TokenPair]int64),
		windowSize:     DefaultSkipGramWindow,
		calc:           pmi.NewCalculatorFromConfig(pmi.DefaultConfig()),
	}
}

// NewAnalyzerWithWindow creates an analyzer with a custom skip-gram window.
// Values below MinSkipGramWindow are clamped.
func NewAnalyzerWithWindow(windowSize int) *Analyzer {
	a := NewAnalyzer()
	if windowSize < MinSkipGramWindow {
		windowSize = MinSkipGramWindow
	}
	a.windowSize = windowSize
	return a
}

// SetCalculator replaces the pair scorer.
func (a *Analyzer) SetCalculator(c *pmi.Calculator) {
	if c != nil {
		a.calc = c
	}
}

// WindowSize returns the skip-gram window.
func (a *Analyzer) WindowSize() int {
	return a.windowSize
}

// Process consumes the lemmas of one description and the guides it came from.
func (a *Analyzer) Process(tokens []string, guides []string) {
	a.docs.AddDocument(tokens)

	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		a.termFreq[tok]++
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		for _, g := range guides {
			if g == "" {
				continue
			}
			if a.tokenGuides[tok] == nil {
				a.tokenGuides[tok] = make(map[string]int64)
			}
			a.tokenGuides[tok][g]++
		}
	}
	for _, g := range guides {
		if g != "" {
			a.guides[g] = struct{}{}
		}
	}

	for i := 0; i < len(tokens)-1; i++ {
		if tokens[i] == "" || tokens[i+1] == "" {
			continue
		}
		a.bigramCounts[pmi.TokenPair{T1: tokens[i], T2: tokens[i+1]}]++
	}

	// each window pair counts once per description
	window := make(map[pmi.TokenPair]struct{})
	for i := 0; i < len(tokens); i++ {
		if tokens[i] == "" {
			continue
		}
		for j := i + 1; j < len(tokens) && j < i+a.windowSize; j++ {
			if tokens[j] == "" || tokens[j] == tokens[i] {
				continue
			}
			window[pmi.NewPair(tokens[i], tokens[j])] = struct{}{}
		}
	}
	for p := range window {
		a.skipGramCounts[p]++
	}
}

// Stats is an immutable snapshot of the accumulated counts.
type Stats struct {
	TotalDocs      int64
	TotalGuides    int
	TermFreq       map[string]int64
	TokenDF        map[string]int64
	TokenGuides    map[string]map[string]int64
	PairCounts     map[pmi.TokenPair]int64
	BigramCounts   map[pmi.TokenPair]int64
	SkipGramCounts map[pmi.TokenPair]int64

	calc *pmi.Calculator
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	docs := a.docs.Clone()

	guides := make(map[string]map[string]int64, len(a.tokenGuides))
	for tok, gs := range a.tokenGuides {
		guides[tok] = make(map[string]int64, len(gs))
		for g, n := range gs {
			guides[tok][g] = n
		}
	}
	return Stats{
		TotalDocs:      docs.N,
		TotalGuides:    len(a.guides),
		TermFreq:       copyCounts(a.termFreq),
		TokenDF:        docs.Nx,
		TokenGuides:    guides,
		PairCounts:     docs.Nxy,
		BigramCounts:   copyCounts(a.bigramCounts),
		SkipGramCounts: copyCounts(a.skipGramCounts),
		calc:           a.calc,
	}
}

func copyCounts[K comparable](m map[K]int64) map[K]int64 {
	out := make(map[K]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PairCount returns how many descriptions contain both tokens.
func (s Stats) PairCount(a, b string) int64 {
	return s.PairCounts[pmi.NewPair(a, b)]
}

// BigramCount returns how often b directly follows a.
func (s Stats) BigramCount(a, b string) int64 {
	return s.BigramCounts[pmi.TokenPair{T1: a, T2: b}]
}

func (s Stats) score(nAB, nA, nB int64) float64 {
	calc := s.calc
	if calc == nil {
		calc = pmi.NewCalculatorFromConfig(pmi.DefaultConfig())
	}
	return calc.Score(nAB, nA, nB, s.TotalDocs)
}

// GuideEntropy is the entropy of a token's document counts across guides,
// normalized by the number of guides in the corpus. It is 1 for a token
// used evenly by every guide and 0 for a token only one guide uses. With a
// single guide every token is trivially spread and scores 1.
func (s Stats) GuideEntropy(token string) float64 {
	counts := s.TokenGuides[token]
	if len(counts) == 0 {
		return 0
	}
	if s.TotalGuides <= 1 {
		return 1
	}
	var total float64
	for _, c := range counts {
		total += float64(c)
	}
	var h float64
	for _, c := range counts {
		if p := float64(c) / total; p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h / math.Log2(float64(s.TotalGuides))
}

// StopwordStats converts corpus stats into stop word statistics. PMIMax
// is the strongest association of each token with any other; stop words
// are frequent everywhere yet associate with nothing in particular.
func (s Stats) StopwordStats() []stoplist.Stats {
	if s.TotalDocs == 0 {
		return nil
	}

	pmiMax := make(map[string]float64)
	for p, count := range s.PairCounts {
		dfA, dfB := s.TokenDF[p.T1], s.TokenDF[p.T2]
		if count == 0 || dfA == 0 || dfB == 0 {
			continue
		}
		v := s.score(count, dfA, dfB)
		if v > pmiMax[p.T1] {
			pmiMax[p.T1] = v
		}
		if v > pmiMax[p.T2] {
			pmiMax[p.T2] = v
		}
	}

	out := make([]stoplist.Stats, 0, len(s.TokenDF))
	for tok, df := range s.TokenDF {
		out = append(out, stoplist.Stats{
			Token:        tok,
			DF:           df,
			DFPercent:    100 * float64(df) / float64(s.TotalDocs),
			IDF:          math.Log(float64(s.TotalDocs) / (1 + float64(df))),
			PMIMax:       pmiMax[tok],
			GuideEntropy: s.GuideEntropy(tok),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out
}

// StopwordStatsProvider adapts a snapshot to the stop word autotuner.
type StopwordStatsProvider struct {
	stats Stats
}

// NewStopwordStatsProvider wraps stats.
func NewStopwordStatsProvider(stats Stats) *StopwordStatsProvider {
	return &StopwordStatsProvider{stats: stats}
}

// StopwordStats implements stopwords.StatsProvider.
func (p *StopwordStatsProvider) StopwordStats(ctx context.Context) ([]stoplist.Stats, error) {
	return p.stats.StopwordStats(), nil
}

// TermStat summarizes one term.
type TermStat struct {
	Term   string
	Freq   int64 // occurrences
	DF     int64 // descriptions containing it
	Guides int   // guides using it
}

// TopTerms returns the n most frequent terms, ties broken alphabetically.
// n <= 0 returns all terms.
func (s Stats) TopTerms(n int) []TermStat {
	out := make([]TermStat, 0, len(s.TermFreq))
	for term, freq := range s.TermFreq {
		out = append(out, TermStat{
			Term:   term,
			Freq:   freq,
			DF:     s.TokenDF[term],
			Guides: len(s.TokenGuides[term]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Freq == out[j].Freq {
			return out[i].Term < out[j].Term
		}
		return out[i].Freq > out[j].Freq
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// PairStat describes an adjacent token pair as a compound candidate.
type PairStat struct {
	A           string
	B           string
	PMI         float64 // description-level association
	BigramFreq  int64   // times B directly follows A
	Support     int64   // descriptions containing both
	PhraseScore float64 // BigramFreq * PMI
}

// TopPairs returns compound candidates ranked by adjacency weighted by
// association. Frequent adjacencies of unrelated words ("and clear") fall
// below minPMI.
func (s Stats) TopPairs(limit int, minPMI float64) []PairStat {
	if s.TotalDocs == 0 {
		return nil
	}

	var stats []PairStat
	for p, bigrams := range s.BigramCounts {
		if bigrams == 0 || p.T1 == p.T2 {
			continue
		}
		dfA, dfB := s.TokenDF[p.T1], s.TokenDF[p.T2]
		support := s.PairCount(p.T1, p.T2)
		if dfA == 0 || dfB == 0 || support == 0 {
			continue
		}
		v := s.score(support, dfA, dfB)
		if v < minPMI {
			continue
		}
		stats = append(stats, PairStat{
			A:           p.T1,
			B:           p.T2,
			PMI:         v,
			BigramFreq:  bigrams,
			Support:     support,
			PhraseScore: float64(bigrams) * v,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].PhraseScore != stats[j].PhraseScore {
			return stats[i].PhraseScore > stats[j].PhraseScore
		}
		if stats[i].BigramFreq != stats[j].BigramFreq {
			return stats[i].BigramFreq > stats[j].BigramFreq
		}
		if stats[i].A != stats[j].A {
			return stats[i].A < stats[j].A
		}
		return stats[i].B < stats[j].B
	})

	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// Association is a window co-occurrence between two tokens.
type Association struct {
	A       string
	B       string
	PMI     float64
	Support int64
}

// Associations returns window co-occurrences with at least minSupport
// descriptions, strongest first.
func (s Stats) Associations(minSupport int64) []Association {
	var out []Association
	for p, count := range s.SkipGramCounts {
		if count < minSupport {
			continue
		}
		dfA, dfB := s.TokenDF[p.T1], s.TokenDF[p.T2]
		if dfA == 0 || dfB == 0 {
			continue
		}
		out = append(out, Association{
			A:       p.T1,
			B:       p.T2,
			PMI:     s.score(count, dfA, dfB),
			Support: count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PMI != out[j].PMI {
			return out[i].PMI > out[j].PMI
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
