// Package stopwords discovers stop words for the voice corpus from
// per-token statistics, with an optional approval step.
package stopwords

import (
	"context"
	"errors"
	"log"

	"github.com/cognicore/songlex/pkg/songlex/stoplist"
)

// StatsProvider exposes the aggregated metrics required for stop word tuning.
type StatsProvider interface {
	StopwordStats(ctx context.Context) ([]stoplist.Stats, error)
}

// Reviewer performs an extra approval step on each candidate.
type Reviewer interface {
	Approve(ctx context.Context, cand stoplist.Candidate) (bool, error)
}

// AutoTuner produces ranked stop word suggestions from corpus statistics.
type AutoTuner struct {
	Provider   StatsProvider
	Manager    *stoplist.Manager
	Thresholds stoplist.Thresholds
	Reviewer   Reviewer // optional
	Limit      int      // maximum suggestions per run, 0 for no limit
}

// Run collects stats, produces candidates, routes them through the reviewer
// and returns the approved suggestions, strongest first.
func (t *AutoTuner) Run(ctx context.Context) ([]stoplist.Candidate, error) {
	if t.Provider == nil {
		return nil, errors.New("stopwords autotune: nil stats provider")
	}
	if t.Manager == nil {
		return nil, errors.New("stopwords autotune: nil manager")
	}

	stats, err := t.Provider.StopwordStats(ctx)
	if err != nil {
		return nil, err
	}

	candidates := t.Manager.SuggestCandidates(stats, t.thresholdsOrDefault())

	var approved []stoplist.Candidate
	for _, cand := range candidates {
		if t.Limit > 0 && len(approved) >= t.Limit {
			break
		}
		if t.Reviewer != nil {
			ok, err := t.Reviewer.Approve(ctx, cand)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		approved = append(approved, cand)
	}
	return approved, nil
}

// Apply runs the tuner and adds every approved candidate to the manager.
// It returns the candidates that were added.
func (t *AutoTuner) Apply(ctx context.Context) ([]stoplist.Candidate, error) {
	approved, err := t.Run(ctx)
	if err != nil {
		return nil, err
	}
	added := approved[:0]
	for _, cand := range approved {
		if t.Manager.Add(cand.Token, cand.Reason) {
			added = append(added, cand)
		}
	}
	return added, nil
}

func (t *AutoTuner) thresholdsOrDefault() stoplist.Thresholds {
	if t.Thresholds == (stoplist.Thresholds{}) {
		return stoplist.DefaultThresholds()
	}
	return t.Thresholds
}

// VocabularyReviewer rejects candidates that appear in a reference
// vocabulary, so descriptors such as timbre adjectives stay in the corpus.
type VocabularyReviewer struct {
	vocab map[string]struct{}
}

// NewVocabularyReviewer builds a reviewer from reference words.
func NewVocabularyReviewer(words []string) *VocabularyReviewer {
	v := &VocabularyReviewer{vocab: make(map[string]struct{}, len(words))}
	for _, w := range words {
		v.vocab[w] = struct{}{}
	}
	return v
}

// Approve implements Reviewer.
func (v *VocabularyReviewer) Approve(_ context.Context, cand stoplist.Candidate) (bool, error) {
	if _, ok := v.vocab[cand.Token]; ok {
		log.Printf("stopwords: keeping reference word %q (df %.1f%%)", cand.Token, cand.Reason.DFPercent)
		return false, nil
	}
	return true, nil
}
