package main

import (
	"context"
	"log"

	"github.com/cognicore/songlex/pkg/songlex/analytics"
	"github.com/cognicore/songlex/pkg/songlex/autotune/stopwords"
	"github.com/cognicore/songlex/pkg/songlex/config"
	"github.com/cognicore/songlex/pkg/songlex/guide"
	"github.com/cognicore/songlex/pkg/songlex/ingest"
	"github.com/cognicore/songlex/pkg/songlex/pmi"
)

// iterationConfig holds parameters for iterative analysis.
type iterationConfig struct {
	stopLimit     int
	maxIterations int
}

// iterationResult holds the final results after convergence.
type iterationResult struct {
	stats      analytics.Stats
	docs       []ingest.ProcessedDoc
	stopwords  []string
	iterations []iterationStep
}

// iterationStep tracks progress of each iteration.
type iterationStep struct {
	Iteration      int      `json:"iteration"`
	StopwordsAdded int      `json:"stopwords_added"`
	NewStopwords   []string `json:"new_stopwords"`
	TotalStopwords int      `json:"total_stopwords"`
}

// runIterativeAnalysis re-normalizes the corpus with the growing stop list
// until no new stop word is discovered or maxIterations is reached. A
// first pass can hide stop words that only stand out once other noise is
// gone. Discovered words are added to comp.Stoplist; reference words are
// never proposed. The returned statistics reflect the final list.
func runIterativeAnalysis(ctx context.Context, corpus *guide.Corpus, comp *config.Components, cfg *config.Config, it iterationConfig) (iterationResult, error) {
	mgr := comp.Stoplist
	reviewer := stopwords.NewVocabularyReviewer(comp.Reference.Vocabulary())
	reanalyze := func() (analytics.Stats, []ingest.ProcessedDoc) {
		pipeline := ingest.NewPipeline(ingest.NewTokenizer(mgr.All()), comp.Fuser, comp.Lemmatizer, comp.Taxonomy)
		return analyze(corpus, pipeline, cfg)
	}

	var steps []iterationStep
	stats, docs := reanalyze()

	for i := 0; i < it.maxIterations; i++ {
		log.Printf("=== Iteration %d/%d: tuning with %d stopwords ===", i+1, it.maxIterations, mgr.Len())

		tuner := stopwords.AutoTuner{
			Provider: analytics.NewStopwordStatsProvider(stats),
			Manager:  mgr,
			Reviewer: reviewer,
			Limit:    it.stopLimit,
		}
		added, err := tuner.Apply(ctx)
		if err != nil {
			return iterationResult{}, err
		}

		newStops := make([]string, len(added))
		for j, c := range added {
			newStops[j] = c.Token
		}
		steps = append(steps, iterationStep{
			Iteration:      i + 1,
			StopwordsAdded: len(newStops),
			NewStopwords:   newStops,
			TotalStopwords: mgr.Len(),
		})

		if len(newStops) == 0 {
			log.Printf("Converged! No new stopwords discovered in iteration %d.", i+1)
			break
		}
		log.Printf("Discovered %d new stopwords: %v", len(newStops), newStops)
		stats, docs = reanalyze()
	}

	return iterationResult{
		stats:      stats,
		docs:       docs,
		stopwords:  mgr.All(),
		iterations: steps,
	}, nil
}

func analyze(corpus *guide.Corpus, pipeline *ingest.Pipeline, cfg *config.Config) (analytics.Stats, []ingest.ProcessedDoc) {
	an := analytics.NewAnalyzerWithWindow(cfg.Analytics.Window)
	an.SetCalculator(pmi.NewCalculatorFromConfig(cfg.PMI))
	docs := make([]ingest.ProcessedDoc, len(corpus.Records))
	for i, r := range corpus.Records {
		docs[i] = pipeline.Process(r.ID, r.Voice)
		an.Process(docs[i].Lemmas(), []string{r.Guide})
	}
	return an.Snapshot(), docs
}
