// Command bootstrap derives starter configuration files from a guide
// corpus: a stop list discovered iteratively, compound descriptor
// candidates and a descriptor taxonomy built from word associations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cognicore/songlex/pkg/songlex"
	"github.com/cognicore/songlex/pkg/songlex/autotune/taxonomy"
	"github.com/cognicore/songlex/pkg/songlex/config"
)

type options struct {
	configPath     string
	guides         string
	outDir         string
	baseStoplist   string
	noBaseStoplist bool
	stopLimit      int
	maxIterations  int

	pairLimit      int
	pairMinSupport int
	pairMinPMI     float64

	taxonomyLimit      int
	taxonomyMinSupport int
	taxonomyMinPMI     float64
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Analysis file (songlex.yaml); defaults apply when empty")
	flag.StringVar(&opts.guides, "guides", "", "Guide directory, overrides the analysis file")
	flag.StringVar(&opts.outDir, "output", "", "Output directory for generated configs (required)")
	flag.StringVar(&opts.baseStoplist, "base-stoplist", "", "Stop list to start from (default: the analysis file's stoplist)")
	flag.BoolVar(&opts.noBaseStoplist, "no-base-stoplist", false, "Start from an empty stop list")
	flag.IntVar(&opts.stopLimit, "stop-limit", 25, "Number of stop word suggestions per iteration")
	flag.IntVar(&opts.maxIterations, "iterations", 3, "Maximum stop word discovery iterations")
	flag.IntVar(&opts.pairLimit, "pair-limit", 20, "Number of compound suggestions")
	flag.IntVar(&opts.pairMinSupport, "pair-min-support", 2, "Minimum descriptions containing a compound candidate")
	flag.Float64Var(&opts.pairMinPMI, "pair-min-pmi", 0.2, "Minimum association of a compound candidate")
	flag.IntVar(&opts.taxonomyLimit, "taxonomy-limit", 40, "Maximum keywords per taxonomy category")
	flag.IntVar(&opts.taxonomyMinSupport, "taxonomy-min-support", 2, "Minimum support for taxonomy associations")
	flag.Float64Var(&opts.taxonomyMinPMI, "taxonomy-min-pmi", 0.3, "Minimum association for taxonomy clustering")
	flag.Parse()

	if opts.outDir == "" {
		log.Fatal("--output is required")
	}

	res, err := run(context.Background(), opts)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	log.Printf("Bootstrap complete after %d iterations", len(res.iterations))
	fmt.Printf("Bootstrap configs written to %s\n", opts.outDir)
}

// run loads the corpus, iterates stop word discovery and writes every
// output file.
func run(ctx context.Context, opts options) (iterationResult, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return iterationResult{}, err
		}
		cfg = loaded
	}
	if opts.guides != "" {
		cfg.Guides = opts.guides
	}
	if opts.baseStoplist != "" {
		cfg.Stoplist = opts.baseStoplist
	}
	if opts.noBaseStoplist {
		cfg.Stoplist = ""
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return iterationResult{}, fmt.Errorf("create output dir: %w", err)
	}

	analysis, err := songlex.New(songlex.Options{Config: cfg, ConfigPath: opts.configPath})
	if err != nil {
		return iterationResult{}, err
	}
	defer analysis.Close()

	corpus, err := analysis.Load()
	if err != nil {
		return iterationResult{}, err
	}
	if len(corpus.Records) == 0 {
		return iterationResult{}, fmt.Errorf("no records found in %s", cfg.Guides)
	}
	comp := analysis.Components()
	if opts.noBaseStoplist {
		log.Printf("Starting with empty stoplist (--no-base-stoplist enabled)")
	} else if comp.Stoplist.Len() == 0 {
		log.Printf("WARNING: Base stoplist is empty or missing, starting cold")
	} else {
		log.Printf("Loaded %d base stopwords", comp.Stoplist.Len())
	}

	res, err := runIterativeAnalysis(ctx, corpus, comp, cfg, iterationConfig{
		stopLimit:     opts.stopLimit,
		maxIterations: opts.maxIterations,
	})
	if err != nil {
		return iterationResult{}, err
	}

	stats := res.stats
	drift, err := taxonomyDrift(ctx, res, comp)
	if err != nil {
		return iterationResult{}, err
	}
	categories := generateTaxonomy(stats, comp.Stoplist, opts.taxonomyLimit, int64(opts.taxonomyMinSupport), opts.taxonomyMinPMI)
	pairs := filterPairs(stats.TopPairs(opts.pairLimit*2, opts.pairMinPMI), int64(opts.pairMinSupport), limitInt(opts.pairLimit))
	compounds := compoundEntries(pairs, categories)

	if err := comp.Stoplist.Save(filepath.Join(opts.outDir, "stoplist.yaml")); err != nil {
		return iterationResult{}, fmt.Errorf("write stoplist: %w", err)
	}
	if err := config.WriteDict(filepath.Join(opts.outDir, "compounds.dict"), compounds); err != nil {
		return iterationResult{}, fmt.Errorf("write compounds: %w", err)
	}
	if len(compounds) == 0 {
		log.Printf("WARNING: No compound candidates found. Corpus may be too small or thresholds too high. compounds.dict is empty.")
	}
	if err := writeTaxonomy(filepath.Join(opts.outDir, "taxonomy.yaml"), categories); err != nil {
		return iterationResult{}, fmt.Errorf("write taxonomy: %w", err)
	}
	if err := writeReport(filepath.Join(opts.outDir, "bootstrap-report.json"), res, pairs, topHighDF(stats, 20), categories, drift); err != nil {
		return iterationResult{}, fmt.Errorf("write report: %w", err)
	}
	return res, nil
}

// taxonomyDrift compares the configured descriptor taxonomy with the
// final normalization. It returns nothing when no taxonomy is configured.
func taxonomyDrift(ctx context.Context, res iterationResult, comp *config.Components) ([]taxonomy.Suggestion, error) {
	if len(comp.Taxonomy.Categories()) == 0 {
		return nil, nil
	}
	tuner := taxonomy.AutoTuner{
		Provider: taxonomy.CorpusDrift{Docs: res.docs, Taxonomy: comp.Taxonomy, Stops: comp.Stoplist},
	}
	suggestions, err := tuner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("taxonomy drift: %w", err)
	}
	log.Printf("Taxonomy drift: %d suggestions", len(suggestions))
	return suggestions, nil
}
