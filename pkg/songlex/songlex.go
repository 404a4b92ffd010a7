// Package songlex runs the bird-song description analysis end to end:
// guide tables are loaded and normalized, voice descriptions are reduced to
// lemmas, the lemmas are cross-referenced against psycholinguistic word
// lists, and an exploratory LSA space is built over species.
package songlex

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/cognicore/songlex/pkg/songlex/analytics"
	"github.com/cognicore/songlex/pkg/songlex/config"
	"github.com/cognicore/songlex/pkg/songlex/crossref"
	"github.com/cognicore/songlex/pkg/songlex/guide"
	"github.com/cognicore/songlex/pkg/songlex/ingest"
	"github.com/cognicore/songlex/pkg/songlex/lexicon"
	"github.com/cognicore/songlex/pkg/songlex/lsa"
	"github.com/cognicore/songlex/pkg/songlex/pmi"
	"github.com/cognicore/songlex/pkg/songlex/store"
)

// Chi-square table names.
const (
	TableTimbre   = "timbre"
	TableModality = "modality"
	TablePOS      = "pos"
)

// Analysis is a configured pipeline. It is not safe for concurrent use.
type Analysis struct {
	cfg        *config.Config
	comp       *config.Components
	pipeline   *ingest.Pipeline
	loader     *guide.Loader
	store      store.Store
	configPath string
}

// Options configures an Analysis.
type Options struct {
	Config *config.Config // nil uses config.Default
	// ConfigPath is recorded with stored runs.
	ConfigPath string
	// Store persists results when set.
	Store store.Store
	// Components overrides the components loaded from Config.
	Components *config.Components
}

// New loads the configured components.
func New(opts Options) (*Analysis, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	comp := opts.Components
	if comp == nil {
		loader := cfg.Loader()
		var err error
		if comp, err = loader.Load(); err != nil {
			return nil, err
		}
	}

	return &Analysis{
		cfg:        cfg,
		comp:       comp,
		pipeline:   comp.Pipeline(),
		loader:     guide.NewLoader(cfg.GuideOptions()),
		store:      opts.Store,
		configPath: opts.ConfigPath,
	}, nil
}

// Close releases the store, if any.
func (a *Analysis) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Components returns the loaded components.
func (a *Analysis) Components() *config.Components {
	return a.comp
}

// Result holds everything one run produced.
type Result struct {
	RunID  string // empty without a store
	Corpus *guide.Corpus
	Docs   []ingest.ProcessedDoc
	Tokens []crossref.AnnotatedToken
	Stats  analytics.Stats

	Description  Description
	Attestations map[string][]crossref.Attestation // list name → flags
	Coverage     []crossref.Coverage
	ChiSquare    map[string]crossref.Result

	Space    *lsa.Space // nil when the corpus is too small to model
	Clusters []lsa.Cluster

	// Skipped names optional steps that could not run, with the reason.
	Skipped map[string]string
}

// Description holds the descriptive statistics of a corpus.
type Description struct {
	Records         int
	Species         int
	RecordsPerGuide map[string]int
	Sizes           *analytics.Summary // nil when no size parsed
	TokensPerRecord *analytics.Summary
	Spans           map[ingest.SpanKind]int
	TopTerms        []analytics.TermStat
}

// Run executes the whole pipeline. Any failure of a required step aborts
// the run; optional steps that lack input are recorded in Result.Skipped.
func (a *Analysis) Run(ctx context.Context) (*Result, error) {
	corpus, err := a.Load()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Corpus:  corpus,
		Docs:    a.Normalize(corpus),
		Skipped: make(map[string]string),
	}

	var tokens []ingest.Token
	for _, d := range res.Docs {
		tokens = append(tokens, d.Tokens...)
	}
	res.Tokens = crossref.Annotate(tokens, a.comp.Reference)
	res.Stats = a.analyze(corpus, res.Docs)
	res.Description = describe(corpus, res.Docs, res.Stats, a.cfg.Analytics.TopTerms)

	a.crossReference(res)
	a.model(res)

	if a.store != nil {
		if err := a.persist(ctx, res); err != nil {
			return nil, fmt.Errorf("persist run: %w", err)
		}
	}
	return res, nil
}

// Load reads the configured guide directory.
func (a *Analysis) Load() (*guide.Corpus, error) {
	corpus, err := a.loader.LoadDir(a.cfg.Guides)
	if err != nil {
		return nil, fmt.Errorf("load guides: %w", err)
	}
	return corpus, nil
}

// Normalize runs every record's voice description through the text
// normalizer, in record order.
func (a *Analysis) Normalize(corpus *guide.Corpus) []ingest.ProcessedDoc {
	docs := make([]ingest.ProcessedDoc, len(corpus.Records))
	for i, r := range corpus.Records {
		docs[i] = a.pipeline.Process(r.ID, r.Voice)
	}
	return docs
}

func (a *Analysis) analyze(corpus *guide.Corpus, docs []ingest.ProcessedDoc) analytics.Stats {
	an := analytics.NewAnalyzerWithWindow(a.cfg.Analytics.Window)
	an.SetCalculator(pmi.NewCalculatorFromConfig(a.cfg.PMI))
	for i, d := range docs {
		an.Process(d.Lemmas(), []string{corpus.Records[i].Guide})
	}
	return an.Snapshot()
}

func describe(corpus *guide.Corpus, docs []ingest.ProcessedDoc, stats analytics.Stats, top int) Description {
	d := Description{
		Records:         len(corpus.Records),
		Species:         len(corpus.BySpecies()),
		RecordsPerGuide: make(map[string]int),
		Spans:           make(map[ingest.SpanKind]int),
		TopTerms:        stats.TopTerms(top),
	}
	for _, r := range corpus.Records {
		d.RecordsPerGuide[r.Guide]++
	}
	if s, err := analytics.Describe(corpus.Sizes()); err == nil {
		d.Sizes = &s
	}

	perRecord := make(map[string]int, len(docs))
	for _, doc := range docs {
		perRecord[doc.RecordID] = len(doc.Tokens)
		for _, sp := range doc.Spans {
			d.Spans[sp.Kind]++
		}
	}
	if s, err := analytics.DescribeCounts(perRecord); err == nil {
		d.TokensPerRecord = &s
	}
	return d
}

func (a *Analysis) crossReference(res *Result) {
	ref := a.comp.Reference
	res.Attestations = make(map[string][]crossref.Attestation)
	res.ChiSquare = make(map[string]crossref.Result)

	vocab := make(map[string]int64)
	for _, t := range res.Tokens {
		vocab[t.Surface]++
		if t.Lemma != t.Surface {
			vocab[t.Lemma]++
		}
	}

	lists := map[string]lexicon.WordList{
		TableTimbre:   ref.Timbre,
		TableModality: ref.ModalityList(),
		TablePOS:      ref.POSList(),
	}
	for _, name := range []string{TableTimbre, TableModality, TablePOS} {
		list := lists[name]
		if len(list.Words) == 0 {
			res.Skipped["attest "+name] = "no reference list"
			continue
		}
		atts := crossref.Attest(list, vocab)
		res.Attestations[name] = atts
		res.Coverage = append(res.Coverage, crossref.Summarize(name, atts))
	}

	a.chiSquare(res, TableTimbre, func() (crossref.Result, error) {
		if !ref.Timbre.HasFrequencies() {
			return crossref.Result{}, errSkip("timbre list has no frequencies")
		}
		return crossref.FrequencyProfile(ref.Timbre, vocab)
	})
	a.chiSquare(res, TableModality, func() (crossref.Result, error) {
		if len(ref.ModalityCounts()) == 0 {
			return crossref.Result{}, errSkip("no modality norms")
		}
		return crossref.ModalityProfile(ref, res.Tokens)
	})
	a.chiSquare(res, TablePOS, func() (crossref.Result, error) {
		if len(ref.POSCounts()) == 0 {
			return crossref.Result{}, errSkip("no part-of-speech tags")
		}
		return crossref.POSProfile(ref, res.Tokens)
	})
}

type skipError string

func errSkip(reason string) error { return skipError(reason) }

func (e skipError) Error() string { return string(e) }

// chiSquare runs one test. A test without input, or whose table is
// degenerate for this corpus, is skipped with a warning.
func (a *Analysis) chiSquare(res *Result, name string, test func() (crossref.Result, error)) {
	r, err := test()
	var skip skipError
	switch {
	case err == nil:
		res.ChiSquare[name] = r
	case errors.As(err, &skip):
		res.Skipped["chi-square "+name] = string(skip)
	default:
		log.Printf("WARNING: chi-square %s skipped: %v", name, err)
		res.Skipped["chi-square "+name] = err.Error()
	}
}

func (a *Analysis) model(res *Result) {
	docs := SpeciesDocs(res.Corpus, res.Docs)
	space, err := lsa.Build(docs, a.cfg.LSA.Options)
	if err != nil {
		log.Printf("WARNING: lsa skipped: %v", err)
		res.Skipped["lsa"] = err.Error()
		return
	}
	res.Space = space

	clusters, err := space.Cluster(a.cfg.LSA.Clusters, a.cfg.LSA.Seed)
	if err != nil {
		log.Printf("WARNING: clustering skipped: %v", err)
		res.Skipped["clusters"] = err.Error()
		return
	}
	res.Clusters = clusters
}

// SpeciesDocs aggregates lemmas per species across guides, in record order.
func SpeciesDocs(corpus *guide.Corpus, docs []ingest.ProcessedDoc) map[string][]string {
	out := make(map[string][]string)
	for i, d := range docs {
		key := corpus.Records[i].SpeciesKey()
		out[key] = append(out[key], d.Lemmas()...)
	}
	return out
}

func (a *Analysis) persist(ctx context.Context, res *Result) error {
	run, err := a.store.CreateRun(ctx, store.Run{Guides: a.cfg.Guides, Config: a.configPath})
	if err != nil {
		return err
	}
	res.RunID = run.ID

	recs := make([]store.Record, len(res.Corpus.Records))
	for i, r := range res.Corpus.Records {
		sr := store.Record{
			ID:             r.ID,
			Guide:          r.Guide,
			Species:        r.SpeciesKey(),
			CommonName:     r.CommonName,
			ScientificName: r.ScientificName,
			Size:           r.Size,
			Voice:          r.Voice,
		}
		if r.SizeCM != nil {
			sr.SizeMinCM, sr.SizeMaxCM = r.SizeCM.MinCM, r.SizeCM.MaxCM
		}
		recs[i] = sr
	}
	if err := a.store.SaveRecords(ctx, run.ID, recs); err != nil {
		return err
	}

	toks := make([]store.Token, len(res.Tokens))
	for i, t := range res.Tokens {
		toks[i] = store.Token{
			RecordID: t.RecordID,
			Position: t.Position,
			Surface:  t.Surface,
			Lemma:    t.Lemma,
			POS:      t.POS,
			Modality: t.Modality,
			Timbre:   t.Timbre,
		}
	}
	if err := a.store.SaveTokens(ctx, run.ID, toks); err != nil {
		return err
	}

	var atts []store.Attestation
	for _, list := range sortedKeys(res.Attestations) {
		for _, at := range res.Attestations[list] {
			atts = append(atts, store.Attestation{List: list, Word: at.Word, Attested: at.Attested, Count: at.Count})
		}
	}
	if err := a.store.SaveAttestations(ctx, run.ID, atts); err != nil {
		return err
	}

	for _, name := range sortedKeys(res.ChiSquare) {
		r := res.ChiSquare[name]
		table := store.ChiSquareTable{Name: name, Statistic: r.Statistic, DF: r.DF, PValue: r.PValue}
		for _, c := range r.Cells {
			table.Cells = append(table.Cells, store.ChiSquareCell{
				Category:    c.Category,
				Reference:   c.Reference,
				Observed:    c.Observed,
				Expected:    c.Expected,
				Residual:    c.Residual,
				StdResidual: c.StdResidual,
				Direction:   string(c.Direction),
			})
		}
		if err := a.store.SaveChiSquare(ctx, run.ID, table); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
