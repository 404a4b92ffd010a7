package taxonomy

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/songlex/pkg/songlex/ingest"
	"github.com/cognicore/songlex/pkg/songlex/stoplist"
)

type fakeProvider struct {
	stats []DriftStats
	err   error
}

func (f fakeProvider) TaxonomyDrift(ctx context.Context) ([]DriftStats, error) {
	return f.stats, f.err
}

type fakeReviewer struct {
	decisions map[string]bool
	err       error
}

func (f fakeReviewer) ApproveTaxonomy(ctx context.Context, sugg Suggestion) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.decisions[sugg.Keyword], nil
}

func TestAutoTunerTaxonomy_NoReviewer(t *testing.T) {
	stats := []DriftStats{
		{Category: "quality", Keyword: "reedy", Coverage: 0.2, MissedDocs: 30},
		{Category: "quality", Keyword: "buzzy", Coverage: 0.7, MissedDocs: 5},
	}

	tuner := AutoTuner{
		Provider: fakeProvider{stats: stats},
		Thresholds: Thresholds{
			MinCoverage:   0.5,
			MinMissedDocs: 10,
		},
	}

	suggestions, err := tuner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Keyword != "reedy" {
		t.Fatalf("Expected reedy suggestion, got %+v", suggestions)
	}
	if suggestions[0].Confidence <= 0 || suggestions[0].Confidence > 1 {
		t.Fatalf("Confidence should be in (0, 1], got %f", suggestions[0].Confidence)
	}
}

func TestAutoTunerTaxonomy_Orphans(t *testing.T) {
	stats := []DriftStats{
		{Type: DriftOrphan, Keyword: "rattle", Category: "quality", SupportDocs: 8, Coverage: 0.4},
		{Type: DriftOrphan, Keyword: "croak", SupportDocs: 1, Coverage: 0.05},
		{Type: DriftOrphan, Keyword: "trill", SupportDocs: 6, Coverage: 0.3},
	}

	suggestions, err := (&AutoTuner{Provider: fakeProvider{stats: stats}}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("Expected rare orphan to be dropped, got %+v", suggestions)
	}
	if suggestions[0].Keyword != "rattle" {
		t.Errorf("Expected categorized, more frequent orphan first, got %+v", suggestions)
	}
}

func TestAutoTunerTaxonomy_WithReviewer(t *testing.T) {
	stats := []DriftStats{
		{Category: "pitch", Keyword: "shrill", Coverage: 0.3, MissedDocs: 40},
		{Category: "pitch", Keyword: "piping", Coverage: 0.25, MissedDocs: 15},
	}

	tuner := AutoTuner{
		Provider: fakeProvider{stats: stats},
		Reviewer: fakeReviewer{
			decisions: map[string]bool{
				"shrill": true,
				"piping": false,
			},
		},
	}

	suggestions, err := tuner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Keyword != "shrill" {
		t.Fatalf("Expected reviewer to approve only shrill, got %+v", suggestions)
	}
}

func TestAutoTunerTaxonomy_ProviderError(t *testing.T) {
	tuner := AutoTuner{
		Provider: fakeProvider{err: errors.New("corpus unavailable")},
	}
	if _, err := tuner.Run(context.Background()); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestAutoTunerTaxonomy_ReviewerError(t *testing.T) {
	stats := []DriftStats{
		{Category: "pitch", Keyword: "high", Coverage: 0.3, MissedDocs: 50},
	}

	tuner := AutoTuner{
		Provider: fakeProvider{stats: stats},
		Reviewer: fakeReviewer{err: errors.New("review aborted")},
	}
	if _, err := tuner.Run(context.Background()); err == nil {
		t.Fatal("expected reviewer error")
	}
}

func TestCorpusDrift(t *testing.T) {
	tax := ingest.NewTaxonomy()
	tax.AddCategory("quality", []string{"buzzy", "reedy"})
	pipeline := ingest.NewPipeline(ingest.NewTokenizer([]string{"and"}), nil, nil, tax)

	texts := []string{
		"buzzy trill",
		"buzzy rattle and trill",
		"reedy trill",
		"sweet whistle",
	}
	docs := make([]ingest.ProcessedDoc, len(texts))
	for i, text := range texts {
		docs[i] = pipeline.Process("r", text)
	}

	stats, err := CorpusDrift{Docs: docs, Taxonomy: tax, Stops: stoplist.NewManager([]string{"sweet"})}.TaxonomyDrift(context.Background())
	if err != nil {
		t.Fatalf("TaxonomyDrift: %v", err)
	}

	byKeyword := make(map[string]DriftStats)
	for _, s := range stats {
		byKeyword[s.Keyword] = s
	}

	reedy := byKeyword["reedy"]
	if reedy.Type != DriftLowCoverage || reedy.MissedDocs != 2 || reedy.SupportDocs != 1 {
		t.Errorf("Unexpected reedy drift %+v", reedy)
	}
	trill := byKeyword["trill"]
	if trill.Type != DriftOrphan || trill.Category != "quality" || trill.Coverage != 0.75 {
		t.Errorf("Unexpected trill drift %+v", trill)
	}
	if whistle := byKeyword["whistle"]; whistle.Type != DriftOrphan || whistle.Category != "" {
		t.Errorf("Expected uncategorized whistle orphan, got %+v", whistle)
	}
	if _, ok := byKeyword["sweet"]; ok {
		t.Error("Stop word reported as orphan")
	}
	if _, ok := byKeyword["and"]; ok {
		t.Error("Tokenizer stop word reported as orphan")
	}
}

func TestCorpusDriftNilTaxonomy(t *testing.T) {
	if _, err := (CorpusDrift{}).TaxonomyDrift(context.Background()); err == nil {
		t.Fatal("expected error for nil taxonomy")
	}
}
