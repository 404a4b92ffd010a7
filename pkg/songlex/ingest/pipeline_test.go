package ingest

import (
	"reflect"
	"testing"
)

func newTestPipeline() *Pipeline {
	tokenizer := NewTokenizer([]string{"a", "and", "the", "with"})
	fuser := NewCompoundFuser([]DictEntry{
		{Canonical: "high pitched", Category: "pitch"},
	})
	lemmatizer := NewLemmatizer(fuser.Compounds())
	taxonomy := NewTaxonomy()
	taxonomy.AddCategory("pitch", []string{"high-pitched", "low"})
	taxonomy.AddCategory("quality", []string{"whistle"})
	taxonomy.AddCategory("tempo", []string{"rapid"})
	return NewPipeline(tokenizer, fuser, lemmatizer, taxonomy)
}

func TestPipelineProcess(t *testing.T) {
	p := newTestPipeline()

	doc := p.Process("sibley:4", `A High pitched "tsee-tsee" whistle, with *rare* trills.`)

	expectedSurfaces := []string{"high-pitched", "onomatopoeia", "whistle", "marker", "trills"}
	if !reflect.DeepEqual(doc.Surfaces(), expectedSurfaces) {
		t.Errorf("Expected surfaces %v, got %v", expectedSurfaces, doc.Surfaces())
	}

	expectedLemmas := []string{"high-pitched", "onomatopoeia", "whistle", "marker", "trill"}
	if !reflect.DeepEqual(doc.Lemmas(), expectedLemmas) {
		t.Errorf("Expected lemmas %v, got %v", expectedLemmas, doc.Lemmas())
	}

	if len(doc.Spans) != 2 || doc.Spans[0].Text != "tsee-tsee" || doc.Spans[1].Kind != SpanMarker {
		t.Errorf("Unexpected spans: %v", doc.Spans)
	}

	expectedCats := []string{"pitch", "quality"}
	if !reflect.DeepEqual(doc.Categories, expectedCats) {
		t.Errorf("Expected categories %v, got %v", expectedCats, doc.Categories)
	}

	for i, tok := range doc.Tokens {
		if tok.Position != i {
			t.Errorf("Token %d has position %d", i, tok.Position)
		}
		if tok.RecordID != "sibley:4" {
			t.Errorf("Token %d has record ID %q", i, tok.RecordID)
		}
	}
}

func TestPipelineDeterministic(t *testing.T) {
	p := newTestPipeline()
	text := `Song a rapid series of "chip" notes; High pitched and thin.`

	first := p.Process("r1", text)
	second := p.Process("r1", text)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Process should be deterministic:\n%+v\n%+v", first, second)
	}
}

func TestPipelineNilComponents(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil)

	doc := p.Process("r1", "Clear whistles")
	if !reflect.DeepEqual(doc.Lemmas(), []string{"clear", "whistle"}) {
		t.Errorf("Unexpected lemmas: %v", doc.Lemmas())
	}
	if len(doc.Categories) != 0 {
		t.Errorf("Expected no categories, got %v", doc.Categories)
	}
}

func TestPipelineEmptyText(t *testing.T) {
	p := newTestPipeline()

	doc := p.Process("r1", "")
	if len(doc.Tokens) != 0 || len(doc.Spans) != 0 {
		t.Errorf("Expected empty document, got %+v", doc)
	}
}
