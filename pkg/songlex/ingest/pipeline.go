package ingest

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Token is one normalized word of a voice description.
type Token struct {
	RecordID string
	Position int
	Surface  string
	Lemma    string
}

// ProcessedDoc represents a description after normalization
type ProcessedDoc struct {
	RecordID   string
	Text       string // lowercased text after span extraction and compound fusion
	Spans      []Span
	Tokens     []Token
	Categories []string
}

// Lemmas returns the lemma of each token in order.
func (d ProcessedDoc) Lemmas() []string {
	out := make([]string, len(d.Tokens))
	for i, tok := range d.Tokens {
		out[i] = tok.Lemma
	}
	return out
}

// Surfaces returns the surface form of each token in order.
func (d ProcessedDoc) Surfaces() []string {
	out := make([]string, len(d.Tokens))
	for i, tok := range d.Tokens {
		out[i] = tok.Surface
	}
	return out
}

// Pipeline runs the normalization steps in a fixed order:
// lowercase → span extraction → compound fusion → tokenization and
// stopword removal → lemmatization → descriptor tagging.
//
// Process does not mutate the pipeline, so a run can be repeated.
type Pipeline struct {
	tokenizer  *Tokenizer
	fuser      *CompoundFuser
	lemmatizer *Lemmatizer
	taxonomy   *Taxonomy
}

// NewPipeline creates a pipeline with the given components. Nil components
// are replaced with empty ones.
func NewPipeline(tokenizer *Tokenizer, fuser *CompoundFuser, lemmatizer *Lemmatizer, taxonomy *Taxonomy) *Pipeline {
	if tokenizer == nil {
		tokenizer = NewTokenizer(nil)
	}
	if fuser == nil {
		fuser = NewCompoundFuser(nil)
	}
	if lemmatizer == nil {
		lemmatizer = NewLemmatizer(nil)
	}
	if taxonomy == nil {
		taxonomy = NewTaxonomy()
	}
	return &Pipeline{
		tokenizer:  tokenizer,
		fuser:      fuser,
		lemmatizer: lemmatizer,
		taxonomy:   taxonomy,
	}
}

// Normalize lowercases text, extracts spans and fuses compounds.
func (p *Pipeline) Normalize(text string) (string, []Span) {
	lowered := strings.ToLower(norm.NFC.String(text))
	extracted, spans := ExtractSpans(lowered)
	return p.fuser.Fuse(extracted), spans
}

// Process runs one description through the full pipeline.
func (p *Pipeline) Process(recordID, text string) ProcessedDoc {
	normalized, spans := p.Normalize(text)

	words := p.tokenizer.Tokenize(normalized)
	tokens := make([]Token, 0, len(words))
	for i, w := range words {
		tokens = append(tokens, Token{
			RecordID: recordID,
			Position: i,
			Surface:  w,
			Lemma:    p.lemmatizer.Lemma(w),
		})
	}

	doc := ProcessedDoc{
		RecordID: recordID,
		Text:     normalized,
		Spans:    spans,
		Tokens:   tokens,
	}
	doc.Categories = p.taxonomy.AssignCategories(doc.Lemmas())
	return doc
}

// Lemmatizer exposes the pipeline's lemmatizer.
func (p *Pipeline) Lemmatizer() *Lemmatizer {
	return p.lemmatizer
}

// Tokenizer exposes the pipeline's tokenizer.
func (p *Pipeline) Tokenizer() *Tokenizer {
	return p.tokenizer
}
