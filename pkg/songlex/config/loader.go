package config

import (
	"fmt"

	"github.com/cognicore/songlex/pkg/songlex/ingest"
	"github.com/cognicore/songlex/pkg/songlex/lexicon"
	"github.com/cognicore/songlex/pkg/songlex/stoplist"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	StoplistPath   string
	DictPath       string
	TaxonomyPath   string
	IrregularsPath string
	Exceptions     []string
	Reference      lexicon.ReferencePaths
}

// Components holds all loaded configuration components
type Components struct {
	Stoplist   *stoplist.Manager
	Tokenizer  *ingest.Tokenizer
	Fuser      *ingest.CompoundFuser
	Lemmatizer *ingest.Lemmatizer
	Taxonomy   *ingest.Taxonomy
	Irregulars *lexicon.Lexicon
	Reference  *lexicon.Reference
}

// Pipeline assembles the text normalizer from the components.
func (c *Components) Pipeline() *ingest.Pipeline {
	return ingest.NewPipeline(c.Tokenizer, c.Fuser, c.Lemmatizer, c.Taxonomy)
}

func lexiconPaths(r ReferenceConfig) lexicon.ReferencePaths {
	return lexicon.ReferencePaths{Timbre: r.Timbre, Modality: r.Modality, POS: r.POS}
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	// Stoplist
	if l.StoplistPath != "" {
		mgr, err := stoplist.Load(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = mgr
	} else {
		comp.Stoplist = stoplist.NewManager(nil)
	}
	comp.Tokenizer = ingest.NewTokenizer(comp.Stoplist.All())

	// Compound dictionary
	var entries []ingest.DictEntry
	if l.DictPath != "" {
		dict, err := LoadDict(l.DictPath)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		entries = make([]ingest.DictEntry, len(dict.Entries))
		for i, e := range dict.Entries {
			entries[i] = ingest.DictEntry{
				Canonical: e.Canonical,
				Variants:  e.Variants,
				Category:  e.Category,
			}
		}
	}
	comp.Fuser = ingest.NewCompoundFuser(entries)

	// Descriptor taxonomy
	comp.Taxonomy = ingest.NewTaxonomy()
	if l.TaxonomyPath != "" {
		tax, err := LoadTaxonomy(l.TaxonomyPath)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		for name, keywords := range tax.Categories {
			comp.Taxonomy.AddCategory(name, keywords)
		}
	}

	// Irregular forms
	if l.IrregularsPath != "" {
		lex, err := lexicon.LoadFromYAML(l.IrregularsPath)
		if err != nil {
			return nil, fmt.Errorf("load irregulars: %w", err)
		}
		comp.Irregulars = lex
	} else {
		comp.Irregulars = lexicon.New()
	}

	// Reference lists
	ref, err := lexicon.LoadReference(l.Reference)
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}
	comp.Reference = ref

	// Compounds are never lemmatized or dropped as stopwords.
	compounds := comp.Fuser.Compounds()
	comp.Stoplist.Protect(compounds...)

	comp.Lemmatizer = ingest.NewLemmatizer(append(append([]string{}, l.Exceptions...), compounds...))
	comp.Lemmatizer.SetLexicon(comp.Irregulars)
	comp.Lemmatizer.AddVocabulary(ref.Vocabulary()...)
	comp.Lemmatizer.AddVocabulary(comp.Irregulars.Lemmas()...)
	for _, cat := range comp.Taxonomy.Categories() {
		comp.Lemmatizer.AddVocabulary(comp.Taxonomy.Keywords(cat)...)
	}

	return comp, nil
}
