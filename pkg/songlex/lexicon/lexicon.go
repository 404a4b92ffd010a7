package lexicon

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon maps irregular word forms onto their lemma:
//   - verbs: sang, sung → sing
//   - nouns: geese → goose
//   - comparatives: better, best → good
//
// It is bidirectional: a form normalizes to its lemma and a lemma expands
// to every known form. The lemmatizer consults it before any suffix rule.
type Lexicon struct {
	// lemma -> all forms (lemma first)
	forms map[string][]string

	// form -> lemma
	reverseIndex map[string]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		forms:        make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// LoadFromYAML loads irregular forms from a YAML file.
//
// Expected format:
//
//	irregulars:
//	  - lemma: sing
//	    forms: [sang, sung]
//	  - lemma: good
//	    forms: [better, best]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Irregulars []struct {
			Lemma string   `yaml:"lemma"`
			Forms []string `yaml:"forms"`
		} `yaml:"irregulars"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	lex := New()
	for _, entry := range doc.Irregulars {
		if strings.TrimSpace(entry.Lemma) == "" {
			continue
		}
		lex.AddGroup(entry.Lemma, entry.Forms)
	}
	return lex, nil
}

// AddGroup registers the forms of a lemma. The lemma itself is always the
// first form. Re-adding a lemma replaces its previous forms.
func (l *Lexicon) AddGroup(lemma string, forms []string) {
	lemma = strings.ToLower(strings.TrimSpace(lemma))

	if old, exists := l.forms[lemma]; exists {
		for _, f := range old {
			delete(l.reverseIndex, f)
		}
	}

	normalized := []string{lemma}
	seen := map[string]bool{lemma: true}
	for _, f := range forms {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !seen[f] {
			normalized = append(normalized, f)
			seen[f] = true
		}
	}

	l.forms[lemma] = normalized
	for _, f := range normalized {
		l.reverseIndex[f] = lemma
	}
}

// Normalize returns the lemma of a form, or the form itself when unknown.
func (l *Lexicon) Normalize(word string) string {
	word = strings.ToLower(word)
	if lemma, ok := l.reverseIndex[word]; ok {
		return lemma
	}
	return word
}

// Forms returns every known form of the word's lemma (lemma first), or
// just the word when unknown.
func (l *Lexicon) Forms(word string) []string {
	word = strings.ToLower(word)
	if forms, ok := l.forms[l.Normalize(word)]; ok {
		return forms
	}
	return []string{word}
}

// Has reports whether the word is a known lemma or form.
func (l *Lexicon) Has(word string) bool {
	_, ok := l.reverseIndex[strings.ToLower(word)]
	return ok
}

// Lemmas returns all lemmas, sorted. Used to seed lemmatizer vocabulary.
func (l *Lexicon) Lemmas() []string {
	out := make([]string, 0, len(l.forms))
	for lemma := range l.forms {
		out = append(out, lemma)
	}
	sort.Strings(out)
	return out
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	total := 0
	for _, forms := range l.forms {
		total += len(forms)
	}
	return Stats{Groups: len(l.forms), TotalForms: total}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Groups     int // number of lemmas
	TotalForms int // forms across all groups, lemmas included
}
