package ingest

import (
	"strings"

	"github.com/cognicore/songlex/pkg/songlex/lexicon"
)

// detachment rules in the order they are tried: noun, verb, adjective
var detachRules = []struct{ suffix, replace string }{
	{"s", ""}, {"ses", "s"}, {"xes", "x"}, {"zes", "z"}, {"ches", "ch"}, {"shes", "sh"},
	{"men", "man"}, {"ies", "y"},
	{"es", "e"}, {"es", ""}, {"ed", "e"}, {"ed", ""}, {"ing", "e"}, {"ing", ""},
	{"er", ""}, {"est", ""}, {"er", "e"}, {"est", "e"},
}

// Lemmatizer reduces tokens to a base form.
//
// Exceptions come back unchanged. Irregular forms go through the lexicon.
// A word already in the known vocabulary is its own lemma. Otherwise every
// detachment rule is tried and the known candidate that detaches the least
// wins, so "notes" maps to "note" even when "not" is known. Without a
// vocabulary hit a conservative plural rule applies.
type Lemmatizer struct {
	exceptions map[string]struct{}
	irregular  *lexicon.Lexicon
	vocabulary map[string]struct{}
}

// NewLemmatizer creates a lemmatizer that leaves the given words untouched.
func NewLemmatizer(exceptions []string) *Lemmatizer {
	l := &Lemmatizer{
		exceptions: make(map[string]struct{}),
		vocabulary: make(map[string]struct{}),
	}
	l.AddException(PlaceholderOnomatopoeia, PlaceholderMarker)
	l.AddException(exceptions...)
	return l
}

// SetLexicon assigns the irregular-form lexicon ("sang" → "sing").
func (l *Lemmatizer) SetLexicon(lex *lexicon.Lexicon) {
	l.irregular = lex
}

// AddException marks words that must not be lemmatized.
func (l *Lemmatizer) AddException(words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			l.exceptions[w] = struct{}{}
		}
	}
}

// AddVocabulary registers known base forms used to validate candidates.
func (l *Lemmatizer) AddVocabulary(words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			l.vocabulary[w] = struct{}{}
		}
	}
}

// Lemma returns the base form of word. It is never empty for a non-empty word.
func (l *Lemmatizer) Lemma(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return ""
	}
	if _, ok := l.exceptions[w]; ok {
		return w
	}
	if l.irregular != nil && l.irregular.Has(w) {
		if lemma := l.irregular.Normalize(w); lemma != "" {
			return lemma
		}
	}

	if lemma, ok := l.morph(w); ok {
		return lemma
	}
	if lemma := plural(w); lemma != "" {
		return lemma
	}
	return w
}

// morph returns w when it is known, else the known rule candidate with the
// shortest detached suffix. On equal suffixes the bare stem beats a restored
// "e" ("singing" is "sing", not "singe").
func (l *Lemmatizer) morph(w string) (string, bool) {
	if len(l.vocabulary) == 0 {
		return "", false
	}
	if _, ok := l.vocabulary[w]; ok {
		return w, true
	}

	best, bestSuffix, bestReplace := "", 0, 0
	for _, r := range detachRules {
		if !strings.HasSuffix(w, r.suffix) || len(w)-len(r.suffix) < 2 {
			continue
		}
		cand := w[:len(w)-len(r.suffix)] + r.replace
		if _, ok := l.vocabulary[cand]; !ok {
			continue
		}
		if best == "" || len(r.suffix) < bestSuffix ||
			(len(r.suffix) == bestSuffix && len(r.replace) < bestReplace) {
			best, bestSuffix, bestReplace = cand, len(r.suffix), len(r.replace)
		}
	}
	return best, best != ""
}

// plural strips regular English plural endings only where that is safe.
func plural(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "shes"), strings.HasSuffix(w, "xes"):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") &&
		!strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us") && !strings.HasSuffix(w, "is"):
		return w[:len(w)-1]
	}
	return w
}
