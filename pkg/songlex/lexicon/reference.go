package lexicon

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/cognicore/songlex/internal/tabular"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Perceptual modalities of the sensorimotor norms.
var Modalities = []string{"auditory", "gustatory", "haptic", "interoceptive", "olfactory", "visual"}

var (
	wordAliases     = []string{"word", "term", "adjective", "lemma"}
	freqAliases     = []string{"frequency", "freq", "count", "n"}
	dominantAliases = []string{"dominant.perceptual", "dominantperceptual", "dominantmodality", "dominant", "modality"}
	posAliases      = []string{"dompos", "pos", "tag", "partofspeech"}
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key folds a word to the form reference tables are joined on: lowercase,
// trimmed, diacritics removed.
func Key(word string) string {
	s := strings.ToLower(strings.TrimSpace(word))
	if folded, _, err := transform.String(stripAccents, s); err == nil {
		return folded
	}
	return s
}

// WordList is a static reference list, e.g. timbre adjectives. Frequencies
// is nil when the source has no frequency column.
type WordList struct {
	Name        string
	Words       []string
	Frequencies map[string]int64
}

// Contains reports whether the list holds word.
func (w WordList) Contains(word string) bool {
	k := Key(word)
	i := sort.SearchStrings(w.Words, k)
	return i < len(w.Words) && w.Words[i] == k
}

// HasFrequencies reports whether reference frequencies were loaded.
func (w WordList) HasFrequencies() bool {
	return len(w.Frequencies) > 0
}

// ModalityNorm holds the perceptual strength ratings of one word.
type ModalityNorm struct {
	Word      string
	Dominant  string
	Strengths map[string]float64
}

// POSEntry is the dominant part of speech of one word.
type POSEntry struct {
	Word string
	POS  string
}

// LoadWordList reads a word list with an optional frequency column.
func LoadWordList(path, name string) (WordList, error) {
	table, err := tabular.ReadFile(path)
	if err != nil {
		return WordList{}, fmt.Errorf("load word list %s: %w", name, err)
	}

	list := WordList{Name: name}
	seen := make(map[string]bool)
	withFreq := false
	for _, row := range table.Rows {
		word := Key(row.Get(wordAliases...))
		if word == "" {
			continue
		}
		if seen[word] {
			log.Printf("WARNING: %s line %d: duplicate word %q ignored", path, row.Line, word)
			continue
		}
		seen[word] = true
		list.Words = append(list.Words, word)

		if raw := row.Get(freqAliases...); raw != "" {
			n, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
			if err != nil || n < 0 {
				log.Printf("WARNING: %s line %d: bad frequency %q for %q", path, row.Line, raw, word)
				continue
			}
			if list.Frequencies == nil {
				list.Frequencies = make(map[string]int64)
			}
			list.Frequencies[word] = n
			withFreq = true
		}
	}
	if len(list.Words) == 0 {
		return WordList{}, fmt.Errorf("load word list %s: no words in %s", name, path)
	}
	if !withFreq {
		list.Frequencies = nil
	}
	sort.Strings(list.Words)
	return list, nil
}

// LoadModalityNorms reads sensorimotor norms. Strength columns may be
// named "auditory", "auditory.mean" or "Auditory_mean". When no dominant
// column is present the strongest modality is used.
func LoadModalityNorms(path string) ([]ModalityNorm, error) {
	table, err := tabular.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load modality norms: %w", err)
	}

	var out []ModalityNorm
	seen := make(map[string]bool)
	for _, row := range table.Rows {
		word := Key(row.Get(wordAliases...))
		if word == "" || seen[word] {
			continue
		}

		n := ModalityNorm{Word: word, Strengths: make(map[string]float64)}
		for _, m := range Modalities {
			raw := row.Get(m, m+".mean", m+"mean")
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				log.Printf("WARNING: %s line %d: bad %s strength %q", path, row.Line, m, raw)
				continue
			}
			n.Strengths[m] = v
		}

		n.Dominant = strings.ToLower(row.Get(dominantAliases...))
		if n.Dominant == "" {
			n.Dominant = strongest(n.Strengths)
		}
		if n.Dominant == "" {
			log.Printf("WARNING: %s line %d: no modality for %q", path, row.Line, word)
			continue
		}

		seen[word] = true
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("load modality norms: no usable rows in %s", path)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Word < out[j].Word })
	return out, nil
}

// strongest returns the modality with the highest strength; ties go to
// the first in Modalities order.
func strongest(strengths map[string]float64) string {
	best, bestV := "", 0.0
	for _, m := range Modalities {
		if v, ok := strengths[m]; ok && (best == "" || v > bestV) {
			best, bestV = m, v
		}
	}
	return best
}

// LoadPOS reads a word → dominant part-of-speech table.
func LoadPOS(path string) ([]POSEntry, error) {
	table, err := tabular.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load pos list: %w", err)
	}

	var out []POSEntry
	seen := make(map[string]bool)
	for _, row := range table.Rows {
		word := Key(row.Get(wordAliases...))
		pos := strings.ToLower(row.Get(posAliases...))
		if word == "" || pos == "" || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, POSEntry{Word: word, POS: pos})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("load pos list: no usable rows in %s", path)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Word < out[j].Word })
	return out, nil
}

// ReferencePaths locates the reference tables. Empty paths are skipped.
type ReferencePaths struct {
	Timbre   string
	Modality string
	POS      string
}

// Reference bundles the read-only reference tables joined against the corpus.
type Reference struct {
	Timbre   WordList
	modality map[string]ModalityNorm
	pos      map[string]string
}

// NewReference builds a reference from already loaded tables.
func NewReference(timbre WordList, norms []ModalityNorm, pos []POSEntry) *Reference {
	r := &Reference{
		Timbre:   timbre,
		modality: make(map[string]ModalityNorm, len(norms)),
		pos:      make(map[string]string, len(pos)),
	}
	for _, n := range norms {
		r.modality[Key(n.Word)] = n
	}
	for _, p := range pos {
		r.pos[Key(p.Word)] = p.POS
	}
	return r
}

// LoadReference loads every configured reference table.
func LoadReference(paths ReferencePaths) (*Reference, error) {
	var (
		timbre WordList
		norms  []ModalityNorm
		pos    []POSEntry
		err    error
	)
	if paths.Timbre != "" {
		if timbre, err = LoadWordList(paths.Timbre, "timbre"); err != nil {
			return nil, err
		}
	}
	if paths.Modality != "" {
		if norms, err = LoadModalityNorms(paths.Modality); err != nil {
			return nil, err
		}
	}
	if paths.POS != "" {
		if pos, err = LoadPOS(paths.POS); err != nil {
			return nil, err
		}
	}
	return NewReference(timbre, norms, pos), nil
}

// IsTimbre reports whether word is on the timbre list.
func (r *Reference) IsTimbre(word string) bool {
	return r.Timbre.Contains(word)
}

// Modality returns the norm of word.
func (r *Reference) Modality(word string) (ModalityNorm, bool) {
	n, ok := r.modality[Key(word)]
	return n, ok
}

// POS returns the dominant part of speech of word.
func (r *Reference) POS(word string) (string, bool) {
	p, ok := r.pos[Key(word)]
	return p, ok
}

// ModalityList returns the normed words as a list for attestation.
func (r *Reference) ModalityList() WordList {
	return WordList{Name: "modality", Words: sortedKeys(r.modality)}
}

// POSList returns the tagged words as a list for attestation.
func (r *Reference) POSList() WordList {
	return WordList{Name: "pos", Words: sortedKeys(r.pos)}
}

// ModalityCounts counts normed words per dominant modality.
func (r *Reference) ModalityCounts() map[string]int64 {
	out := make(map[string]int64)
	for _, n := range r.modality {
		out[n.Dominant]++
	}
	return out
}

// POSCounts counts tagged words per part of speech.
func (r *Reference) POSCounts() map[string]int64 {
	out := make(map[string]int64)
	for _, p := range r.pos {
		out[p]++
	}
	return out
}

// Vocabulary returns every word known to any reference table, sorted.
// It seeds the lemmatizer's candidate check.
func (r *Reference) Vocabulary() []string {
	set := make(map[string]struct{})
	for _, w := range r.Timbre.Words {
		set[w] = struct{}{}
	}
	for w := range r.modality {
		set[w] = struct{}{}
	}
	for w := range r.pos {
		set[w] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
