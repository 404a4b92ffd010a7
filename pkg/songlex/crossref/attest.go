// Package crossref joins corpus tokens against the reference word lists
// and tests whether the corpus over- or under-uses reference categories.
package crossref

import (
	"sort"

	"github.com/cognicore/songlex/pkg/songlex/ingest"
	"github.com/cognicore/songlex/pkg/songlex/lexicon"
)

// Attestation records whether a reference word occurs in the corpus.
type Attestation struct {
	Word     string
	Attested bool
	Count    int64
}

// Attest flags every word of list present in vocab (lemma → corpus count).
// The result is sorted by word and depends only on its inputs.
func Attest(list lexicon.WordList, vocab map[string]int64) []Attestation {
	keyed := make(map[string]int64, len(vocab))
	for w, n := range vocab {
		keyed[lexicon.Key(w)] += n
	}

	out := make([]Attestation, 0, len(list.Words))
	seen := make(map[string]struct{}, len(list.Words))
	for _, w := range list.Words {
		k := lexicon.Key(w)
		if _, dup := seen[k]; dup || k == "" {
			continue
		}
		seen[k] = struct{}{}
		n := keyed[k]
		out = append(out, Attestation{Word: k, Attested: n > 0, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Word < out[j].Word })
	return out
}

// Coverage summarizes an attestation run.
type Coverage struct {
	List     string
	Total    int
	Attested int
	Share    float64 // Attested / Total
}

// Summarize computes coverage of a list.
func Summarize(list string, atts []Attestation) Coverage {
	c := Coverage{List: list, Total: len(atts)}
	for _, a := range atts {
		if a.Attested {
			c.Attested++
		}
	}
	if c.Total > 0 {
		c.Share = float64(c.Attested) / float64(c.Total)
	}
	return c
}

// AnnotatedToken is a corpus token with its reference joins. Empty POS or
// Modality means the word is not attested in that table.
type AnnotatedToken struct {
	ingest.Token
	POS      string
	Modality string
	Timbre   bool
}

// Annotate joins part of speech, dominant modality and timbre membership
// onto tokens by exact surface match, falling back to the lemma.
func Annotate(tokens []ingest.Token, ref *lexicon.Reference) []AnnotatedToken {
	out := make([]AnnotatedToken, len(tokens))
	for i, tok := range tokens {
		at := AnnotatedToken{Token: tok}
		if ref == nil {
			out[i] = at
			continue
		}
		forms := []string{tok.Surface, tok.Lemma}
		for _, f := range forms {
			if pos, ok := ref.POS(f); ok {
				at.POS = pos
				break
			}
		}
		for _, f := range forms {
			if n, ok := ref.Modality(f); ok {
				at.Modality = n.Dominant
				break
			}
		}
		at.Timbre = ref.IsTimbre(tok.Surface) || ref.IsTimbre(tok.Lemma)
		out[i] = at
	}
	return out
}

// LemmaCounts counts corpus occurrences per lemma.
func LemmaCounts(tokens []ingest.Token) map[string]int64 {
	out := make(map[string]int64)
	for _, t := range tokens {
		if t.Lemma != "" {
			out[t.Lemma]++
		}
	}
	return out
}
