// Package lsa builds an exploratory latent semantic space over species
// descriptions: a term x species count matrix, TF-IDF weighted and reduced
// with a truncated SVD, with nearest-neighbor and clustering queries on
// top. It produces a similarity space for inspection, nothing more.
package lsa

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"
)

// Options are the fixed thresholds of the model.
type Options struct {
	MinDocTokens int `yaml:"min_doc_tokens"` // species with fewer tokens are dropped
	MinTermFreq  int `yaml:"min_term_freq"`  // terms with a lower total frequency are dropped
	Dimensions   int `yaml:"dimensions"`     // retained singular dimensions, clamped to rank
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{MinDocTokens: 5, MinTermFreq: 3, Dimensions: 50}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinDocTokens <= 0 {
		o.MinDocTokens = d.MinDocTokens
	}
	if o.MinTermFreq <= 0 {
		o.MinTermFreq = d.MinTermFreq
	}
	if o.Dimensions <= 0 {
		o.Dimensions = d.Dimensions
	}
	return o
}

// Space is a reduced term and document space.
type Space struct {
	Terms []string // sorted
	Docs  []string // sorted
	// Values holds the retained singular values, largest first.
	Values []float64
	// DroppedDocs lists species removed by the thresholds.
	DroppedDocs []string

	termIndex map[string]int
	docIndex  map[string]int
	termVecs  *mat.Dense // len(Terms) x k, U_k Σ_k
	docVecs   *mat.Dense // len(Docs) x k, V_k Σ_k
	totalVar  float64
}

// Build filters docs (species key → lemmas), weights the remaining counts
// with TF-IDF and projects them with a thin SVD.
func Build(docs map[string][]string, opts Options) (*Space, error) {
	opts = opts.withDefaults()

	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dropped []string
	kept := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(docs[k]) < opts.MinDocTokens {
			dropped = append(dropped, k)
			continue
		}
		kept = append(kept, k)
	}

	freq := make(map[string]int)
	for _, k := range kept {
		for _, tok := range docs[k] {
			if tok != "" {
				freq[tok]++
			}
		}
	}
	var terms []string
	for term, n := range freq {
		if n >= opts.MinTermFreq {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	termIndex := make(map[string]int, len(terms))
	for i, t := range terms {
		termIndex[t] = i
	}

	// species left without any retained term carry no signal
	var docNames []string
	for _, k := range kept {
		has := false
		for _, tok := range docs[k] {
			if _, ok := termIndex[tok]; ok {
				has = true
				break
			}
		}
		if !has {
			dropped = append(dropped, k)
			continue
		}
		docNames = append(docNames, k)
	}
	sort.Strings(dropped)

	if len(terms) < 2 || len(docNames) < 2 {
		return nil, fmt.Errorf("lsa: %d terms and %d documents left after filtering: %w",
			len(terms), len(docNames), internalerr.ErrInvalidInput)
	}

	counts := mat.NewDense(len(terms), len(docNames), nil)
	docIndex := make(map[string]int, len(docNames))
	for j, k := range docNames {
		docIndex[k] = j
		for _, tok := range docs[k] {
			if i, ok := termIndex[tok]; ok {
				counts.Set(i, j, counts.At(i, j)+1)
			}
		}
	}

	weighted, err := nlp.NewTfidfTransformer().FitTransform(counts)
	if err != nil {
		return nil, fmt.Errorf("lsa: tf-idf: %w", err)
	}

	var svd mat.SVD
	if ok := svd.Factorize(mat.DenseCopyOf(weighted), mat.SVDThin); !ok {
		return nil, fmt.Errorf("lsa: svd did not converge: %w", internalerr.ErrInvalidInput)
	}
	values := svd.Values(nil)

	rank := 0
	for _, v := range values {
		if v > 1e-10*values[0] {
			rank++
		}
	}
	k := opts.Dimensions
	if k > rank {
		k = rank
	}
	if k == 0 {
		return nil, fmt.Errorf("lsa: zero-rank matrix: %w", internalerr.ErrInvalidInput)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	sigma := mat.NewDiagDense(k, values[:k])
	termVecs := mat.NewDense(len(terms), k, nil)
	termVecs.Mul(u.Slice(0, len(terms), 0, k), sigma)
	docVecs := mat.NewDense(len(docNames), k, nil)
	docVecs.Mul(v.Slice(0, len(docNames), 0, k), sigma)

	var total float64
	for _, s := range values {
		total += s * s
	}

	if len(dropped) > 0 {
		log.Printf("lsa: %d of %d species below thresholds", len(dropped), len(keys))
	}

	return &Space{
		Terms:       terms,
		Docs:        docNames,
		Values:      append([]float64(nil), values[:k]...),
		DroppedDocs: dropped,
		termIndex:   termIndex,
		docIndex:    docIndex,
		termVecs:    termVecs,
		docVecs:     docVecs,
		totalVar:    total,
	}, nil
}

// Dimensions returns the number of retained dimensions.
func (s *Space) Dimensions() int {
	return len(s.Values)
}

// ExplainedVariance returns the share of the weighted matrix's variance
// captured by the retained dimensions.
func (s *Space) ExplainedVariance() float64 {
	if s.totalVar == 0 {
		return 0
	}
	var kept float64
	for _, v := range s.Values {
		kept += v * v
	}
	return kept / s.totalVar
}

// TermVector returns the reduced vector of a term.
func (s *Space) TermVector(term string) ([]float64, error) {
	i, ok := s.termIndex[term]
	if !ok {
		return nil, fmt.Errorf("lsa: term %q: %w", term, internalerr.ErrNotFound)
	}
	return mat.Row(nil, i, s.termVecs), nil
}

// Neighbor is a similarity query hit.
type Neighbor struct {
	Name       string
	Similarity float64
}

// Similarity returns the cosine similarity of two terms.
func (s *Space) Similarity(a, b string) (float64, error) {
	va, err := s.TermVector(a)
	if err != nil {
		return 0, err
	}
	vb, err := s.TermVector(b)
	if err != nil {
		return 0, err
	}
	return cosine(va, vb), nil
}

// Neighbors returns the k terms closest to term. k <= 0 returns all.
func (s *Space) Neighbors(term string, k int) ([]Neighbor, error) {
	i, ok := s.termIndex[term]
	if !ok {
		return nil, fmt.Errorf("lsa: term %q: %w", term, internalerr.ErrNotFound)
	}
	return nearest(s.termVecs, s.Terms, i, k), nil
}

// DocNeighbors returns the k species closest to doc. k <= 0 returns all.
func (s *Space) DocNeighbors(doc string, k int) ([]Neighbor, error) {
	i, ok := s.docIndex[doc]
	if !ok {
		return nil, fmt.Errorf("lsa: document %q: %w", doc, internalerr.ErrNotFound)
	}
	return nearest(s.docVecs, s.Docs, i, k), nil
}

func nearest(vecs *mat.Dense, names []string, self, k int) []Neighbor {
	query := mat.Row(nil, self, vecs)
	out := make([]Neighbor, 0, len(names)-1)
	for j, name := range names {
		if j == self {
			continue
		}
		out = append(out, Neighbor{Name: name, Similarity: cosine(query, mat.Row(nil, j, vecs))})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Similarity != out[b].Similarity {
			return out[a].Similarity > out[b].Similarity
		}
		return out[a].Name < out[b].Name
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// cosine is 0 when either vector is zero.
func cosine(a, b []float64) float64 {
	va, vb := mat.NewVecDense(len(a), a), mat.NewVecDense(len(b), b)
	if mat.Norm(va, 2) == 0 || mat.Norm(vb, 2) == 0 {
		return 0
	}
	sim := nlp.CosineSimilarity(va, vb)
	if math.IsNaN(sim) {
		return 0
	}
	return math.Max(-1, math.Min(1, sim))
}
