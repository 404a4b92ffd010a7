package crossref

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"github.com/cognicore/songlex/pkg/songlex/lexicon"
	"gonum.org/v1/gonum/stat/distuv"
)

// ResidualCutoff is the two-sided 5% critical value of the standard normal.
const ResidualCutoff = 1.96

// Direction tells whether the corpus over- or under-uses a category.
type Direction string

const (
	Over  Direction = "over"
	Under Direction = "under"
	None  Direction = "none"
)

// Cell is one category of a 2 x k contingency table. Expected and the
// residuals refer to the corpus row.
type Cell struct {
	Category    string
	Reference   int64
	Observed    int64
	Expected    float64
	Residual    float64 // Pearson (O-E)/sqrt(E)
	StdResidual float64 // adjusted standardized residual
	Direction   Direction
}

// Result of a chi-square test of homogeneity between reference and corpus.
type Result struct {
	Cells     []Cell
	Statistic float64
	DF        int
	PValue    float64
	N         int64
}

// Significant returns the cells whose standardized residual passes the cutoff.
func (r Result) Significant() []Cell {
	var out []Cell
	for _, c := range r.Cells {
		if c.Direction != None {
			out = append(out, c)
		}
	}
	return out
}

// ChiSquare compares the reference and observed distributions over the
// union of categories and the keys of both maps. Absent cells are filled
// with zero before expected counts are computed. Columns with a zero total
// carry no information and keep zero residuals.
func ChiSquare(reference, observed map[string]int64, categories []string) (Result, error) {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	for c := range reference {
		set[c] = struct{}{}
	}
	for c := range observed {
		set[c] = struct{}{}
	}
	cats := make([]string, 0, len(set))
	for c := range set {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var refTotal, obsTotal int64
	nonEmpty := 0
	for _, c := range cats {
		r, o := reference[c], observed[c]
		if r < 0 || o < 0 {
			return Result{}, fmt.Errorf("chi-square: negative count for %q: %w", c, internalerr.ErrInvalidInput)
		}
		refTotal += r
		obsTotal += o
		if r+o > 0 {
			nonEmpty++
		}
	}
	if refTotal == 0 || obsTotal == 0 {
		return Result{}, fmt.Errorf("chi-square: empty row: %w", internalerr.ErrInvalidInput)
	}
	if nonEmpty < 2 {
		return Result{}, fmt.Errorf("chi-square: need at least two non-empty categories, have %d: %w",
			nonEmpty, internalerr.ErrInvalidInput)
	}

	n := float64(refTotal + obsTotal)
	refShare := float64(refTotal) / n
	obsShare := float64(obsTotal) / n

	res := Result{N: refTotal + obsTotal, DF: nonEmpty - 1}
	for _, c := range cats {
		cell := Cell{Category: c, Reference: reference[c], Observed: observed[c], Direction: None}
		col := float64(cell.Reference + cell.Observed)
		if col == 0 {
			res.Cells = append(res.Cells, cell)
			continue
		}

		expRef := col * refShare
		expObs := col * obsShare
		dRef := float64(cell.Reference) - expRef
		dObs := float64(cell.Observed) - expObs
		res.Statistic += dRef*dRef/expRef + dObs*dObs/expObs

		cell.Expected = expObs
		cell.Residual = dObs / math.Sqrt(expObs)
		cell.StdResidual = dObs / math.Sqrt(expObs*(1-obsShare)*(1-col/n))
		switch {
		case cell.StdResidual > ResidualCutoff:
			cell.Direction = Over
		case cell.StdResidual < -ResidualCutoff:
			cell.Direction = Under
		}
		res.Cells = append(res.Cells, cell)
	}

	res.PValue = distuv.ChiSquared{K: float64(res.DF)}.Survival(res.Statistic)
	return res, nil
}

// FrequencyProfile compares the reference frequencies of a word list with
// the corpus counts of the same words. Words the corpus never uses are
// zero-filled, not dropped.
func FrequencyProfile(list lexicon.WordList, vocab map[string]int64) (Result, error) {
	if !list.HasFrequencies() {
		return Result{}, fmt.Errorf("frequency profile %s: list has no frequencies: %w", list.Name, internalerr.ErrInvalidInput)
	}
	observed := make(map[string]int64, len(list.Words))
	for _, a := range Attest(list, vocab) {
		observed[a.Word] = a.Count
	}
	return ChiSquare(list.Frequencies, observed, list.Words)
}

// ModalityProfile compares the dominant modalities of the normed words
// with the modalities of the corpus tokens that have a norm.
func ModalityProfile(ref *lexicon.Reference, tokens []AnnotatedToken) (Result, error) {
	observed := make(map[string]int64)
	for _, t := range tokens {
		if t.Modality != "" {
			observed[t.Modality]++
		}
	}
	return ChiSquare(ref.ModalityCounts(), observed, lexicon.Modalities)
}

// POSProfile compares the part-of-speech distribution of the tagged words
// with that of the corpus tokens that have a tag.
func POSProfile(ref *lexicon.Reference, tokens []AnnotatedToken) (Result, error) {
	observed := make(map[string]int64)
	for _, t := range tokens {
		if t.POS != "" {
			observed[t.POS]++
		}
	}
	return ChiSquare(ref.POSCounts(), observed, nil)
}
