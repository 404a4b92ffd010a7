package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"gonum.org/v1/gonum/stat"
)

// Summary is a five-number summary with mean and sample standard deviation.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe summarizes values. NaN entries are ignored. Quantiles are
// empirical: the smallest value whose cumulative share reaches p.
func Describe(values []float64) (Summary, error) {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}
	if len(x) == 0 {
		return Summary{}, fmt.Errorf("describe: no values: %w", internalerr.ErrInvalidInput)
	}
	sort.Float64s(x)

	s := Summary{
		N:      len(x),
		Mean:   stat.Mean(x, nil),
		Min:    x[0],
		Max:    x[len(x)-1],
		Q1:     stat.Quantile(0.25, stat.Empirical, x, nil),
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, x, nil),
	}
	if len(x) > 1 {
		s.StdDev = stat.StdDev(x, nil)
	}
	return s, nil
}

// DescribeCounts summarizes integer counts such as tokens per record.
func DescribeCounts[K comparable](counts map[K]int) (Summary, error) {
	values := make([]float64, 0, len(counts))
	for _, n := range counts {
		values = append(values, float64(n))
	}
	return Describe(values)
}
