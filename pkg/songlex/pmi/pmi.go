// Package pmi scores how strongly two lemmas co-occur across voice
// descriptions.
package pmi

import "math"

// Config selects the PMI variant.
type Config struct {
	Epsilon    float64 `yaml:"epsilon"`    // additive smoothing, default 1.0
	Normalized bool    `yaml:"normalized"` // score with NPMI in [-1, 1]
}

// DefaultConfig returns smoothed, normalized PMI.
func DefaultConfig() Config {
	return Config{Epsilon: 1.0, Normalized: true}
}

// Calculator handles PMI calculations.
type Calculator struct {
	epsilon    float64
	normalized bool
}

// NewCalculator creates a raw PMI calculator with the given epsilon.
func NewCalculator(epsilon float64) *Calculator {
	if epsilon <= 0 {
		epsilon = 1.0
	}
	return &Calculator{epsilon: epsilon}
}

// NewCalculatorFromConfig creates a calculator from configuration.
func NewCalculatorFromConfig(cfg Config) *Calculator {
	c := NewCalculator(cfg.Epsilon)
	c.normalized = cfg.Normalized
	return c
}

// PMI calculates the pointwise mutual information of two tokens
//
//	PMI(a,b) = log((N_ab + ε) * N / ((N_a + ε)(N_b + ε)))
//
// N_ab counts descriptions containing both, N_a and N_b descriptions
// containing each, N all descriptions.
func (c *Calculator) PMI(nAB, nA, nB, N int64) float64 {
	if N == 0 {
		return 0
	}

	numerator := (float64(nAB) + c.epsilon) * float64(N)
	denominator := (float64(nA) + c.epsilon) * (float64(nB) + c.epsilon)
	if denominator == 0 {
		return 0
	}
	return math.Log(numerator / denominator)
}

// NPMI calculates normalized PMI, PMI(a,b) / -log P(a,b), clamped to [-1, 1].
func (c *Calculator) NPMI(nAB, nA, nB, N int64) float64 {
	if N == 0 || nAB == 0 {
		return 0
	}

	pAB := (float64(nAB) + c.epsilon) / float64(N)
	logPAB := math.Log(pAB)
	if logPAB == 0 {
		return 0
	}

	v := c.PMI(nAB, nA, nB, N) / -logPAB
	return math.Max(-1, math.Min(1, v))
}

// Score returns NPMI or PMI depending on configuration.
func (c *Calculator) Score(nAB, nA, nB, N int64) float64 {
	if c.normalized {
		return c.NPMI(nAB, nA, nB, N)
	}
	return c.PMI(nAB, nA, nB, N)
}

// Normalized reports whether Score returns NPMI.
func (c *Calculator) Normalized() bool {
	return c.normalized
}
