package pmi

import "sort"

// Counter maintains description-level co-occurrence counts.
type Counter struct {
	N   int64               // number of descriptions
	Nx  map[string]int64    // descriptions containing each token
	Nxy map[TokenPair]int64 // descriptions containing both tokens
}

// TokenPair is an ordered pair of tokens (T1 < T2).
type TokenPair struct {
	T1, T2 string
}

// NewPair returns the canonical pair for a and b.
func NewPair(a, b string) TokenPair {
	if a > b {
		a, b = b, a
	}
	return TokenPair{T1: a, T2: b}
}

// NewCounter creates a new co-occurrence counter.
func NewCounter() *Counter {
	return &Counter{
		Nx:  make(map[string]int64),
		Nxy: make(map[TokenPair]int64),
	}
}

// AddDocument counts one description. Repeated and empty tokens are
// counted once per description.
func (c *Counter) AddDocument(tokens []string) {
	c.N++

	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
		c.Nx[t]++
	}

	sort.Strings(unique)
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			c.Nxy[TokenPair{T1: unique[i], T2: unique[j]}]++
		}
	}
}

// GetPairCount returns the co-occurrence count for a token pair.
func (c *Counter) GetPairCount(t1, t2 string) int64 {
	return c.Nxy[NewPair(t1, t2)]
}

// GetTokenCount returns the document frequency for a token.
func (c *Counter) GetTokenCount(t string) int64 {
	return c.Nx[t]
}

// TotalDocs returns the total number of descriptions processed.
func (c *Counter) TotalDocs() int64 {
	return c.N
}

// UniqueTokens returns the number of unique tokens.
func (c *Counter) UniqueTokens() int {
	return len(c.Nx)
}

// UniquePairs returns the number of unique token pairs.
func (c *Counter) UniquePairs() int {
	return len(c.Nxy)
}

// Clone returns a deep copy of the counter.
func (c *Counter) Clone() *Counter {
	out := &Counter{
		N:   c.N,
		Nx:  make(map[string]int64, len(c.Nx)),
		Nxy: make(map[TokenPair]int64, len(c.Nxy)),
	}
	for k, v := range c.Nx {
		out.Nx[k] = v
	}
	for k, v := range c.Nxy {
		out.Nxy[k] = v
	}
	return out
}
