// Package stoplist manages the stop list applied to voice descriptions:
// a curated base list plus terms discovered from corpus statistics.
package stoplist

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manager holds the active stop list. Protected words (span placeholders,
// reference-list descriptors) can never become stop words.
type Manager struct {
	stops     map[string]Reason
	protected map[string]struct{}
}

// Reason explains why a token is a stop word. A zero Reason marks a
// curated entry.
type Reason struct {
	HighDF       bool    `yaml:"high_df,omitempty"`       // appears in most descriptions
	LowPMI       bool    `yaml:"low_pmi,omitempty"`       // associates with nothing in particular
	Spread       bool    `yaml:"spread,omitempty"`        // used evenly by every guide
	DFPercent    float64 `yaml:"df_percent,omitempty"`    // share of descriptions containing the token
	PMIMax       float64 `yaml:"pmi_max,omitempty"`       // strongest association with any token
	GuideEntropy float64 `yaml:"guide_entropy,omitempty"` // normalized entropy across guides
}

// Discovered reports whether the reason comes from corpus statistics.
func (r Reason) Discovered() bool {
	return r != Reason{}
}

// NewManager creates a manager seeded with curated stop words.
func NewManager(initialStops []string) *Manager {
	m := &Manager{
		stops:     make(map[string]Reason, len(initialStops)),
		protected: make(map[string]struct{}),
	}
	for _, s := range initialStops {
		if s = normalize(s); s != "" {
			m.stops[s] = Reason{}
		}
	}
	return m
}

// file is the on-disk YAML layout.
type file struct {
	Terms      []string         `yaml:"terms"`
	Discovered []discoveredTerm `yaml:"discovered,omitempty"`
}

type discoveredTerm struct {
	Term   string `yaml:"term"`
	Reason `yaml:",inline"`
}

// Load reads a stop list file:
//
//	terms: [a, and, the, song]
//	discovered:
//	  - term: often
//	    high_df: true
//	    df_percent: 72.5
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stoplist %s: %w", path, err)
	}
	m := NewManager(f.Terms)
	for _, d := range f.Discovered {
		if term := normalize(d.Term); term != "" {
			m.stops[term] = d.Reason
		}
	}
	return m, nil
}

// Save writes the stop list: curated terms under terms, discovered terms
// with their statistics under discovered. Both are sorted.
func (m *Manager) Save(path string) error {
	var f file
	for _, term := range m.All() {
		reason := m.stops[term]
		if reason.Discovered() {
			f.Discovered = append(f.Discovered, discoveredTerm{Term: term, Reason: reason})
			continue
		}
		f.Terms = append(f.Terms, term)
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshal stoplist: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Protect marks words that must never be stop words. Protected words
// already on the list are removed.
func (m *Manager) Protect(words ...string) {
	for _, w := range words {
		if w = normalize(w); w != "" {
			m.protected[w] = struct{}{}
			delete(m.stops, w)
		}
	}
}

// IsProtected reports whether token is protected.
func (m *Manager) IsProtected(token string) bool {
	_, ok := m.protected[normalize(token)]
	return ok
}

// IsStop checks if a token is a stop word.
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[normalize(token)]
	return ok
}

// Add adds a token with a reason. Protected tokens are ignored.
func (m *Manager) Add(token string, reason Reason) bool {
	token = normalize(token)
	if token == "" || m.IsProtected(token) {
		return false
	}
	m.stops[token] = reason
	return true
}

// Remove removes a token from the stop list.
func (m *Manager) Remove(token string) {
	delete(m.stops, normalize(token))
}

// Reason returns why token is a stop word.
func (m *Manager) Reason(token string) (Reason, bool) {
	r, ok := m.stops[normalize(token)]
	return r, ok
}

// All returns all stop words, sorted.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of stop words.
func (m *Manager) Len() int {
	return len(m.stops)
}

// Stats holds corpus statistics for one token.
type Stats struct {
	Token        string
	DF           int64
	DFPercent    float64
	IDF          float64
	PMIMax       float64
	GuideEntropy float64
}

// Candidate represents a candidate stop word.
type Candidate struct {
	Token  string
	Reason Reason
	Score  float64 // confidence, higher is more stop-like
}

// Thresholds defines the criteria for stop word discovery.
type Thresholds struct {
	DFPercent    float64 // appears in at least this share of descriptions
	PMIMax       float64 // strongest association stays below this (NPMI scale)
	GuideEntropy float64 // spread across guides above this
	// Bootstrap thresholds apply when no pair statistics exist (PMIMax == 0).
	BootstrapDFPercent float64
	BootstrapEntropy   float64
}

// DefaultThresholds returns thresholds tuned for short voice descriptions.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent:          40.0,
		PMIMax:             0.15,
		GuideEntropy:       0.8,
		BootstrapDFPercent: 60.0,
		BootstrapEntropy:   0.4,
	}
}

// SuggestCandidates returns tokens that meet every criterion, strongest
// first. Existing stop words and protected tokens are skipped.
func (m *Manager) SuggestCandidates(stats []Stats, th Thresholds) []Candidate {
	if th.BootstrapDFPercent == 0 {
		th.BootstrapDFPercent = 60
	}
	if th.BootstrapEntropy == 0 {
		th.BootstrapEntropy = 0.4
	}

	var candidates []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) || m.IsProtected(s.Token) {
			continue
		}

		// without pair statistics only document frequency can be judged
		bootstrap := s.PMIMax == 0
		bootstrapDF := s.DFPercent > th.BootstrapDFPercent

		reason := Reason{
			HighDF:       s.DFPercent > th.DFPercent || (bootstrap && bootstrapDF),
			LowPMI:       bootstrap || s.PMIMax < th.PMIMax,
			Spread:       s.GuideEntropy > th.GuideEntropy,
			DFPercent:    s.DFPercent,
			PMIMax:       s.PMIMax,
			GuideEntropy: s.GuideEntropy,
		}

		meets := reason.HighDF && reason.LowPMI && reason.Spread
		entropy := s.GuideEntropy
		if bootstrap {
			meets = bootstrapDF
			if entropy < th.BootstrapEntropy {
				entropy = th.BootstrapEntropy
			}
			reason.Spread = reason.Spread || entropy >= th.BootstrapEntropy
		}
		if !meets {
			continue
		}

		candidates = append(candidates, Candidate{
			Token:  s.Token,
			Reason: reason,
			Score:  (s.DFPercent/100.0 + (1.0 - s.PMIMax) + entropy) / 3.0,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].Token < candidates[j].Token
		}
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
