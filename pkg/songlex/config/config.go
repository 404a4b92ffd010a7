package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/songlex/pkg/songlex/guide"
	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"github.com/cognicore/songlex/pkg/songlex/lsa"
	"github.com/cognicore/songlex/pkg/songlex/pmi"
	"github.com/cognicore/songlex/pkg/songlex/size"
	"gopkg.in/yaml.v3"
)

// Config is the analysis file (songlex.yaml).
type Config struct {
	// Guides is the directory of guide tables.
	Guides         string          `yaml:"guides"`
	ImperialGuides []string        `yaml:"imperial_guides"`
	Columns        guide.ColumnMap `yaml:"columns"`
	Size           SizeConfig      `yaml:"size"`

	Stoplist   string   `yaml:"stoplist"`
	Compounds  string   `yaml:"compounds"`
	Taxonomy   string   `yaml:"taxonomy"`
	Irregulars string   `yaml:"irregulars"`
	Exceptions []string `yaml:"exceptions"` // words the lemmatizer leaves alone

	Reference ReferenceConfig `yaml:"reference"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	PMI       pmi.Config      `yaml:"pmi"`
	LSA       LSAConfig       `yaml:"lsa"`

	// Store is an optional SQLite database path.
	Store string `yaml:"store"`

	dir string
}

// SizeConfig bounds plausible body lengths.
type SizeConfig struct {
	MinCM float64 `yaml:"min_cm"`
	MaxCM float64 `yaml:"max_cm"`
}

// ReferenceConfig locates the reference word lists.
type ReferenceConfig struct {
	Timbre   string `yaml:"timbre"`
	Modality string `yaml:"modality"`
	POS      string `yaml:"pos"`
}

// AnalyticsConfig tunes the corpus counters.
type AnalyticsConfig struct {
	Window   int `yaml:"window"`
	TopTerms int `yaml:"top_terms"`
}

// LSAConfig holds the model thresholds plus clustering settings.
type LSAConfig struct {
	lsa.Options `yaml:",inline"`
	Clusters    int   `yaml:"clusters"`
	Seed        int64 `yaml:"seed"`
	Neighbors   int   `yaml:"neighbors"`
}

// Default returns a configuration with every tunable at its default.
func Default() *Config {
	return &Config{
		Guides:  "guides",
		Columns: guide.DefaultColumns(),
		Size:    SizeConfig{MinCM: size.DefaultMinCM, MaxCM: size.DefaultMaxCM},
		Analytics: AnalyticsConfig{
			Window:   5,
			TopTerms: 25,
		},
		PMI: pmi.DefaultConfig(),
		LSA: LSAConfig{
			Options:   lsa.DefaultOptions(),
			Clusters:  8,
			Seed:      1,
			Neighbors: 10,
		},
	}
}

// Load reads an analysis file. Relative paths inside it resolve against
// the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	cfg.dir = filepath.Dir(path)
	cfg.applyDefaults()
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dir is the directory the config was loaded from, empty for Default.
func (c *Config) Dir() string {
	return c.dir
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Guides == "" {
		c.Guides = d.Guides
	}
	if c.Size.MinCM == 0 {
		c.Size.MinCM = d.Size.MinCM
	}
	if c.Size.MaxCM == 0 {
		c.Size.MaxCM = d.Size.MaxCM
	}
	if c.Analytics.Window == 0 {
		c.Analytics.Window = d.Analytics.Window
	}
	if c.Analytics.TopTerms == 0 {
		c.Analytics.TopTerms = d.Analytics.TopTerms
	}
	if c.PMI.Epsilon == 0 {
		c.PMI.Epsilon = d.PMI.Epsilon
	}
	if c.LSA.MinDocTokens == 0 {
		c.LSA.MinDocTokens = d.LSA.MinDocTokens
	}
	if c.LSA.MinTermFreq == 0 {
		c.LSA.MinTermFreq = d.LSA.MinTermFreq
	}
	if c.LSA.Dimensions == 0 {
		c.LSA.Dimensions = d.LSA.Dimensions
	}
	if c.LSA.Clusters == 0 {
		c.LSA.Clusters = d.LSA.Clusters
	}
	if c.LSA.Neighbors == 0 {
		c.LSA.Neighbors = d.LSA.Neighbors
	}
}

func (c *Config) resolvePaths() {
	for _, p := range []*string{
		&c.Guides, &c.Stoplist, &c.Compounds, &c.Taxonomy, &c.Irregulars,
		&c.Reference.Timbre, &c.Reference.Modality, &c.Reference.POS, &c.Store,
	} {
		*p = c.resolve(*p)
	}
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string
	if c.Guides == "" {
		problems = append(problems, "guides directory is required")
	}
	if c.Size.MinCM <= 0 || c.Size.MaxCM <= c.Size.MinCM {
		problems = append(problems, fmt.Sprintf("size range %.1f-%.1f cm is invalid", c.Size.MinCM, c.Size.MaxCM))
	}
	if c.Analytics.Window < 1 {
		problems = append(problems, "analytics.window must be positive")
	}
	if c.Analytics.TopTerms < 1 {
		problems = append(problems, "analytics.top_terms must be positive")
	}
	if c.PMI.Epsilon <= 0 {
		problems = append(problems, "pmi.epsilon must be positive")
	}
	if c.LSA.MinDocTokens < 1 || c.LSA.MinTermFreq < 1 || c.LSA.Dimensions < 1 {
		problems = append(problems, "lsa thresholds must be positive")
	}
	if c.LSA.Clusters < 1 {
		problems = append(problems, "lsa.clusters must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// GuideOptions returns the loader options this config describes.
func (c *Config) GuideOptions() guide.Options {
	return guide.Options{
		Columns:        c.Columns,
		Sizes:          size.Normalizer{MinCM: c.Size.MinCM, MaxCM: c.Size.MaxCM},
		ImperialGuides: c.ImperialGuides,
	}
}

// Loader returns a component loader for this config's files.
func (c *Config) Loader() Loader {
	return Loader{
		StoplistPath:   c.Stoplist,
		DictPath:       c.Compounds,
		TaxonomyPath:   c.Taxonomy,
		IrregularsPath: c.Irregulars,
		Exceptions:     c.Exceptions,
		Reference:      lexiconPaths(c.Reference),
	}
}

// Taxonomy is the descriptor taxonomy file: category → keywords.
type Taxonomy struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadTaxonomy loads taxonomy from a YAML file
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return nil, err
	}

	return &tax, nil
}

// Dict represents the compound dictionary
type Dict struct {
	Entries []DictEntry
}

// DictEntry represents a dictionary entry
type DictEntry struct {
	Canonical string
	Variants  []string
	Category  string
}

// LoadDict loads the compound dictionary from a file
// Format: canonical|variant1|variant2|category
func LoadDict(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dict := &Dict{Entries: []DictEntry{}}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		dict.Entries = append(dict.Entries, DictEntry{
			Canonical: parts[0],
			Variants:  parts[1 : len(parts)-1],
			Category:  parts[len(parts)-1],
		})
	}

	return dict, nil
}

// WriteDict writes entries in the format LoadDict reads.
func WriteDict(path string, entries []DictEntry) error {
	var b strings.Builder
	b.WriteString("# canonical|variants...|category\n")
	for _, e := range entries {
		parts := append([]string{e.Canonical}, e.Variants...)
		parts = append(parts, e.Category)
		b.WriteString(strings.Join(parts, "|"))
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
