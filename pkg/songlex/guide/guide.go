// Package guide loads field-guide tables into a common record schema.
package guide

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/songlex/internal/tabular"
	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"github.com/cognicore/songlex/pkg/songlex/size"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Record is one species entry of one guide.
type Record struct {
	ID             string // <guide>:<line>
	CommonName     string
	ScientificName string
	Size           string       // as written
	SizeCM         *size.Length // nil when Size is missing or unparseable
	Voice          string
	Guide          string
	Row            int
}

// SpeciesKey identifies the species across guides: the lowercased
// scientific name, else the lowercased common name.
func (r Record) SpeciesKey() string {
	if r.ScientificName != "" {
		return strings.ToLower(r.ScientificName)
	}
	return strings.ToLower(r.CommonName)
}

// ColumnMap lists the header aliases of each field. Every Voice alias
// present in a file is a separate column; their cells are concatenated in
// this order.
type ColumnMap struct {
	CommonName     []string `yaml:"common_name"`
	ScientificName []string `yaml:"scientific_name"`
	Size           []string `yaml:"size"`
	Voice          []string `yaml:"voice"`
	Guide          []string `yaml:"guide"`
}

// DefaultColumns returns the aliases seen across common field guides.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		CommonName:     []string{"common_name", "english name", "name", "species"},
		ScientificName: []string{"scientific_name", "latin name", "binomial", "sci_name"},
		Size:           []string{"size", "length", "size_cm"},
		Voice:          []string{"voice", "song", "songs", "call", "calls", "vocalizations"},
		Guide:          []string{"guide", "source"},
	}
}

func (c ColumnMap) withDefaults() ColumnMap {
	d := DefaultColumns()
	if len(c.CommonName) == 0 {
		c.CommonName = d.CommonName
	}
	if len(c.ScientificName) == 0 {
		c.ScientificName = d.ScientificName
	}
	if len(c.Size) == 0 {
		c.Size = d.Size
	}
	if len(c.Voice) == 0 {
		c.Voice = d.Voice
	}
	if len(c.Guide) == 0 {
		c.Guide = d.Guide
	}
	return c
}

// Options configure a Loader.
type Options struct {
	Columns ColumnMap
	Sizes   size.Normalizer
	// ImperialGuides read bare size numbers as inches.
	ImperialGuides []string
}

// Loader reads guide directories. It is not safe for concurrent use.
type Loader struct {
	columns  ColumnMap
	sizes    size.Normalizer
	imperial map[string]bool
	title    cases.Caser
}

// NewLoader creates a loader. Zero options fall back to the defaults.
func NewLoader(opts Options) *Loader {
	sizes := opts.Sizes
	if sizes == (size.Normalizer{}) {
		sizes = size.DefaultNormalizer()
	}
	imperial := make(map[string]bool, len(opts.ImperialGuides))
	for _, g := range opts.ImperialGuides {
		imperial[strings.ToLower(g)] = true
	}
	return &Loader{
		columns:  opts.Columns.withDefaults(),
		sizes:    sizes,
		imperial: imperial,
		title:    cases.Title(language.English),
	}
}

// SizeFailure records a size that could not be normalized.
type SizeFailure struct {
	RecordID string
	Raw      string
	Err      error
}

// Corpus is the loaded, deduplicated set of records.
type Corpus struct {
	Records      []Record
	Files        []string
	Skipped      int // rows without a name
	Duplicates   int // repeated (species, guide) rows
	SizeFailures []SizeFailure
}

// Guides returns the guide identifiers, sorted.
func (c *Corpus) Guides() []string {
	set := make(map[string]struct{})
	for _, r := range c.Records {
		set[r.Guide] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// BySpecies groups records by species key.
func (c *Corpus) BySpecies() map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range c.Records {
		out[r.SpeciesKey()] = append(out[r.SpeciesKey()], r)
	}
	return out
}

// Sizes returns the midpoints of all parsed body lengths. Wingspan-only
// sizes are left out.
func (c *Corpus) Sizes() []float64 {
	var out []float64
	for _, r := range c.Records {
		if r.SizeCM != nil && !r.SizeCM.Wingspan {
			out = append(out, r.SizeCM.Mid())
		}
	}
	return out
}

// LoadDir reads every supported file in dir, in lexical order.
func (l *Loader) LoadDir(dir string) (*Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read guide dir: %w", err)
	}

	corpus := &Corpus{}
	seen := make(map[string]string) // species|guide → record ID
	for _, e := range entries {
		if e.IsDir() || !tabular.Supported(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		records, err := l.loadFile(path, corpus)
		if err != nil {
			return nil, err
		}
		corpus.Files = append(corpus.Files, path)

		for _, r := range records {
			key := r.SpeciesKey() + "|" + r.Guide
			if first, dup := seen[key]; dup {
				log.Printf("WARNING: %s duplicates %s (%s), dropped", r.ID, first, r.SpeciesKey())
				corpus.Duplicates++
				continue
			}
			seen[key] = r.ID
			corpus.Records = append(corpus.Records, r)
		}
	}

	if len(corpus.Files) == 0 {
		return nil, fmt.Errorf("no guide tables in %s: %w", dir, internalerr.ErrNotFound)
	}
	return corpus, nil
}

// LoadFile reads a single guide table.
func (l *Loader) LoadFile(path string) ([]Record, error) {
	return l.loadFile(path, &Corpus{})
}

func (l *Loader) loadFile(path string, corpus *Corpus) ([]Record, error) {
	table, err := tabular.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load guide: %w", err)
	}
	if !hasAny(table, l.columns.CommonName) && !hasAny(table, l.columns.ScientificName) {
		return nil, fmt.Errorf("load guide %s: no name column: %w", path, internalerr.ErrInvalidInput)
	}

	fileGuide := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var out []Record
	for _, row := range table.Rows {
		rec := Record{
			CommonName:     l.titleCase(clean(row.Get(l.columns.CommonName...))),
			ScientificName: binomial(clean(row.Get(l.columns.ScientificName...))),
			Size:           clean(row.Get(l.columns.Size...)),
			Voice:          l.voice(row),
			Guide:          clean(row.Get(l.columns.Guide...)),
			Row:            row.Line,
		}
		if rec.Guide == "" {
			rec.Guide = fileGuide
		}
		rec.ID = fmt.Sprintf("%s:%d", rec.Guide, rec.Row)

		if rec.SpeciesKey() == "" {
			log.Printf("WARNING: %s line %d: no species name, skipping", path, row.Line)
			corpus.Skipped++
			continue
		}

		if rec.Size != "" {
			n := l.sizes
			if l.imperial[strings.ToLower(rec.Guide)] {
				n.DefaultUnit = "in"
			}
			length, err := n.Parse(rec.Size)
			if err != nil {
				corpus.SizeFailures = append(corpus.SizeFailures, SizeFailure{RecordID: rec.ID, Raw: rec.Size, Err: err})
			} else {
				rec.SizeCM = &length
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// voice concatenates every voice column present. Missing cells count as
// empty strings.
func (l *Loader) voice(row tabular.Row) string {
	var parts []string
	for _, alias := range l.columns.Voice {
		if v := clean(row.Get(alias)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func (l *Loader) titleCase(s string) string {
	if s == "" {
		return ""
	}
	return l.title.String(strings.ToLower(s))
}

func hasAny(t *tabular.Table, aliases []string) bool {
	return len(t.Rows) > 0 && t.Rows[0].Has(aliases...)
}

// clean strips markup, decodes entities, NFC-normalizes and collapses
// whitespace.
func clean(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = stripHTML(s)
	}
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.Data == "br" || n.Data == "p"):
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return buf.String()
}

// binomial capitalizes the genus and lowercases the rest.
func binomial(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	r, n := utf8.DecodeRuneInString(fields[0])
	fields[0] = string(unicode.ToUpper(r)) + fields[0][n:]
	return strings.Join(fields, " ")
}
