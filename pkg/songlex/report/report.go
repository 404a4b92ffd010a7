// Package report renders analysis results as terminal tables or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cognicore/songlex/pkg/songlex"
	"github.com/cognicore/songlex/pkg/songlex/analytics"
	"github.com/cognicore/songlex/pkg/songlex/crossref"
	"github.com/cognicore/songlex/pkg/songlex/guide"
	"github.com/cognicore/songlex/pkg/songlex/lsa"
	"github.com/cognicore/songlex/pkg/songlex/store"
	"github.com/dustin/go-humanize"
)

func count[T ~int | ~int64](n T) string {
	return humanize.Comma(int64(n))
}

func float(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// Summary renders the one-screen overview of a run.
func Summary(res *songlex.Result) string {
	d := res.Description
	rows := [][]string{
		{"records", count(d.Records)},
		{"species", count(d.Species)},
		{"guides", count(len(d.RecordsPerGuide))},
		{"tokens", count(len(res.Tokens))},
		{"distinct lemmas", count(len(res.Stats.TermFreq))},
		{"duplicates dropped", count(res.Corpus.Duplicates)},
		{"rows without name", count(res.Corpus.Skipped)},
		{"size failures", count(len(res.Corpus.SizeFailures))},
	}
	if res.RunID != "" {
		rows = append([][]string{{"run", res.RunID}}, rows...)
	}
	if res.Space != nil {
		rows = append(rows, []string{"lsa dimensions", count(res.Space.Dimensions())})
	}

	var b strings.Builder
	b.WriteString(Table("Summary", []string{"Measure", "Value"}, rows, []Alignment{AlignLeft, AlignRight}))
	b.WriteByte('\n')
	if len(res.Coverage) > 0 {
		b.WriteString(coverage(res.Coverage))
		b.WriteByte('\n')
	}
	if len(res.Skipped) > 0 {
		b.WriteString(skipped(res.Skipped))
		b.WriteByte('\n')
	}
	return b.String()
}

func skipped(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, m[k]}
	}
	return Table("Skipped", []string{"Step", "Reason"}, rows, nil)
}

// Describe renders the descriptive statistics of the corpus.
func Describe(res *songlex.Result) string {
	d := res.Description
	var b strings.Builder

	guides := make([]string, 0, len(d.RecordsPerGuide))
	for g := range d.RecordsPerGuide {
		guides = append(guides, g)
	}
	sort.Strings(guides)
	rows := make([][]string, len(guides))
	for i, g := range guides {
		rows[i] = []string{g, count(d.RecordsPerGuide[g])}
	}
	b.WriteString(Table("Records per guide", []string{"Guide", "Records"}, rows, []Alignment{AlignLeft, AlignRight}))
	b.WriteByte('\n')

	var stats [][]string
	if d.Sizes != nil {
		stats = append(stats, summaryRow("size (cm)", *d.Sizes))
	}
	if d.TokensPerRecord != nil {
		stats = append(stats, summaryRow("tokens per record", *d.TokensPerRecord))
	}
	if len(stats) > 0 {
		b.WriteString(Table("Distributions",
			[]string{"Measure", "N", "Mean", "SD", "Min", "Q1", "Median", "Q3", "Max"},
			stats,
			[]Alignment{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight}))
		b.WriteByte('\n')
	}

	if len(d.Spans) > 0 {
		var spans [][]string
		for kind, n := range d.Spans {
			spans = append(spans, []string{string(kind), count(n)})
		}
		sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })
		b.WriteString(Table("Extracted spans", []string{"Kind", "Count"}, spans, []Alignment{AlignLeft, AlignRight}))
		b.WriteByte('\n')
	}

	b.WriteString(TopTerms(d.TopTerms))
	b.WriteByte('\n')
	return b.String()
}

func summaryRow(name string, s analytics.Summary) []string {
	return []string{
		name, count(s.N), float(s.Mean, 2), float(s.StdDev, 2), float(s.Min, 1),
		float(s.Q1, 1), float(s.Median, 1), float(s.Q3, 1), float(s.Max, 1),
	}
}

// TopTerms renders the most frequent lemmas.
func TopTerms(terms []analytics.TermStat) string {
	rows := make([][]string, len(terms))
	for i, t := range terms {
		rows[i] = []string{t.Term, count(t.Freq), count(t.DF), count(t.Guides)}
	}
	return Table("Top lemmas", []string{"Lemma", "Freq", "Records", "Guides"}, rows,
		[]Alignment{AlignLeft, AlignRight, AlignRight, AlignRight})
}

// Sizes renders every record's normalized size, then the failures.
func Sizes(corpus *guide.Corpus) string {
	var rows [][]string
	for _, r := range corpus.Records {
		if r.SizeCM == nil {
			continue
		}
		span := float(r.SizeCM.MinCM, 1)
		if r.SizeCM.MaxCM != r.SizeCM.MinCM {
			span += "-" + float(r.SizeCM.MaxCM, 1)
		}
		note := r.SizeCM.Unit
		if r.SizeCM.Wingspan {
			note += " (wingspan)"
		}
		rows = append(rows, []string{r.ID, r.CommonName, r.Size, span, note})
	}

	var b strings.Builder
	b.WriteString(Table("Sizes", []string{"Record", "Species", "As written", "cm", "Unit"}, rows,
		[]Alignment{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft}))
	b.WriteByte('\n')

	if len(corpus.SizeFailures) > 0 {
		fails := make([][]string, len(corpus.SizeFailures))
		for i, f := range corpus.SizeFailures {
			fails[i] = []string{f.RecordID, f.Raw, f.Err.Error()}
		}
		b.WriteString(Table("Unparsed sizes", []string{"Record", "As written", "Error"}, fails, nil))
		b.WriteByte('\n')
	}
	return b.String()
}

func coverage(cov []crossref.Coverage) string {
	rows := make([][]string, len(cov))
	for i, c := range cov {
		rows[i] = []string{c.List, count(c.Total), count(c.Attested), float(100*c.Share, 1) + "%"}
	}
	return Table("Reference coverage", []string{"List", "Words", "Attested", "Share"}, rows,
		[]Alignment{AlignLeft, AlignRight, AlignRight, AlignRight})
}

// CrossRef renders coverage, the chi-square tables and, when words is
// set, the per-word attestation flags.
func CrossRef(res *songlex.Result, words bool) string {
	var b strings.Builder
	if len(res.Coverage) > 0 {
		b.WriteString(coverage(res.Coverage))
		b.WriteByte('\n')
	}

	for _, name := range []string{songlex.TableTimbre, songlex.TableModality, songlex.TablePOS} {
		r, ok := res.ChiSquare[name]
		if !ok {
			continue
		}
		b.WriteString(ChiSquare(name, r))
		b.WriteByte('\n')
	}

	if words {
		for _, name := range []string{songlex.TableTimbre, songlex.TableModality, songlex.TablePOS} {
			atts, ok := res.Attestations[name]
			if !ok {
				continue
			}
			rows := make([][]string, len(atts))
			for i, a := range atts {
				flag := "no"
				if a.Attested {
					flag = "yes"
				}
				rows[i] = []string{a.Word, flag, count(a.Count)}
			}
			b.WriteString(Table("Attestation: "+name, []string{"Word", "Attested", "Corpus count"}, rows,
				[]Alignment{AlignLeft, AlignLeft, AlignRight}))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// ChiSquare renders one contingency test with its standardized residuals.
func ChiSquare(name string, r crossref.Result) string {
	rows := make([][]string, len(r.Cells))
	for i, c := range r.Cells {
		dir := ""
		if c.Direction != crossref.None {
			dir = string(c.Direction)
		}
		rows[i] = []string{
			c.Category, count(c.Reference), count(c.Observed), float(c.Expected, 1),
			float(c.StdResidual, 2), dir,
		}
	}
	title := fmt.Sprintf("Chi-square %s: X²=%s df=%d p=%s", name, float(r.Statistic, 2), r.DF, formatP(r.PValue))
	return Table(title, []string{"Category", "Reference", "Corpus", "Expected", "Std. residual", "Signal"}, rows,
		[]Alignment{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft})
}

func formatP(p float64) string {
	if p < 0.001 {
		return "<0.001"
	}
	return float(p, 3)
}

// Model renders the LSA space and its clusters.
func Model(space *lsa.Space, clusters []lsa.Cluster) string {
	var b strings.Builder
	rows := [][]string{
		{"terms", count(len(space.Terms))},
		{"species", count(len(space.Docs))},
		{"species dropped", count(len(space.DroppedDocs))},
		{"dimensions", count(space.Dimensions())},
		{"explained variance", float(100*space.ExplainedVariance(), 1) + "%"},
	}
	b.WriteString(Table("LSA space", []string{"Measure", "Value"}, rows, []Alignment{AlignLeft, AlignRight}))
	b.WriteByte('\n')

	if len(clusters) > 0 {
		crow := make([][]string, len(clusters))
		for i, c := range clusters {
			crow[i] = []string{strconv.Itoa(c.ID), count(len(c.Terms)), strings.Join(head(c.Terms, 12), ", ")}
		}
		b.WriteString(Table("Clusters", []string{"ID", "Size", "Terms (closest first)"}, crow,
			[]Alignment{AlignRight, AlignRight, AlignLeft}))
		b.WriteByte('\n')
	}
	return b.String()
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Neighbors renders the nearest terms or species of a query.
func Neighbors(query string, ns []lsa.Neighbor) string {
	rows := make([][]string, len(ns))
	for i, n := range ns {
		rows[i] = []string{strconv.Itoa(i + 1), n.Name, float(n.Similarity, 3)}
	}
	return Table("Nearest to "+query, []string{"#", "Name", "Cosine"}, rows,
		[]Alignment{AlignRight, AlignLeft, AlignRight})
}

// Runs renders stored runs, ages relative to now.
func Runs(runs []store.Run, now time.Time) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
			r.Guides,
			count(r.Records),
			count(r.Tokens),
		}
	}
	return Table("Runs", []string{"ID", "Created", "Guides", "Records", "Tokens"}, rows,
		[]Alignment{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight})
}

// JSON is the machine-readable form of a run.
type JSON struct {
	RunID        string                            `json:"run_id,omitempty"`
	Records      int                               `json:"records"`
	Species      int                               `json:"species"`
	Tokens       int                               `json:"tokens"`
	Guides       map[string]int                    `json:"records_per_guide"`
	Sizes        *analytics.Summary                `json:"sizes,omitempty"`
	PerRecord    *analytics.Summary                `json:"tokens_per_record,omitempty"`
	TopTerms     []analytics.TermStat              `json:"top_terms"`
	Coverage     []crossref.Coverage               `json:"coverage"`
	Attestations map[string][]crossref.Attestation `json:"attestations"`
	ChiSquare    map[string]crossref.Result        `json:"chi_square"`
	LSA          *JSONSpace                        `json:"lsa,omitempty"`
	Skipped      map[string]string                 `json:"skipped,omitempty"`
}

// JSONSpace summarizes an LSA space.
type JSONSpace struct {
	Terms             int           `json:"terms"`
	Species           int           `json:"species"`
	Dropped           []string      `json:"dropped_species"`
	Dimensions        int           `json:"dimensions"`
	ExplainedVariance float64       `json:"explained_variance"`
	Clusters          []lsa.Cluster `json:"clusters"`
}

// NewJSON builds the machine-readable form of res.
func NewJSON(res *songlex.Result) JSON {
	d := res.Description
	out := JSON{
		RunID:        res.RunID,
		Records:      d.Records,
		Species:      d.Species,
		Tokens:       len(res.Tokens),
		Guides:       d.RecordsPerGuide,
		Sizes:        d.Sizes,
		PerRecord:    d.TokensPerRecord,
		TopTerms:     d.TopTerms,
		Coverage:     res.Coverage,
		Attestations: res.Attestations,
		ChiSquare:    res.ChiSquare,
		Skipped:      res.Skipped,
	}
	if res.Space != nil {
		out.LSA = &JSONSpace{
			Terms:             len(res.Space.Terms),
			Species:           len(res.Space.Docs),
			Dropped:           res.Space.DroppedDocs,
			Dimensions:        res.Space.Dimensions(),
			ExplainedVariance: res.Space.ExplainedVariance(),
			Clusters:          res.Clusters,
		}
	}
	return out
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
