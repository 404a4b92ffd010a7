package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store is the main interface for persisting analysis runs
type Store interface {
	Close() error

	// Runs
	CreateRun(ctx context.Context, r Run) (Run, error)
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context) ([]Run, error)

	// Corpus
	SaveRecords(ctx context.Context, runID string, recs []Record) error
	Records(ctx context.Context, runID string) ([]Record, error)
	SaveTokens(ctx context.Context, runID string, toks []Token) error
	TokenFrequencies(ctx context.Context, runID string, limit int) ([]TokenFrequency, error)

	// Cross-reference results
	SaveAttestations(ctx context.Context, runID string, atts []Attestation) error
	Attestations(ctx context.Context, runID, list string) ([]Attestation, error)
	SaveChiSquare(ctx context.Context, runID string, table ChiSquareTable) error
	ChiSquare(ctx context.Context, runID, name string) (ChiSquareTable, error)
}

// Run is one execution of the pipeline over a guide directory.
type Run struct {
	ID        string // ULID, assigned by CreateRun when empty
	CreatedAt time.Time
	Guides    string // guide directory
	Config    string // config file, empty when defaults were used
	Records   int
	Tokens    int
}

// Record is a stored guide entry.
type Record struct {
	ID             string
	Guide          string
	Species        string
	CommonName     string
	ScientificName string
	Size           string
	SizeMinCM      float64 // zero when the size was not normalized
	SizeMaxCM      float64
	Voice          string
}

// Token is a stored normalized token with its lexicon joins.
type Token struct {
	RecordID string
	Position int
	Surface  string
	Lemma    string
	POS      string
	Modality string
	Timbre   bool
}

// TokenFrequency is a lemma's corpus frequency within a run.
type TokenFrequency struct {
	Lemma   string
	Count   int64
	Records int64
}

// Attestation records whether a reference word occurs in the corpus.
type Attestation struct {
	List     string
	Word     string
	Attested bool
	Count    int64
}

// ChiSquareTable is a stored contingency test.
type ChiSquareTable struct {
	Name      string // timbre, modality, pos
	Statistic float64
	DF        int
	PValue    float64
	Cells     []ChiSquareCell
}

// ChiSquareCell is one category of a stored contingency test.
type ChiSquareCell struct {
	Category    string
	Reference   int64
	Observed    int64
	Expected    float64
	Residual    float64 // Pearson
	StdResidual float64 // adjusted standardized
	Direction   string
}

// IDGenerator hands out monotonic ULIDs.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDGenerator returns a generator seeded from crypto/rand.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns the next run ID for time t.
func (g *IDGenerator) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}
