package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"github.com/cognicore/songlex/pkg/songlex/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu   sync.RWMutex
	ids  *store.IDGenerator
	runs map[string]*run
}

type run struct {
	meta         store.Run
	records      []store.Record
	tokens       []store.Token
	attestations map[string]store.Attestation // list + "\x00" + word
	chisquare    map[string]store.ChiSquareTable
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:  store.NewIDGenerator(),
		runs: make(map[string]*run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// CreateRun implements store.Store.
func (s *Store) CreateRun(ctx context.Context, r store.Run) (store.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.ID == "" {
		r.ID = s.ids.New(r.CreatedAt)
	}
	if _, exists := s.runs[r.ID]; exists {
		return store.Run{}, fmt.Errorf("create run: %w: duplicate id %s", internalerr.ErrInvalidInput, r.ID)
	}
	r.Records, r.Tokens = 0, 0
	s.runs[r.ID] = &run{
		meta:         r,
		attestations: make(map[string]store.Attestation),
		chisquare:    make(map[string]store.ChiSquareTable),
	}
	return r, nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, id)
	}
	return r.summary(), nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(ctx context.Context) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *run) summary() store.Run {
	m := r.meta
	m.Records = len(r.records)
	m.Tokens = len(r.tokens)
	return m
}

func (s *Store) lookup(runID string) (*run, error) {
	r, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: run %s", internalerr.ErrNotFound, runID)
	}
	return r, nil
}

// SaveRecords implements store.Store.
func (s *Store) SaveRecords(ctx context.Context, runID string, recs []store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup(runID)
	if err != nil {
		return err
	}
	r.records = r.records[:0]
	for _, rec := range recs {
		if rec.ID != "" {
			r.records = append(r.records, rec)
		}
	}
	return nil
}

// Records implements store.Store.
func (s *Store) Records(ctx context.Context, runID string) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return nil, nil
	}
	out := append([]store.Record(nil), r.records...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveTokens implements store.Store.
func (s *Store) SaveTokens(ctx context.Context, runID string, toks []store.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup(runID)
	if err != nil {
		return err
	}
	r.tokens = r.tokens[:0]
	for _, t := range toks {
		if t.Surface != "" {
			r.tokens = append(r.tokens, t)
		}
	}
	return nil
}

// TokenFrequencies implements store.Store.
func (s *Store) TokenFrequencies(ctx context.Context, runID string, limit int) ([]store.TokenFrequency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return nil, nil
	}

	counts := make(map[string]int64)
	records := make(map[string]map[string]struct{})
	for _, t := range r.tokens {
		counts[t.Lemma]++
		if records[t.Lemma] == nil {
			records[t.Lemma] = make(map[string]struct{})
		}
		records[t.Lemma][t.RecordID] = struct{}{}
	}

	out := make([]store.TokenFrequency, 0, len(counts))
	for lemma, n := range counts {
		out = append(out, store.TokenFrequency{Lemma: lemma, Count: n, Records: int64(len(records[lemma]))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Lemma < out[j].Lemma
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveAttestations implements store.Store.
func (s *Store) SaveAttestations(ctx context.Context, runID string, atts []store.Attestation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup(runID)
	if err != nil {
		return err
	}
	for _, a := range atts {
		if a.List == "" || a.Word == "" {
			continue
		}
		r.attestations[a.List+"\x00"+a.Word] = a
	}
	return nil
}

// Attestations implements store.Store.
func (s *Store) Attestations(ctx context.Context, runID, list string) ([]store.Attestation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	if !ok {
		return nil, nil
	}
	var out []store.Attestation
	for _, a := range r.attestations {
		if list == "" || a.List == list {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].List != out[j].List {
			return out[i].List < out[j].List
		}
		return out[i].Word < out[j].Word
	})
	return out, nil
}

// SaveChiSquare implements store.Store.
func (s *Store) SaveChiSquare(ctx context.Context, runID string, table store.ChiSquareTable) error {
	if table.Name == "" {
		return fmt.Errorf("%w: chi-square table has no name", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup(runID)
	if err != nil {
		return err
	}
	table.Cells = append([]store.ChiSquareCell(nil), table.Cells...)
	sort.Slice(table.Cells, func(i, j int) bool { return table.Cells[i].Category < table.Cells[j].Category })
	r.chisquare[table.Name] = table
	return nil
}

// ChiSquare implements store.Store.
func (s *Store) ChiSquare(ctx context.Context, runID, name string) (store.ChiSquareTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.runs[runID]; ok {
		if t, ok := r.chisquare[name]; ok {
			t.Cells = append([]store.ChiSquareCell(nil), t.Cells...)
			return t, nil
		}
	}
	return store.ChiSquareTable{}, fmt.Errorf("%w: chi-square %s in run %s", internalerr.ErrNotFound, name, runID)
}

var _ store.Store = (*Store)(nil)
