package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"github.com/cognicore/songlex/pkg/songlex/store"
)

func TestRuns_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.CreateRun(ctx, store.Run{Guides: "a"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.CreateRun(ctx, store.Run{Guides: "b"})
	if err != nil {
		t.Fatal(err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != b.ID || runs[1].ID != a.ID {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}

	if _, err := s.CreateRun(ctx, store.Run{ID: a.ID}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected duplicate ID to fail, got %v", err)
	}
	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordsAndTokens(t *testing.T) {
	ctx := context.Background()
	s := New()
	run, _ := s.CreateRun(ctx, store.Run{})

	if err := s.SaveRecords(ctx, run.ID, []store.Record{
		{ID: "g:3", Species: "b"}, {ID: "g:2", Species: "a"}, {ID: ""},
	}); err != nil {
		t.Fatal(err)
	}
	recs, _ := s.Records(ctx, run.ID)
	if len(recs) != 2 || recs[0].ID != "g:2" {
		t.Errorf("expected 2 records ordered by ID, got %+v", recs)
	}

	if err := s.SaveTokens(ctx, run.ID, []store.Token{
		{RecordID: "g:2", Surface: "trill", Lemma: "trill"},
		{RecordID: "g:3", Surface: "trills", Lemma: "trill"},
		{RecordID: "g:3", Surface: "buzz", Lemma: "buzz"},
		{RecordID: "g:3", Surface: ""},
	}); err != nil {
		t.Fatal(err)
	}

	freqs, _ := s.TokenFrequencies(ctx, run.ID, 0)
	if len(freqs) != 2 {
		t.Fatalf("expected 2 lemmas, got %d", len(freqs))
	}
	if freqs[0].Lemma != "trill" || freqs[0].Count != 2 || freqs[0].Records != 2 {
		t.Errorf("unexpected top lemma %+v", freqs[0])
	}

	info, _ := s.GetRun(ctx, run.ID)
	if info.Records != 2 || info.Tokens != 3 {
		t.Errorf("unexpected counts %+v", info)
	}

	if err := s.SaveTokens(ctx, "missing", nil); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown run, got %v", err)
	}
}

func TestAttestationsAndChiSquare(t *testing.T) {
	ctx := context.Background()
	s := New()
	run, _ := s.CreateRun(ctx, store.Run{})

	if err := s.SaveAttestations(ctx, run.ID, []store.Attestation{
		{List: "timbre", Word: "reedy"},
		{List: "timbre", Word: "fluty", Attested: true, Count: 2},
		{List: "pos", Word: "loud", Attested: true, Count: 1},
	}); err != nil {
		t.Fatal(err)
	}
	timbre, _ := s.Attestations(ctx, run.ID, "timbre")
	if len(timbre) != 2 || timbre[0].Word != "fluty" {
		t.Errorf("expected sorted timbre attestations, got %+v", timbre)
	}
	all, _ := s.Attestations(ctx, run.ID, "")
	if len(all) != 3 {
		t.Errorf("expected 3 attestations, got %d", len(all))
	}

	table := store.ChiSquareTable{Name: "modality", DF: 2, Cells: []store.ChiSquareCell{
		{Category: "visual"}, {Category: "auditory"},
	}}
	if err := s.SaveChiSquare(ctx, run.ID, table); err != nil {
		t.Fatal(err)
	}
	got, err := s.ChiSquare(ctx, run.ID, "modality")
	if err != nil {
		t.Fatal(err)
	}
	if got.Cells[0].Category != "auditory" {
		t.Errorf("expected cells sorted by category, got %+v", got.Cells)
	}
	if _, err := s.ChiSquare(ctx, run.ID, "pos"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
