package ingest

import (
	"reflect"
	"testing"
)

func TestCompoundFuserBasic(t *testing.T) {
	fuser := NewCompoundFuser([]DictEntry{
		{Canonical: "high pitched", Variants: []string{"high-pitched"}, Category: "pitch"},
	})

	got := fuser.Fuse("a high pitched, thin whistle")
	if got != "a high-pitched, thin whistle" {
		t.Errorf("Unexpected fusion: %q", got)
	}
}

func TestCompoundFuserCanonicalizesVariants(t *testing.T) {
	fuser := NewCompoundFuser([]DictEntry{
		{Canonical: "low pitched", Variants: []string{"deep toned"}, Category: "pitch"},
	})

	got := fuser.Fuse("(low-pitched) and deep toned")
	if got != "(low-pitched) and low-pitched" {
		t.Errorf("Unexpected fusion: %q", got)
	}
}

func TestCompoundFuserInnerPunctuationBreaksPhrase(t *testing.T) {
	fuser := NewCompoundFuser([]DictEntry{{Canonical: "high pitched"}})

	got := fuser.Fuse("high, pitched")
	if got != "high, pitched" {
		t.Errorf("Phrase across a comma should not fuse: %q", got)
	}
}

func TestCompoundFuserGreedyLongest(t *testing.T) {
	fuser := NewCompoundFuser([]DictEntry{
		{Canonical: "high pitched"},
		{Canonical: "very high pitched"},
	})

	got := fuser.Fuse("very high pitched notes")
	if got != "very-high-pitched notes" {
		t.Errorf("Should match longest phrase, got %q", got)
	}
}

func TestCompoundFuserNoDictionary(t *testing.T) {
	fuser := NewCompoundFuser(nil)
	in := "  spacing   is kept when nothing matches"
	if got := fuser.Fuse(in); got != in {
		t.Errorf("Empty dictionary should pass text through, got %q", got)
	}
}

func TestCompoundFuserCompounds(t *testing.T) {
	fuser := NewCompoundFuser([]DictEntry{
		{Canonical: "rising inflection", Category: "pitch"},
		{Canonical: "high pitched", Variants: []string{"high-pitched"}, Category: "pitch"},
	})

	expected := []string{"high-pitched", "rising-inflection"}
	if got := fuser.Compounds(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	if cat, ok := fuser.Category("rising-inflection"); !ok || cat != "pitch" {
		t.Errorf("Expected pitch category, got %q %v", cat, ok)
	}
}
