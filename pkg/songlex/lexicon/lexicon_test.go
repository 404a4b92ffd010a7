package lexicon

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLexiconNew(t *testing.T) {
	lex := New()
	if lex == nil {
		t.Fatal("New() returned nil")
	}
	if stats := lex.Stats(); stats.Groups != 0 {
		t.Errorf("New lexicon should have 0 groups, got %d", stats.Groups)
	}
}

func TestLexiconAddGroup(t *testing.T) {
	lex := New()
	lex.AddGroup("sing", []string{"sang", "sung", "Sang"})

	for _, form := range []string{"sang", "SUNG", "sing"} {
		if got := lex.Normalize(form); got != "sing" {
			t.Errorf("Normalize(%q) = %q, want 'sing'", form, got)
		}
	}

	expected := []string{"sing", "sang", "sung"}
	if got := lex.Forms("sung"); !reflect.DeepEqual(got, expected) {
		t.Errorf("Forms('sung') = %v, want %v", got, expected)
	}
}

func TestLexiconUnknownWord(t *testing.T) {
	lex := New()

	if got := lex.Normalize("Trill"); got != "trill" {
		t.Errorf("Unknown word should normalize to itself, got %q", got)
	}
	if got := lex.Forms("trill"); !reflect.DeepEqual(got, []string{"trill"}) {
		t.Errorf("Forms of unknown word = %v", got)
	}
	if lex.Has("trill") {
		t.Error("Has should be false for unknown word")
	}
}

func TestLexiconReplaceGroup(t *testing.T) {
	lex := New()
	lex.AddGroup("good", []string{"better", "best"})
	lex.AddGroup("good", []string{"better"})

	if lex.Has("best") {
		t.Error("Old form 'best' should be removed when group is replaced")
	}
	if got := lex.Normalize("better"); got != "good" {
		t.Errorf("Normalize('better') = %q, want 'good'", got)
	}

	stats := lex.Stats()
	if stats.Groups != 1 || stats.TotalForms != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestLexiconLemmas(t *testing.T) {
	lex := New()
	lex.AddGroup("sing", []string{"sang"})
	lex.AddGroup("goose", []string{"geese"})

	if got := lex.Lemmas(); !reflect.DeepEqual(got, []string{"goose", "sing"}) {
		t.Errorf("Lemmas() = %v", got)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "irregulars.yaml")

	content := `irregulars:
  - lemma: sing
    forms: [sang, sung]
  - lemma: goose
    forms: [geese]
  - lemma: ""
    forms: [ignored]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}

	if got := lex.Normalize("geese"); got != "goose" {
		t.Errorf("Normalize('geese') = %q, want 'goose'", got)
	}
	if lex.Has("ignored") {
		t.Error("Entry with empty lemma should be skipped")
	}
	if stats := lex.Stats(); stats.Groups != 2 {
		t.Errorf("Expected 2 groups, got %d", stats.Groups)
	}
}

func TestLoadFromYAMLErrors(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("irregulars: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromYAML(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
