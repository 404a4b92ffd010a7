package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/songlex/pkg/songlex/internalerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "songlex.yaml", "guides: data/guides\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Guides != filepath.Join(dir, "data/guides") {
		t.Errorf("Guides not resolved against config dir: %s", cfg.Guides)
	}
	if cfg.Size.MinCM != 3 || cfg.Size.MaxCM != 300 {
		t.Errorf("Expected default size range, got %+v", cfg.Size)
	}
	if cfg.LSA.MinDocTokens != 5 || cfg.LSA.MinTermFreq != 3 || cfg.LSA.Dimensions != 50 {
		t.Errorf("Expected default LSA thresholds, got %+v", cfg.LSA.Options)
	}
	if !cfg.PMI.Normalized || cfg.PMI.Epsilon != 1.0 {
		t.Errorf("Expected default PMI config, got %+v", cfg.PMI)
	}
	if len(cfg.Columns.Voice) == 0 {
		t.Error("Expected default voice columns")
	}
	if cfg.Stoplist != "" {
		t.Errorf("Unset paths should stay empty, got %q", cfg.Stoplist)
	}
	if cfg.Dir() != dir {
		t.Errorf("Expected dir %s, got %s", dir, cfg.Dir())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "songlex.yaml", `guides: /abs/guides
imperial_guides: [peterson]
columns:
  voice: [song, calls]
size:
  min_cm: 5
  max_cm: 200
stoplist: stoplist.yaml
reference:
  timbre: ref/timbre.csv
lsa:
  min_term_freq: 2
  clusters: 4
  seed: 42
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Guides != "/abs/guides" {
		t.Errorf("Absolute path should be kept, got %s", cfg.Guides)
	}
	if cfg.Stoplist != filepath.Join(dir, "stoplist.yaml") {
		t.Errorf("Stoplist not resolved: %s", cfg.Stoplist)
	}
	if cfg.Reference.Timbre != filepath.Join(dir, "ref/timbre.csv") {
		t.Errorf("Timbre not resolved: %s", cfg.Reference.Timbre)
	}
	if len(cfg.Columns.Voice) != 2 || cfg.Columns.Voice[0] != "song" {
		t.Errorf("Voice columns not overridden: %v", cfg.Columns.Voice)
	}
	if len(cfg.Columns.CommonName) == 0 {
		t.Error("Unset column aliases should keep defaults")
	}
	if cfg.LSA.MinTermFreq != 2 || cfg.LSA.MinDocTokens != 5 {
		t.Errorf("Unexpected LSA options %+v", cfg.LSA.Options)
	}
	if cfg.LSA.Clusters != 4 || cfg.LSA.Seed != 42 {
		t.Errorf("Unexpected clustering settings %+v", cfg.LSA)
	}

	opts := cfg.GuideOptions()
	if opts.Sizes.MinCM != 5 || opts.Sizes.MaxCM != 200 {
		t.Errorf("Guide options lost size bounds: %+v", opts.Sizes)
	}
	if len(opts.ImperialGuides) != 1 {
		t.Error("Guide options lost imperial guides")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "bad_range.yaml", "size:\n  min_cm: 50\n  max_cm: 10\n")
	_, err := Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for inverted range, got %v", err)
	}

	path = writeFile(t, dir, "bad_yaml.yaml", "guides: [unclosed")
	_, err = Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for malformed YAML, got %v", err)
	}

	path = writeFile(t, dir, "bad_lsa.yaml", "lsa:\n  clusters: -1\n")
	_, err = Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for negative clusters, got %v", err)
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadTaxonomy(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "taxonomy.yaml", `categories:
  pitch:
    - high
    - low
  quality:
    - harsh
    - sweet
    - nasal
`)

	tax, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatalf("Failed to load taxonomy: %v", err)
	}

	if len(tax.Categories) != 2 {
		t.Errorf("Expected 2 categories, got %d", len(tax.Categories))
	}
	if len(tax.Categories["quality"]) != 3 {
		t.Error("Quality category should have 3 keywords")
	}
}

func TestLoadDict(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "compounds.dict", `# Comment
high pitched|high-pitched|pitch
down slurred|downslurred|contour
rapid fire|rapid-fire|tempo
`)

	dict, err := LoadDict(path)
	if err != nil {
		t.Fatalf("Failed to load dict: %v", err)
	}

	if len(dict.Entries) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(dict.Entries))
	}

	entry := dict.Entries[0]
	if entry.Canonical != "high pitched" {
		t.Errorf("Expected 'high pitched', got '%s'", entry.Canonical)
	}
	if len(entry.Variants) != 1 || entry.Variants[0] != "high-pitched" {
		t.Error("Expected variant 'high-pitched'")
	}
	if entry.Category != "pitch" {
		t.Errorf("Expected category 'pitch', got '%s'", entry.Category)
	}
}

func TestLoadDictWithComments(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "compounds.dict", `# This is a comment
high pitched|high-pitched|pitch
# Another comment

rapid fire|rapid-fire|tempo
`)

	dict, err := LoadDict(path)
	if err != nil {
		t.Fatal(err)
	}

	// Should skip comments and empty lines
	if len(dict.Entries) != 2 {
		t.Errorf("Expected 2 entries (comments skipped), got %d", len(dict.Entries))
	}
}

func TestLoadDictInvalidFormat(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "compounds.dict", `highpitched`)

	dict, err := LoadDict(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(dict.Entries) != 0 {
		t.Error("Invalid lines (no pipes) should be skipped")
	}
}

func TestWriteDictRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compounds.dict")
	entries := []DictEntry{
		{Canonical: "high pitched", Variants: []string{"high-pitched"}, Category: "pitch"},
		{Canonical: "rapid fire", Category: "candidate"},
	}
	if err := WriteDict(path, entries); err != nil {
		t.Fatal(err)
	}

	dict, err := LoadDict(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(dict.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(dict.Entries))
	}
	if dict.Entries[1].Canonical != "rapid fire" || len(dict.Entries[1].Variants) != 0 {
		t.Errorf("Unexpected second entry %+v", dict.Entries[1])
	}
	if dict.Entries[1].Category != "candidate" {
		t.Errorf("Expected category 'candidate', got %q", dict.Entries[1].Category)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/songlex.yaml"); err == nil {
		t.Error("Should error on non-existent config")
	}
	if _, err := LoadTaxonomy("/nonexistent/path.yaml"); err == nil {
		t.Error("Should error on non-existent file")
	}
	if _, err := LoadDict("/nonexistent/path.txt"); err == nil {
		t.Error("Should error on non-existent file")
	}
}

func TestLoadEmptyDict(t *testing.T) {
	dictPath := writeFile(t, t.TempDir(), "empty.dict", "")
	dict, err := LoadDict(dictPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(dict.Entries) != 0 {
		t.Error("Empty dict should have no entries")
	}
}
