package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/songlex/pkg/songlex/lsa"
)

const sibleyCSV = `common_name,scientific_name,size,voice
Loggerhead Shrike,Lanius ludovicianus,23 cm,"A buzzy trill, trill and buzzy rattle ""shack shack"""
Chipping Sparrow,Spizella passerina,14 cm,trill buzzy rattle trill buzzy
Hermit Thrush,Catharus guttatus,17 cm,whistle sweet clear whistle sweet
Wood Thrush,Hylocichla mustelina,20 cm,whistle clear sweet clear whistle *rarely*
Common Raven,Corvus corax,60 cm,croak
`

const analysisFile = `guides: guides
stoplist: stoplist.yaml
reference:
  timbre: timbre.csv
  modality: modality.csv
lsa:
  clusters: 2
`

// setupAnalysisDir writes a small guide corpus with an analysis file and
// returns the analysis file path.
func setupAnalysisDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "guides"), 0o755); err != nil {
		t.Fatalf("mkdir guides: %v", err)
	}
	files := map[string]string{
		"guides/sibley.csv": sibleyCSV,
		"stoplist.yaml":     "terms: [and]\n",
		"timbre.csv":        "word,frequency\nbuzzy,50\nsweet,30\nclear,20\nreedy,10\n",
		"modality.csv":      "word,dominant\ntrill,auditory\nsweet,gustatory\nclear,visual\n",
		"songlex.yaml":      analysisFile,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return filepath.Join(dir, "songlex.yaml")
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestRunCommandJSON(t *testing.T) {
	configPath := setupAnalysisDir(t)

	out, _, err := runCLI(t, []string{"run", "--json"}, configPath)
	if err != nil {
		t.Fatalf("run --json: %v", err)
	}

	var decoded struct {
		Records int            `json:"records"`
		Species int            `json:"species"`
		Guides  map[string]int `json:"records_per_guide"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if decoded.Records != 5 || decoded.Species != 5 || decoded.Guides["sibley"] != 5 {
		t.Fatalf("unexpected run output %+v", decoded)
	}
}

func TestRunStoresAndListsRuns(t *testing.T) {
	configPath := setupAnalysisDir(t)
	db := filepath.Join(t.TempDir(), "runs.db")

	out, _, err := runCLI(t, []string{"run", "--db", db}, configPath)
	if err != nil {
		t.Fatalf("run --db: %v", err)
	}
	requireContains(t, out, "Summary")

	out, _, err = runCLI(t, []string{"runs", "--db", db}, configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "guides")
	if strings.Contains(out, "No stored runs") {
		t.Fatalf("expected the stored run to be listed, got %q", out)
	}
}

func TestRunsWithoutDatabase(t *testing.T) {
	configPath := setupAnalysisDir(t)

	_, _, err := runCLI(t, []string{"runs"}, configPath)
	if err == nil {
		t.Fatal("expected an error without --db")
	}
}

func TestDescribeAndSizesCommands(t *testing.T) {
	configPath := setupAnalysisDir(t)

	out, _, err := runCLI(t, []string{"describe"}, configPath)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	requireContains(t, out, "sibley")
	requireContains(t, out, "buzzy")

	out, _, err = runCLI(t, []string{"sizes"}, configPath)
	if err != nil {
		t.Fatalf("sizes: %v", err)
	}
	requireContains(t, out, "23 cm")
}

func TestCrossRefCommandListsWords(t *testing.T) {
	configPath := setupAnalysisDir(t)

	out, _, err := runCLI(t, []string{"crossref", "--words"}, configPath)
	if err != nil {
		t.Fatalf("crossref: %v", err)
	}
	requireContains(t, out, "reedy")
}

func TestGuidesFlagOverridesConfig(t *testing.T) {
	configPath := setupAnalysisDir(t)
	missing := filepath.Join(t.TempDir(), "nowhere")

	_, _, err := runCLI(t, []string{"--guides", missing, "describe"}, configPath)
	if err == nil {
		t.Fatal("expected a missing guide directory to abort the run")
	}
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "songlex.yaml")
	if err := os.WriteFile(path, []byte("analytics:\n  window: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := runCLI(t, []string{"describe"}, path)
	if err == nil {
		t.Fatal("expected invalid config to fail")
	}
}

func TestNeighborsMatchesSpeciesCaseInsensitively(t *testing.T) {
	space, err := lsa.Build(map[string][]string{
		"lanius ludovicianus":  {"trill", "trill", "buzzy", "buzzy", "rattle"},
		"spizella passerina":   {"trill", "buzzy", "rattle", "trill", "buzzy"},
		"catharus guttatus":    {"whistle", "sweet", "clear", "whistle", "sweet"},
		"hylocichla mustelina": {"whistle", "clear", "sweet", "clear", "whistle"},
	}, lsa.DefaultOptions())
	if err != nil {
		t.Fatalf("build space: %v", err)
	}

	ns, err := neighbors(space, "  Catharus   Guttatus ", 1)
	if err != nil {
		t.Fatalf("neighbors: %v", err)
	}
	if len(ns) != 1 || ns[0].Name != "hylocichla mustelina" {
		t.Errorf("expected hylocichla mustelina nearest, got %+v", ns)
	}

	ns, err = neighbors(space, "TRILL", 1)
	if err != nil {
		t.Fatalf("term neighbors: %v", err)
	}
	if len(ns) != 1 || ns[0].Name != "buzzy" {
		t.Errorf("expected buzzy nearest to trill, got %+v", ns)
	}
}
