package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestKeyFoldsCaseAndAccents(t *testing.T) {
	assert.Equal(t, "naive", Key("  Naïve "))
	assert.Equal(t, "cafe", Key("CAFÉ"))
	assert.Equal(t, "buzzy", Key("buzzy"))
}

func TestLoadWordListWithFrequencies(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "timbre.csv", "Word,Frequency\nRaspy,\"1,204\"\nbuzzy,35\nraspy,99\nclear,abc\n")

	list, err := LoadWordList(path, "timbre")
	require.NoError(t, err)

	assert.Equal(t, "timbre", list.Name)
	assert.Equal(t, []string{"buzzy", "clear", "raspy"}, list.Words)
	assert.True(t, list.HasFrequencies())
	assert.Equal(t, int64(1204), list.Frequencies["raspy"])
	assert.Equal(t, int64(35), list.Frequencies["buzzy"])
	_, ok := list.Frequencies["clear"]
	assert.False(t, ok, "bad frequency should be left out")

	assert.True(t, list.Contains("Buzzy"))
	assert.False(t, list.Contains("sweet"))
}

func TestLoadWordListWithoutFrequencies(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "timbre.tsv", "term\nmellow\nnasal\n")

	list, err := LoadWordList(path, "timbre")
	require.NoError(t, err)
	assert.False(t, list.HasFrequencies())
	assert.Nil(t, list.Frequencies)
	assert.Len(t, list.Words, 2)
}

func TestLoadModalityNorms(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "norms.csv",
		"Word,Auditory.mean,Visual.mean,Haptic.mean,Dominant.perceptual\n"+
			"LOUD,4.9,1.2,0.4,Auditory\n"+
			"bright,0.6,4.5,0.3,\n"+
			"nothing,,,,\n")

	norms, err := LoadModalityNorms(path)
	require.NoError(t, err)
	require.Len(t, norms, 2)

	assert.Equal(t, "bright", norms[0].Word)
	assert.Equal(t, "visual", norms[0].Dominant, "dominant falls back to strongest modality")
	assert.Equal(t, "loud", norms[1].Word)
	assert.Equal(t, "auditory", norms[1].Dominant)
	assert.InDelta(t, 4.9, norms[1].Strengths["auditory"], 1e-9)
}

func TestLoadPOS(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pos.tsv", "Word\tDom_PoS\ntrill\tNoun\nsweet\tAdjective\nempty\t\n")

	entries, err := LoadPOS(path)
	require.NoError(t, err)
	assert.Equal(t, []POSEntry{{Word: "sweet", POS: "adjective"}, {Word: "trill", POS: "noun"}}, entries)
}

func TestLoadReference(t *testing.T) {
	dir := t.TempDir()
	paths := ReferencePaths{
		Timbre:   writeFile(t, dir, "timbre.csv", "word\nbuzzy\nsweet\n"),
		Modality: writeFile(t, dir, "norms.csv", "word,dominant\nloud,auditory\nsweet,gustatory\nbright,visual\n"),
		POS:      writeFile(t, dir, "pos.csv", "word,pos\nsweet,adjective\ntrill,noun\n"),
	}

	ref, err := LoadReference(paths)
	require.NoError(t, err)

	assert.True(t, ref.IsTimbre("Sweet"))
	assert.False(t, ref.IsTimbre("loud"))

	norm, ok := ref.Modality("loud")
	require.True(t, ok)
	assert.Equal(t, "auditory", norm.Dominant)

	pos, ok := ref.POS("trill")
	require.True(t, ok)
	assert.Equal(t, "noun", pos)
	_, ok = ref.POS("loud")
	assert.False(t, ok)

	assert.Equal(t, map[string]int64{"auditory": 1, "gustatory": 1, "visual": 1}, ref.ModalityCounts())
	assert.Equal(t, map[string]int64{"adjective": 1, "noun": 1}, ref.POSCounts())
	assert.Equal(t, []string{"bright", "buzzy", "loud", "sweet", "trill"}, ref.Vocabulary())
	assert.Equal(t, []string{"bright", "loud", "sweet"}, ref.ModalityList().Words)
	assert.Equal(t, []string{"sweet", "trill"}, ref.POSList().Words)
}

func TestLoadReferenceSkipsEmptyPaths(t *testing.T) {
	ref, err := LoadReference(ReferencePaths{})
	require.NoError(t, err)
	assert.Empty(t, ref.Vocabulary())
	assert.False(t, ref.IsTimbre("anything"))
}

func TestLoadReferenceMissingFile(t *testing.T) {
	_, err := LoadReference(ReferencePaths{Timbre: filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
}
