package tabular

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSVWithAliases(t *testing.T) {
	path := writeFile(t, "sibley.csv", "Common Name,Scientific_Name,Voice\n"+
		"American Robin,Turdus migratorius,\"Song a rich \"\"cheerily cheer-up\"\" carol\"\n"+
		",,\n"+
		"Blue Jay,Cyanocitta cristata,harsh jeer\n")

	tbl, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"commonname", "scientificname", "voice"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)

	first := tbl.Rows[0]
	assert.Equal(t, "American Robin", first.Get("common name"))
	assert.Equal(t, "Turdus migratorius", first.Get("scientific-name"))
	assert.Equal(t, `Song a rich "cheerily cheer-up" carol`, first.Get("voice"))
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 4, tbl.Rows[1].Line)
}

func TestReadTabbedKeepsQuotes(t *testing.T) {
	path := writeFile(t, "guide.tsv", "name\tvoice\n"+
		"Carolina Wren\t\"teakettle teakettle\" loud\n")

	tbl, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, `"teakettle teakettle" loud`, tbl.Rows[0].Get("voice"))
}

func TestReadShortRowsPadded(t *testing.T) {
	path := writeFile(t, "short.tsv", "name\tsize\tvoice\nWren\t10 cm\n")

	tbl, err := ReadFile(path)
	require.NoError(t, err)
	row := tbl.Rows[0]
	assert.True(t, row.Has("voice"))
	assert.Equal(t, "", row.Get("voice"))
	assert.Equal(t, "10 cm", row.Get("size"))
}

func TestGetFallsThroughAliases(t *testing.T) {
	row := Row{Cells: map[string]string{"song": "", "calls": "chip"}}
	assert.Equal(t, "chip", row.Get("song", "calls"))
	assert.False(t, row.Has("voice"))
}

func TestReadEmptyFileFails(t *testing.T) {
	path := writeFile(t, "empty.csv", "name,voice\n")
	_, err := ReadFile(path)
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.CSV"))
	assert.True(t, Supported("b.tsv"))
	assert.False(t, Supported("c.json"))
}

func TestNormalizeHeaderStripsBOM(t *testing.T) {
	assert.Equal(t, "commonname", NormalizeHeader("\ufeffCommon_Name "))
}

func TestWarningsUseUppercasePrefix(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})

	warnf("skipping malformed row at line %d in %s", 3, "guide.csv")
	assert.Equal(t, "WARNING: skipping malformed row at line 3 in guide.csv\n", buf.String())
}
