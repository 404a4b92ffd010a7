// Package tabular reads the delimited text files used for field-guide
// tables and reference word lists.
//
// Comma-separated files go through encoding/csv with lazy quoting. Tab
// separated files are split verbatim on tabs: guide prose routinely opens
// a cell with a quotation mark, which a CSV reader would take as field
// quoting.
package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Table is a parsed delimited file.
type Table struct {
	Path   string
	Header []string // normalized header keys, in file order
	Rows   []Row
}

// Row is one data line keyed by normalized header.
type Row struct {
	Line  int
	Cells map[string]string
}

// Get returns the first non-empty cell among the given column aliases.
func (r Row) Get(aliases ...string) string {
	for _, a := range aliases {
		if v, ok := r.Cells[NormalizeHeader(a)]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Has reports whether any alias is a column of the row.
func (r Row) Has(aliases ...string) bool {
	for _, a := range aliases {
		if _, ok := r.Cells[NormalizeHeader(a)]; ok {
			return true
		}
	}
	return false
}

// NormalizeHeader folds a column header to a lookup key:
// lowercase, with spaces, hyphens and underscores removed.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

// Supported reports whether path has a recognized delimited-file extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt", ".tab":
		return true
	}
	return false
}

// ReadFile loads a delimited file. Rows that fail to parse are skipped
// with a warning; a file with no usable rows is an error.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var records [][]string
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		records, err = readCSV(f, path)
	} else {
		records, err = readTabbed(f)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return build(path, records)
}

func build(path string, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}

	t := &Table{Path: path}
	for _, h := range records[0] {
		t.Header = append(t.Header, NormalizeHeader(h))
	}

	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := Row{Line: i + 2, Cells: make(map[string]string, len(t.Header))}
		for j, key := range t.Header {
			if key == "" {
				continue
			}
			if j < len(rec) {
				row.Cells[key] = rec[j]
			} else {
				row.Cells[key] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("no valid rows found in %s", path)
	}
	return t, nil
}

func readCSV(r io.Reader, path string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var out [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				warnf("skipping malformed row at line %d in %s: %v", perr.StartLine, path, perr.Err)
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func warnf(format string, args ...any) {
	log.Printf("WARNING: "+format, args...)
}

func readTabbed(r io.Reader) ([][]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out [][]string
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		out = append(out, strings.Split(line, "\t"))
	}
	return out, sc.Err()
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
