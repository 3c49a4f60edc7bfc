package batch

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentstation/leadsync/pkg/constants"
	"github.com/agentstation/leadsync/pkg/errors"
	"github.com/agentstation/leadsync/pkg/normalize"
)

const utf8BOM = "\ufeff"

// Table is a CSV file held in memory: a header row and the data rows,
// padded to the header width. Blank rows are kept so a rewrite preserves the
// file's shape.
type Table struct {
	Header []string
	Rows   [][]string
	Comma  rune
	bom    bool
}

// ReadTable loads a CSV file. The delimiter (comma or semicolon) is sniffed
// from the header line and rows are padded to the header width.
func ReadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	t := &Table{Comma: ','}
	if bytes.HasPrefix(data, []byte(utf8BOM)) {
		t.bom = true
		data = data[len(utf8BOM):]
	}
	t.Comma = sniffComma(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = t.Comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", path, err)
	}
	if len(records) == 0 {
		return nil, errors.NewParseError("csv", path, "file has no header row", errors.ErrInvalidInput)
	}

	t.Header = records[0]
	for _, rec := range records[1:] {
		t.Rows = append(t.Rows, t.pad(rec))
	}
	return t, nil
}

// StatusIndex returns the index of the status column, appending an empty
// one when the header lacks it. The appended column goes after the widest
// row so rows carrying more fields than the header keep their extra cells.
func (t *Table) StatusIndex(column string) int {
	want := normalize.Text(column)
	for i, h := range t.Header {
		if normalize.Text(h) == want {
			return i
		}
	}
	for _, row := range t.Rows {
		for len(t.Header) < len(row) {
			t.Header = append(t.Header, "")
		}
	}
	t.Header = append(t.Header, column)
	for i := range t.Rows {
		t.Rows[i] = t.pad(t.Rows[i])
	}
	return len(t.Header) - 1
}

// WriteAtomic writes the table to a temporary file next to path and renames
// it over path.
func (t *Table) WriteAtomic(path string) error {
	mode := os.FileMode(constants.FilePermissions)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	bw := bufio.NewWriter(tmp)
	if t.bom {
		_, _ = bw.WriteString(utf8BOM)
	}
	w := csv.NewWriter(bw)
	w.Comma = t.Comma
	if err := w.Write(t.Header); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.WrapIO("write", tmpName, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.WrapIO("write", tmpName, err)
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.WrapIO("write", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.WrapIO("sync", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.WrapIO("close", tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return errors.WrapIO("chmod", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

func (t *Table) pad(row []string) []string {
	for len(row) < len(t.Header) {
		row = append(row, "")
	}
	return row
}

// sniffComma picks ';' when the header line has more semicolons than
// commas, as spreadsheet exports in pt-BR locales do.
func sniffComma(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if strings.Count(string(line), ";") > strings.Count(string(line), ",") {
		return ';'
	}
	return ','
}

// Blank reports whether row i has no non-space cell.
func (t *Table) Blank(i int) bool {
	return blank(t.Rows[i])
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
