// pkg/tabular/reader.go
package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Reader streams rows of a UTF-8 (optionally BOM-signed) CSV file with a header row
type Reader struct {
	path    string
	file    *os.File
	csv     *csv.Reader
	header  []string
	skipped int
}

// Open opens path and consumes its header row
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	decoded := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, errors.Errorf("%s has no header row", path)
		}
		return nil, errors.Wrapf(err, "reading header of %s", path)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	return &Reader{path: path, file: f, csv: cr, header: header}, nil
}

// Header returns the trimmed header columns
func (r *Reader) Header() []string {
	return r.header
}

// Path returns the file being read
func (r *Reader) Path() string {
	return r.path
}

// Next returns the next well-formed row, or io.EOF. Rows whose width differs
// from the header are skipped and counted.
func (r *Reader) Next() ([]string, error) {
	for {
		row, err := r.csv.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				r.skipped++
				continue
			}
			return nil, errors.Wrapf(err, "reading %s", r.path)
		}
		if len(row) != len(r.header) {
			r.skipped++
			continue
		}
		return row, nil
	}
}

// Skipped returns the number of malformed rows dropped so far
func (r *Reader) Skipped() int {
	return r.skipped
}

// Close releases the underlying file
func (r *Reader) Close() error {
	return r.file.Close()
}

// Table is a fully loaded CSV file keyed by header name
type Table struct {
	Path   string
	Header []string
	Rows   []map[string]string
}

// HasColumn reports whether the header contains name
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// ReadAll loads a whole file. Intended for small reference tables.
func ReadAll(path string) (*Table, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t := &Table{Path: path, Header: r.Header()}
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		m := make(map[string]string, len(row))
		for i, h := range t.Header {
			m[h] = row[i]
		}
		t.Rows = append(t.Rows, m)
	}
	return t, nil
}
