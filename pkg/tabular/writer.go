// pkg/tabular/writer.go
package tabular

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultFlushEvery is the row count after which buffered rows are flushed
const DefaultFlushEvery = 1000

// Writer writes a UTF-8-BOM CSV file, flushing every flushEvery rows
type Writer struct {
	path       string
	file       *os.File
	enc        *transform.Writer
	csv        *csv.Writer
	flushEvery int
	pending    int
	rows       int64
}

// Create truncates (or creates) path, writes the header and returns a writer
func Create(path string, header []string, flushEvery int) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	if flushEvery <= 0 {
		flushEvery = DefaultFlushEvery
	}

	enc := transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
	w := &Writer{
		path:       path,
		file:       f,
		enc:        enc,
		csv:        csv.NewWriter(enc),
		flushEvery: flushEvery,
	}
	if err := w.csv.Write(header); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "writing header of %s", path)
	}
	return w, nil
}

// Write appends one row
func (w *Writer) Write(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return errors.Wrapf(err, "writing %s", w.path)
	}
	w.rows++
	w.pending++
	if w.pending >= w.flushEvery {
		return w.Flush()
	}
	return nil
}

// Flush pushes buffered rows to the file
func (w *Writer) Flush() error {
	w.pending = 0
	w.csv.Flush()
	return errors.Wrapf(w.csv.Error(), "flushing %s", w.path)
}

// Rows returns the number of data rows written
func (w *Writer) Rows() int64 {
	return w.rows
}

// Path returns the file being written
func (w *Writer) Path() string {
	return w.path
}

// Close flushes and closes the file
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return errors.Wrapf(err, "closing encoder for %s", w.path)
	}
	return errors.Wrapf(w.file.Close(), "closing %s", w.path)
}

// WriteAll creates path and writes every row
func WriteAll(path string, header []string, rows [][]string) error {
	w, err := Create(path, header, DefaultFlushEvery)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
