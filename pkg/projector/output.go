// pkg/projector/output.go
package projector

import (
	"fmt"
	"path/filepath"

	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/tabular"
)

// Output appends drained batches to one CSV file per output table
type Output struct {
	dir     string
	writers map[string]*tabular.Writer
}

// TablePath returns the file an output table is written to
func TablePath(dir, table string) string {
	return filepath.Join(dir, table+".csv")
}

// CreateOutput truncates every output table file in dir and writes headers
func CreateOutput(dir string, flushEvery int) (*Output, error) {
	o := &Output{dir: dir, writers: make(map[string]*tabular.Writer)}
	for _, tm := range model.OutputTables() {
		w, err := tabular.Create(TablePath(dir, tm.Table), tm.ColumnNames(), flushEvery)
		if err != nil {
			o.Close()
			return nil, fmt.Errorf("failed to create output table %s: %w", tm.Table, err)
		}
		o.writers[tm.Table] = w
	}
	return o, nil
}

// Write appends the rows of b, referenced tables first
func (o *Output) Write(b Batch) error {
	for _, tm := range model.OutputTables() {
		w := o.writers[tm.Table]
		for _, row := range b.Rows(tm.Table) {
			if err := w.Write(row); err != nil {
				return fmt.Errorf("failed to write %s: %w", tm.Table, err)
			}
		}
	}
	return nil
}

// Counts returns the rows written per table
func (o *Output) Counts() map[string]int64 {
	out := make(map[string]int64, len(o.writers))
	for table, w := range o.writers {
		out[table] = w.Rows()
	}
	return out
}

// Close flushes and closes every table file
func (o *Output) Close() error {
	var first error
	for table, w := range o.writers {
		if err := w.Close(); err != nil && first == nil {
			first = fmt.Errorf("failed to close %s: %w", table, err)
		}
	}
	o.writers = make(map[string]*tabular.Writer)
	return first
}
