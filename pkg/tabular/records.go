// pkg/tabular/records.go
package tabular

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/model"
)

// RecordReader maps the rows of one source file onto canonical records
type RecordReader struct {
	r          *Reader
	columns    []model.Field // header position to field, -1 when ignored
	sourceName string
	row        int
	logger     *zap.Logger
}

// OpenRecords opens a source file. Columns outside the canonical field set are
// ignored with a warning; canonical columns the file lacks read as NOT_AVAILABLE.
func OpenRecords(path string, logger *zap.Logger) (*RecordReader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r, err := Open(path)
	if err != nil {
		return nil, err
	}

	columns := make([]model.Field, len(r.Header()))
	var ignored []string
	for i, name := range r.Header() {
		f, ok := model.ParseField(strings.ToLower(name))
		if !ok {
			columns[i] = -1
			ignored = append(ignored, name)
			continue
		}
		columns[i] = f
	}
	if len(ignored) > 0 {
		logger.Warn("Ignoring non-canonical columns",
			zap.String("file", path),
			zap.Strings("columns", ignored))
	}

	return &RecordReader{
		r:          r,
		columns:    columns,
		sourceName: SourceName(path),
		logger:     logger,
	}, nil
}

// SourceName derives the provenance name of a file from its stem
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadBatch returns up to n records. It returns io.EOF once no records remain.
func (rr *RecordReader) ReadBatch(n int) ([]*model.Record, error) {
	if n <= 0 {
		n = 1
	}
	batch := make([]*model.Record, 0, n)
	for len(batch) < n {
		row, err := rr.r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return batch, err
		}
		batch = append(batch, rr.toRecord(row))
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

func (rr *RecordReader) toRecord(row []string) *model.Record {
	rec := model.NewRecord()
	for i, cell := range row {
		if f := rr.columns[i]; f >= 0 {
			rec.Set(f, model.ParseValue(cell))
		}
	}
	if rec.Get(model.FieldSourceName).IsUnknown() {
		rec.Set(model.FieldSourceName, model.Present(rr.sourceName))
	}
	if rec.Get(model.FieldSourceID).IsUnknown() {
		rec.Set(model.FieldSourceID, model.Present(strconv.Itoa(rr.row)))
	}
	rr.row++
	return rec
}

// Skipped returns the number of malformed rows dropped so far
func (rr *RecordReader) Skipped() int {
	return rr.r.Skipped()
}

// Close releases the underlying file
func (rr *RecordReader) Close() error {
	return rr.r.Close()
}
