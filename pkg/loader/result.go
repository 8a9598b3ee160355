// pkg/loader/result.go
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// SummaryFile is the load summary written next to the audit reports
const SummaryFile = "load_summary.json"

// TableResult contains the outcome of loading one table
type TableResult struct {
	Table      string        `json:"table"`
	RowsRead   int64         `json:"rowsRead"`
	RowsLoaded int64         `json:"rowsLoaded"`
	Skipped    int           `json:"skippedRows"`
	Attempts   int           `json:"attempts"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	Category   string        `json:"errorCategory,omitempty"`
}

func newTableResult(table string) *TableResult {
	return &TableResult{Table: table, StartTime: time.Now()}
}

func (r *TableResult) complete(err error) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	if err != nil {
		r.Error = err.Error()
		r.Category = CategorizeError(err).String()
	}
}

// Succeeded reports whether the table was loaded
func (r *TableResult) Succeeded() bool {
	return r.Error == ""
}

// LoadSummary aggregates the results of one load
type LoadSummary struct {
	RunID     string        `json:"runId"`
	Dialect   string        `json:"dialect"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Tables    []TableResult `json:"tables"`
}

// TotalRows returns the number of rows inserted over every table
func (s *LoadSummary) TotalRows() int64 {
	var total int64
	for _, t := range s.Tables {
		total += t.RowsLoaded
	}
	return total
}

// Log writes the summary at info level
func (s *LoadSummary) Log(logger *zap.Logger) {
	for _, t := range s.Tables {
		logger.Info("Table load result",
			zap.String("table", t.Table),
			zap.Int64("rowsLoaded", t.RowsLoaded),
			zap.Int("skippedRows", t.Skipped),
			zap.Int("attempts", t.Attempts),
			zap.Duration("duration", t.Duration),
			zap.String("error", t.Error))
	}
	logger.Info("Load complete",
		zap.String("runId", s.RunID),
		zap.String("dialect", s.Dialect),
		zap.Int("tables", len(s.Tables)),
		zap.Int64("rows", s.TotalRows()),
		zap.Duration("duration", s.Duration))
}

// WriteSummary writes the summary as JSON into dir and returns its path
func (s *LoadSummary) WriteSummary(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode load summary: %w", err)
	}
	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
