// pkg/pipeline/metrics.go
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/audit"
	"github.com/David-Botos/jobnorm/pkg/projector"
)

// StageMetrics tracks one stage execution
type StageMetrics struct {
	Stage     Stage         `json:"stage"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Files     int           `json:"files"`
	RowsRead  int64         `json:"rowsRead"`
	RowsOut   int64         `json:"rowsWritten"`
	Malformed int64         `json:"malformedRows"`
	Duration  time.Duration `json:"durationNanos"`
}

// RunMetrics tracks a whole run. It is owned by one Runner and not shared
// between goroutines.
type RunMetrics struct {
	RunID      string            `json:"runId"`
	StartTime  time.Time         `json:"startTime"`
	EndTime    time.Time         `json:"endTime"`
	Stages     []StageMetrics    `json:"stages"`
	Projection *projector.Stats  `json:"projectionSummary,omitempty"`
	Audit      *audit.Summary    `json:"audit,omitempty"`
	Outputs    map[string]string `json:"outputs,omitempty"`
}

// NewRunMetrics starts a run with a fresh run id
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		Outputs:   make(map[string]string),
	}
}

// startStage appends a stage entry and returns it for updates
func (m *RunMetrics) startStage(stage Stage) *StageMetrics {
	m.Stages = append(m.Stages, StageMetrics{Stage: stage, StartTime: time.Now()})
	return &m.Stages[len(m.Stages)-1]
}

func (sm *StageMetrics) end() {
	sm.EndTime = time.Now()
	sm.Duration = sm.EndTime.Sub(sm.StartTime)
}

// Complete stamps the end of the run and attaches the final audit state
func (m *RunMetrics) Complete(acc *audit.Accumulator) {
	m.EndTime = time.Now()
	if acc != nil {
		s := acc.Summary()
		m.Audit = &s
	}
}

// Duration returns the elapsed run time
func (m *RunMetrics) Duration() time.Duration {
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// WriteSummary writes the run summary as indented JSON into dir
func (m *RunMetrics) WriteSummary(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}
	path := filepath.Join(dir, audit.FileRunSummary)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write run summary: %w", err)
	}
	return path, nil
}

// Log writes the per-stage timings
func (m *RunMetrics) Log(logger *zap.Logger) {
	for _, sm := range m.Stages {
		logger.Info("Stage metrics",
			zap.String("stage", string(sm.Stage)),
			zap.Int("files", sm.Files),
			zap.Int64("rowsRead", sm.RowsRead),
			zap.Int64("rowsWritten", sm.RowsOut),
			zap.Int64("malformedRows", sm.Malformed),
			zap.Duration("duration", sm.Duration))
	}
	logger.Info("Run completed",
		zap.String("runID", m.RunID),
		zap.Int("stages", len(m.Stages)),
		zap.Duration("duration", m.Duration()))
}
