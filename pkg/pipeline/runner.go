// pkg/pipeline/runner.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/audit"
	"github.com/David-Botos/jobnorm/pkg/canonicalizer"
	"github.com/David-Botos/jobnorm/pkg/extractor"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/projector"
	"github.com/David-Botos/jobnorm/pkg/reference"
	"github.com/David-Botos/jobnorm/pkg/tabular"
)

// DefaultBatchSize bounds the records held in memory per read
const DefaultBatchSize = 5000

// CombinedFile is the name of the concatenated canonical file
const CombinedFile = "combined.csv"

// Options locates every stage directory
type Options struct {
	InputDir  string // Source files, one per source
	WorkDir   string // Holds extracted/ and canonical/
	OutputDir string // Entity tables
	AuditDir  string // Unmatched-value reports and run summary
	BatchSize int
}

// ExtractedDir is where the extract stage writes
func (o Options) ExtractedDir() string { return filepath.Join(o.WorkDir, "extracted") }

// CanonicalDir is where the canonicalize stage writes
func (o Options) CanonicalDir() string { return filepath.Join(o.WorkDir, "canonical") }

// Runner executes the stages in order over every input file. Records are
// processed one at a time in file order; batches only bound memory.
type Runner struct {
	opts          Options
	registry      *reference.Registry
	extractor     *extractor.Extractor
	canonicalizer *canonicalizer.Canonicalizer
	acc           *audit.Accumulator
	metrics       *RunMetrics
	logger        *zap.Logger
}

// NewRunner wires the stage components around one registry
func NewRunner(registry *reference.Registry, opts Options, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	ext, err := extractor.New(registry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}
	canon, err := canonicalizer.New(registry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create canonicalizer: %w", err)
	}

	metrics := NewRunMetrics()
	return &Runner{
		opts:          opts,
		registry:      registry,
		extractor:     ext,
		canonicalizer: canon,
		acc:           audit.NewAccumulator(),
		metrics:       metrics,
		logger:        logger.With(zap.String("runID", metrics.RunID)),
	}, nil
}

// Accumulator returns the audit state of the stages this runner executed
func (r *Runner) Accumulator() *audit.Accumulator {
	return r.acc
}

// Metrics returns the run metrics collected so far
func (r *Runner) Metrics() *RunMetrics {
	return r.metrics
}

// Run resets the audit reports and executes extract, canonicalize and project
func (r *Runner) Run(ctx context.Context) error {
	if err := audit.ResetReports(r.opts.AuditDir); err != nil {
		return err
	}
	r.logger.Info("Starting pipeline run",
		zap.String("inputDir", r.opts.InputDir),
		zap.String("workDir", r.opts.WorkDir),
		zap.String("outputDir", r.opts.OutputDir),
		zap.Int("batchSize", r.opts.BatchSize))

	if err := r.Extract(ctx); err != nil {
		return err
	}
	if err := r.Canonicalize(ctx); err != nil {
		return err
	}
	if _, err := r.Project(ctx); err != nil {
		return err
	}
	return r.Finish()
}

// Extract fills unknown fields from descriptions: InputDir -> ExtractedDir
func (r *Runner) Extract(ctx context.Context) error {
	return r.transformStage(ctx, StageExtract, r.opts.InputDir, r.opts.ExtractedDir(),
		func(batch []*model.Record, acc *audit.Accumulator) []*model.Record {
			return r.extractor.ExtractBatch(batch, acc)
		})
}

// Canonicalize resolves values to the closed vocabularies: ExtractedDir -> CanonicalDir
func (r *Runner) Canonicalize(ctx context.Context) error {
	return r.transformStage(ctx, StageCanonicalize, r.opts.ExtractedDir(), r.opts.CanonicalDir(),
		func(batch []*model.Record, acc *audit.Accumulator) []*model.Record {
			return r.canonicalizer.CanonicalizeRows(batch, acc)
		})
}

type transformFunc func([]*model.Record, *audit.Accumulator) []*model.Record

// transformStage maps every file of inDir to a same-named file in outDir
func (r *Runner) transformStage(ctx context.Context, stage Stage, inDir, outDir string, fn transformFunc) error {
	files, err := ListInputs(inDir)
	if err != nil {
		return stageErr(stage, "", err)
	}
	sm := r.metrics.startStage(stage)
	defer sm.end()

	r.logger.Info("Starting stage",
		zap.String("stage", string(stage)),
		zap.Int("files", len(files)))

	stageAcc := audit.NewAccumulator()
	for _, path := range files {
		fileAcc := audit.NewAccumulator()
		read, written, skipped, err := r.transformFile(ctx, path, filepath.Join(outDir, filepath.Base(path)), fn, fileAcc)
		if err != nil {
			return stageErr(stage, path, err)
		}
		fileAcc.MalformedRows(skipped)
		stageAcc.Merge(fileAcc)

		sm.Files++
		sm.RowsRead += read
		sm.RowsOut += written
		sm.Malformed += int64(skipped)
		r.logger.Info("Processed file",
			zap.String("stage", string(stage)),
			zap.String("file", filepath.Base(path)),
			zap.Int64("rows", read),
			zap.Int("malformedRows", skipped))
		if skipped > 0 {
			r.logger.Warn("Skipped malformed rows",
				zap.String("file", path),
				zap.Int("rows", skipped))
		}
	}

	stageAcc.LogSummary(r.logger, string(stage))
	r.acc.Merge(stageAcc)
	if err := stageAcc.SaveStage(r.opts.AuditDir, string(stage)); err != nil {
		return stageErr(stage, "", err)
	}
	return nil
}

func (r *Runner) transformFile(ctx context.Context, in, out string, fn transformFunc, acc *audit.Accumulator) (read, written int64, skipped int, err error) {
	rr, err := tabular.OpenRecords(in, r.logger)
	if err != nil {
		return 0, 0, 0, err
	}
	defer rr.Close()

	w, err := tabular.Create(out, model.Header(), r.opts.BatchSize)
	if err != nil {
		return 0, 0, 0, err
	}

	for {
		if err := ctx.Err(); err != nil {
			w.Close()
			return read, written, rr.Skipped(), err
		}
		batch, err := rr.ReadBatch(r.opts.BatchSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			w.Close()
			return read, written, rr.Skipped(), err
		}
		read += int64(len(batch))
		for _, rec := range fn(batch, acc) {
			if err := w.Write(rec.Row()); err != nil {
				w.Close()
				return read, written, rr.Skipped(), err
			}
			written++
		}
	}
	return read, written, rr.Skipped(), w.Close()
}

// Project builds the entity tables from CanonicalDir into OutputDir
func (r *Runner) Project(ctx context.Context) (projector.Stats, error) {
	files, err := ListInputs(r.opts.CanonicalDir())
	if err != nil {
		return projector.Stats{}, stageErr(StageProject, "", err)
	}
	sm := r.metrics.startStage(StageProject)
	defer sm.end()

	proj, err := projector.New(r.registry, r.logger)
	if err != nil {
		return projector.Stats{}, stageErr(StageProject, "", err)
	}
	out, err := projector.CreateOutput(r.opts.OutputDir, r.opts.BatchSize)
	if err != nil {
		return projector.Stats{}, stageErr(StageProject, "", err)
	}

	stageAcc := audit.NewAccumulator()
	for _, path := range files {
		if err := r.projectFile(ctx, proj, out, path, stageAcc, sm); err != nil {
			out.Close()
			return projector.Stats{}, stageErr(StageProject, path, err)
		}
	}
	counts := out.Counts()
	if err := out.Close(); err != nil {
		return projector.Stats{}, stageErr(StageProject, "", err)
	}

	stats := proj.Stats()
	for table, n := range counts {
		if stats.Tables[table] != n {
			return stats, stageErr(StageProject, table,
				fmt.Errorf("wrote %d rows but projected %d", n, stats.Tables[table]))
		}
		sm.RowsOut += n
	}
	stats.Log(r.logger)
	stageAcc.LogSummary(r.logger, string(StageProject))
	r.acc.Merge(stageAcc)
	if err := stageAcc.SaveStage(r.opts.AuditDir, string(StageProject)); err != nil {
		return stats, stageErr(StageProject, "", err)
	}
	r.metrics.Projection = &stats
	for _, tm := range model.OutputTables() {
		r.metrics.Outputs[tm.Table] = projector.TablePath(r.opts.OutputDir, tm.Table)
	}
	return stats, nil
}

func (r *Runner) projectFile(ctx context.Context, proj *projector.Projector, out *projector.Output, path string, acc *audit.Accumulator, sm *StageMetrics) error {
	rr, err := tabular.OpenRecords(path, r.logger)
	if err != nil {
		return err
	}
	defer rr.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := rr.ReadBatch(r.opts.BatchSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		sm.RowsRead += int64(len(batch))
		if err := out.Write(proj.ProjectBatch(batch, acc)); err != nil {
			return err
		}
	}
	sm.Files++
	sm.Malformed += int64(rr.Skipped())
	acc.MalformedRows(rr.Skipped())
	return nil
}

// Combine concatenates the canonical files into one file under WorkDir
func (r *Runner) Combine(ctx context.Context) (string, error) {
	files, err := ListInputs(r.opts.CanonicalDir())
	if err != nil {
		return "", stageErr(StageCombine, "", err)
	}
	sm := r.metrics.startStage(StageCombine)
	defer sm.end()

	dest := filepath.Join(r.opts.WorkDir, CombinedFile)
	w, err := tabular.Create(dest, model.Header(), r.opts.BatchSize)
	if err != nil {
		return "", stageErr(StageCombine, dest, err)
	}
	for _, path := range files {
		n, err := copyRecords(ctx, path, w, r.opts.BatchSize, r.logger)
		if err != nil {
			w.Close()
			return "", stageErr(StageCombine, path, err)
		}
		sm.Files++
		sm.RowsRead += n
	}
	sm.RowsOut = w.Rows()
	if err := w.Close(); err != nil {
		return "", stageErr(StageCombine, dest, err)
	}
	r.metrics.Outputs["combined"] = dest
	r.logger.Info("Combined canonical files",
		zap.String("file", dest),
		zap.Int("files", sm.Files),
		zap.Int64("rows", sm.RowsOut))
	return dest, nil
}

func copyRecords(ctx context.Context, path string, w *tabular.Writer, batchSize int, logger *zap.Logger) (int64, error) {
	rr, err := tabular.OpenRecords(path, logger)
	if err != nil {
		return 0, err
	}
	defer rr.Close()

	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		batch, err := rr.ReadBatch(batchSize)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		for _, rec := range batch {
			if err := w.Write(rec.Row()); err != nil {
				return n, err
			}
			n++
		}
	}
}

// auditedStages are the stages that save an audit snapshot, in pipeline order
var auditedStages = []string{string(StageExtract), string(StageCanonicalize), string(StageProject)}

// Finish writes the audit reports and the run summary. Reports cover every
// stage saved in AuditDir since the last Run, so stages executed by separate
// runners add up instead of replacing each other.
func (r *Runner) Finish() error {
	acc, err := audit.LoadStages(r.opts.AuditDir, auditedStages...)
	if err != nil {
		return err
	}
	if err := acc.WriteReports(r.opts.AuditDir); err != nil {
		return err
	}
	r.metrics.Complete(acc)
	path, err := r.metrics.WriteSummary(r.opts.AuditDir)
	if err != nil {
		return err
	}
	acc.LogSummary(r.logger, "run")
	r.metrics.Log(r.logger)
	r.logger.Info("Wrote audit reports",
		zap.String("auditDir", r.opts.AuditDir),
		zap.String("summary", path))
	return nil
}

// ListInputs returns the CSV files of dir sorted by name, or ErrNoInput
func ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoInput, dir)
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInput, dir)
	}
	sort.Strings(files)
	return files, nil
}
