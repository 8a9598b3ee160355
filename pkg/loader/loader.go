// pkg/loader/loader.go
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/connector"
	"github.com/David-Botos/jobnorm/pkg/converter"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/projector"
	"github.com/David-Botos/jobnorm/pkg/tabular"
)

// maxParams keeps multi-row INSERTs under the bind-parameter limit of both
// PostgreSQL (65535) and SQLite (32766)
const maxParams = 32000

// Options tunes a Loader
type Options struct {
	// Rows per INSERT statement (capped by the parameter limit)
	BatchSize int
	// Attempts per table for retryable errors
	MaxRetries int
	// Pause between attempts, doubled each time
	RetryBackoff time.Duration
	// Timeout for DDL statements
	StatementTimeout time.Duration
	// Run id stamped into logs; a new one is generated when empty
	RunID string
}

// DefaultOptions returns the default loader options
func DefaultOptions() Options {
	return Options{
		BatchSize:        1000,
		MaxRetries:       3,
		RetryBackoff:     time.Second,
		StatementTimeout: time.Minute,
	}
}

// Loader copies the entity tables of an output directory into a relational
// sink with truncate-then-reload semantics
type Loader struct {
	conn      connector.DatabaseConnector
	converter *converter.TypeConverter
	dir       string
	opts      Options
	logger    *zap.Logger
}

// New creates a loader reading entity tables from dir
func New(conn connector.DatabaseConnector, dir string, opts Options, logger *zap.Logger) (*Loader, error) {
	if conn == nil {
		return nil, fmt.Errorf("loader requires a connector")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptions().BatchSize
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	conv, err := converter.NewTypeConverter(conn.Dialect(), logger)
	if err != nil {
		return nil, err
	}
	return &Loader{
		conn:      conn,
		converter: conv,
		dir:       dir,
		opts:      opts,
		logger:    logger.Named("loader").With(zap.String("runId", opts.RunID)),
	}, nil
}

// Tables returns the output tables in load order, placed in the sink schema
func (l *Loader) Tables() []model.TableMetadata {
	tables := model.OutputTables()
	for i := range tables {
		tables[i] = tables[i].WithSchema(l.conn.Schema())
	}
	return tables
}

// Load creates missing tables, clears every table, then reloads each one
// inside its own transaction. Loading stops at the first table that fails.
func (l *Loader) Load(ctx context.Context) (*LoadSummary, error) {
	summary := &LoadSummary{
		RunID:     l.opts.RunID,
		Dialect:   string(l.conn.Dialect()),
		StartTime: time.Now(),
	}
	defer func() {
		summary.EndTime = time.Now()
		summary.Duration = summary.EndTime.Sub(summary.StartTime)
	}()

	tables := l.Tables()
	for i := range tables {
		if _, err := os.Stat(projector.TablePath(l.dir, tables[i].Table)); err != nil {
			return summary, fmt.Errorf("entity table %s: %w", tables[i].Table, err)
		}
	}

	if err := l.conn.Validate(ctx); err != nil {
		return summary, fmt.Errorf("sink validation failed: %w", err)
	}
	if err := l.prepare(ctx, tables); err != nil {
		return summary, err
	}

	for i := range tables {
		result := l.loadWithRetry(ctx, &tables[i])
		summary.Tables = append(summary.Tables, *result)
		if !result.Succeeded() {
			return summary, fmt.Errorf("loading %s failed: %s", result.Table, result.Error)
		}
	}
	return summary, nil
}

// prepare creates the tables in dependency order and clears them in reverse
// so no foreign key is left dangling
func (l *Loader) prepare(ctx context.Context, tables []model.TableMetadata) error {
	for i := range tables {
		ddl, err := l.converter.CreateTableStatement(&tables[i])
		if err != nil {
			return err
		}
		if _, err := l.conn.ExecWithTimeout(ctx, ddl, l.opts.StatementTimeout); err != nil {
			return fmt.Errorf("failed to create table %s: %w", tables[i].Table, err)
		}
	}
	for i := len(tables) - 1; i >= 0; i-- {
		stmt := l.converter.ClearTableStatement(&tables[i])
		if _, err := l.conn.ExecWithTimeout(ctx, stmt, l.opts.StatementTimeout); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", tables[i].Table, err)
		}
	}
	l.logger.Info("Sink tables prepared", zap.Int("tables", len(tables)))
	return nil
}

func (l *Loader) loadWithRetry(ctx context.Context, tm *model.TableMetadata) *TableResult {
	result := newTableResult(tm.Table)
	backoff := l.opts.RetryBackoff

	var err error
	for attempt := 1; attempt <= l.opts.MaxRetries; attempt++ {
		result.Attempts = attempt
		err = l.loadTable(ctx, tm, result)
		if err == nil || !IsRetryableError(err) || attempt == l.opts.MaxRetries {
			break
		}
		l.logger.Warn("Retrying table load",
			zap.String("table", tm.Table),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(backoff):
		}
		if ctx.Err() != nil {
			break
		}
		backoff *= 2
	}

	result.complete(err)
	if err != nil {
		l.logger.Error("Table load failed",
			zap.String("table", tm.Table),
			zap.String("category", result.Category),
			zap.Error(err))
	}
	return result
}

// loadTable inserts every row of one entity file in a single transaction
func (l *Loader) loadTable(ctx context.Context, tm *model.TableMetadata, result *TableResult) (err error) {
	result.RowsRead, result.RowsLoaded, result.Skipped = 0, 0, 0

	r, err := tabular.Open(projector.TablePath(l.dir, tm.Table))
	if err != nil {
		return err
	}
	defer r.Close()
	if err := checkHeader(tm, r.Header()); err != nil {
		return err
	}

	db := l.conn.DB()
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	perStmt := l.opts.BatchSize
	if limit := maxParams / len(tm.Columns); perStmt > limit {
		perStmt = limit
	}
	full := db.Rebind(l.converter.InsertStatement(tm, perStmt))

	args := make([]interface{}, 0, perStmt*len(tm.Columns))
	pending := 0
	flush := func(query string) error {
		if pending == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("batch insert into %s failed: %w", tm.Table, err)
		}
		result.RowsLoaded += int64(pending)
		args, pending = args[:0], 0
		return nil
	}

	for {
		row, rerr := r.Next()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
		result.RowsRead++

		values, cerr := l.converter.ConvertRow(tm, row)
		if cerr != nil {
			return &ConversionError{Table: tm.Table, Line: result.RowsRead, Err: cerr}
		}
		args = append(args, values...)
		pending++

		if pending == perStmt {
			if err := flush(full); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if err := flush(rebindTail(db, l.converter, tm, pending)); err != nil {
		return err
	}
	result.Skipped = r.Skipped()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", tm.Table, err)
	}

	l.logger.Info("Table loaded",
		zap.String("table", tm.Table),
		zap.Int64("rows", result.RowsLoaded),
		zap.Int("skippedRows", result.Skipped))
	return nil
}

func rebindTail(db *sqlx.DB, conv *converter.TypeConverter, tm *model.TableMetadata, rows int) string {
	if rows == 0 {
		return ""
	}
	return db.Rebind(conv.InsertStatement(tm, rows))
}

func checkHeader(tm *model.TableMetadata, header []string) error {
	want := tm.ColumnNames()
	if len(header) != len(want) {
		return fmt.Errorf("table %s: header has %d columns, want %d", tm.Table, len(header), len(want))
	}
	for i := range want {
		if header[i] != want[i] {
			return fmt.Errorf("table %s: column %d is %q, want %q", tm.Table, i, header[i], want[i])
		}
	}
	return nil
}
