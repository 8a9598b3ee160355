// pkg/loader/verifier.go
package loader

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/connector"
	"github.com/David-Botos/jobnorm/pkg/converter"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/projector"
	"github.com/David-Botos/jobnorm/pkg/tabular"
)

// IntegrityIssue represents a data integrity issue found in the sink
type IntegrityIssue struct {
	IssueType    string `json:"issueType"`
	Description  string `json:"description"`
	ColumnName   string `json:"columnName"`
	AffectedRows int64  `json:"affectedRows"`
}

// VerificationReport contains the results of a table verification
type VerificationReport struct {
	Table             string           `json:"table"`
	VerificationTime  time.Time        `json:"verificationTime"`
	RowCountMatches   bool             `json:"rowCountMatches"`
	FileRowCount      int64            `json:"fileRowCount"`
	SinkRowCount      int64            `json:"sinkRowCount"`
	IntegrityVerified bool             `json:"integrityVerified"`
	IntegrityIssues   []IntegrityIssue `json:"integrityIssues,omitempty"`
}

// Verified reports whether the table passed every check
func (r *VerificationReport) Verified() bool {
	return r.RowCountMatches && r.IntegrityVerified
}

// Verifier compares entity files with what landed in the sink
type Verifier struct {
	conn      connector.DatabaseConnector
	converter *converter.TypeConverter
	dir       string
	logger    *zap.Logger
	timeout   time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(conn connector.DatabaseConnector, dir string, logger *zap.Logger) (*Verifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conv, err := converter.NewTypeConverter(conn.Dialect(), logger)
	if err != nil {
		return nil, err
	}
	return &Verifier{
		conn:      conn,
		converter: conv,
		dir:       dir,
		logger:    logger.Named("verifier"),
		timeout:   time.Minute * 5,
	}, nil
}

// WithTimeout sets a custom timeout for verification queries
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// VerifyAll checks every output table and returns one report per table
func (v *Verifier) VerifyAll(ctx context.Context) ([]VerificationReport, error) {
	reports := make([]VerificationReport, 0, len(model.OutputTables()))
	for _, tm := range model.OutputTables() {
		tm = tm.WithSchema(v.conn.Schema())
		report, err := v.VerifyTable(ctx, &tm)
		if err != nil {
			return reports, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// VerifyTable compares row counts and checks foreign keys for one table
func (v *Verifier) VerifyTable(ctx context.Context, tm *model.TableMetadata) (*VerificationReport, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	report := &VerificationReport{Table: tm.Table, VerificationTime: time.Now()}

	fileCount, err := countFileRows(projector.TablePath(v.dir, tm.Table))
	if err != nil {
		return nil, err
	}
	report.FileRowCount = fileCount

	query := "SELECT COUNT(*) FROM " + v.converter.QualifiedName(tm)
	if err := v.conn.DB().GetContext(ctx, &report.SinkRowCount, query); err != nil {
		return nil, fmt.Errorf("failed to count rows of %s: %w", tm.Table, err)
	}
	report.RowCountMatches = report.FileRowCount == report.SinkRowCount

	issues, err := v.orphanedReferences(ctx, tm)
	if err != nil {
		return nil, err
	}
	report.IntegrityIssues = issues
	report.IntegrityVerified = len(issues) == 0

	if report.Verified() {
		v.logger.Info("Table verification successful",
			zap.String("table", tm.Table),
			zap.Int64("count", report.SinkRowCount))
	} else {
		v.logger.Warn("Table verification failed",
			zap.String("table", tm.Table),
			zap.Int64("fileCount", report.FileRowCount),
			zap.Int64("sinkCount", report.SinkRowCount),
			zap.Int64("difference", report.FileRowCount-report.SinkRowCount),
			zap.Int("integrityIssues", len(issues)))
	}
	return report, nil
}

// orphanedReferences counts foreign key values with no parent row
func (v *Verifier) orphanedReferences(ctx context.Context, tm *model.TableMetadata) ([]IntegrityIssue, error) {
	var issues []IntegrityIssue
	for _, col := range tm.Columns {
		if col.References == "" {
			continue
		}
		parent, ok := model.LookupTable(col.References)
		if !ok {
			return nil, fmt.Errorf("column %s.%s references unknown table %q", tm.Table, col.Name, col.References)
		}
		parent.Schema = tm.Schema
		fkCol := converter.QuoteIdentifier(col.Name)
		pkCol := converter.QuoteIdentifier(parent.PrimaryKeys[0])
		query := fmt.Sprintf(
			"SELECT COUNT(*) FROM %s c WHERE c.%s IS NOT NULL AND NOT EXISTS (SELECT 1 FROM %s p WHERE p.%s = c.%s)",
			v.converter.QualifiedName(tm), fkCol, v.converter.QualifiedName(&parent), pkCol, fkCol)

		var orphans int64
		if err := v.conn.DB().GetContext(ctx, &orphans, query); err != nil {
			return nil, fmt.Errorf("failed to check %s.%s: %w", tm.Table, col.Name, err)
		}
		if orphans > 0 {
			issues = append(issues, IntegrityIssue{
				IssueType:    "FOREIGN_KEY_VIOLATION",
				Description:  fmt.Sprintf("Values with no matching row in %s", parent.Table),
				ColumnName:   col.Name,
				AffectedRows: orphans,
			})
		}
	}
	return issues, nil
}

func countFileRows(path string) (int64, error) {
	r, err := tabular.Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	var n int64
	for {
		if _, err := r.Next(); err == io.EOF {
			return n, nil
		} else if err != nil {
			return n, err
		}
		n++
	}
}
