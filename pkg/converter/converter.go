// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/model"
)

// Dialect selects the SQL flavour of the sink
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// TypeConverter maps logical output columns to sink types and converts cell values
type TypeConverter struct {
	logger  *zap.Logger
	dialect Dialect
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Numeric precision for NUMERIC columns (Postgres only)
	NumericPrecision int
	NumericScale     int
	// Whether to treat empty strings as NULL
	EmptyStringAsNull bool
	// Whether to emit FOREIGN KEY clauses
	ForeignKeys bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		NumericPrecision:  14,
		NumericScale:      2,
		EmptyStringAsNull: true,
		ForeignKeys:       true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(dialect Dialect, logger *zap.Logger) (*TypeConverter, error) {
	return NewTypeConverterWithConfig(dialect, logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(dialect Dialect, logger *zap.Logger, config TypeConverterConfig) (*TypeConverter, error) {
	switch dialect {
	case DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger:  logger,
		dialect: dialect,
		config:  config,
	}, nil
}

// Dialect returns the SQL flavour this converter targets
func (c *TypeConverter) Dialect() Dialect {
	return c.dialect
}

// MapType converts a logical column type to the sink's column type
func (c *TypeConverter) MapType(logical string) (string, error) {
	logical = strings.ToLower(strings.TrimSpace(logical))
	if c.dialect == DialectSQLite {
		switch logical {
		case model.TypeBigInt, model.TypeInteger:
			return "INTEGER", nil
		case model.TypeNumeric, model.TypeDouble:
			return "REAL", nil
		case model.TypeDate, model.TypeText:
			return "TEXT", nil
		}
		return "", fmt.Errorf("unsupported column type %q", logical)
	}

	switch logical {
	case model.TypeBigInt:
		return "BIGINT", nil
	case model.TypeInteger:
		return "INTEGER", nil
	case model.TypeNumeric:
		if c.config.NumericPrecision > 0 {
			return fmt.Sprintf("NUMERIC(%d,%d)", c.config.NumericPrecision, c.config.NumericScale), nil
		}
		return "NUMERIC", nil
	case model.TypeDouble:
		return "DOUBLE PRECISION", nil
	case model.TypeDate:
		return "DATE", nil
	case model.TypeText:
		return "TEXT", nil
	}
	return "", fmt.Errorf("unsupported column type %q", logical)
}

// GenerateColumnDefinitions creates the column definitions of a table
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) ([]string, error) {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		sqlType, err := c.MapType(col.DataType)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s: %w", metadata.Table, col.Name, err)
		}

		nullability := "NULL"
		if col.IsPrimaryKey || !col.Nullable {
			nullability = "NOT NULL"
		}

		definitions = append(definitions, fmt.Sprintf("%s %s %s",
			QuoteIdentifier(col.Name),
			sqlType,
			nullability))
	}

	return definitions, nil
}

// CreateTableStatement builds an idempotent CREATE TABLE for an output table,
// including its primary key and foreign keys
func (c *TypeConverter) CreateTableStatement(metadata *model.TableMetadata) (string, error) {
	definitions, err := c.GenerateColumnDefinitions(metadata)
	if err != nil {
		return "", err
	}

	if len(metadata.PrimaryKeys) > 0 {
		keys := make([]string, len(metadata.PrimaryKeys))
		for i, k := range metadata.PrimaryKeys {
			keys[i] = QuoteIdentifier(k)
		}
		definitions = append(definitions, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}

	if c.config.ForeignKeys {
		for _, col := range metadata.Columns {
			if col.References == "" {
				continue
			}
			ref, ok := model.LookupTable(col.References)
			if !ok || len(ref.PrimaryKeys) != 1 {
				return "", fmt.Errorf("column %s.%s references unknown table %q", metadata.Table, col.Name, col.References)
			}
			ref.Schema = metadata.Schema
			definitions = append(definitions, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
				QuoteIdentifier(col.Name), c.QualifiedName(&ref), QuoteIdentifier(ref.PrimaryKeys[0])))
		}
	}

	c.logger.Debug("Generated table definition",
		zap.String("table", metadata.Table),
		zap.String("dialect", string(c.dialect)),
		zap.Int("columns", len(metadata.Columns)))

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
		c.QualifiedName(metadata), strings.Join(definitions, ",\n    ")), nil
}

// ClearTableStatement empties a table before a reload
func (c *TypeConverter) ClearTableStatement(metadata *model.TableMetadata) string {
	if c.dialect == DialectSQLite {
		return "DELETE FROM " + c.QualifiedName(metadata)
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", c.QualifiedName(metadata))
}

// InsertStatement returns a parameterized multi-row INSERT using '?'
// placeholders; callers rebind them for the driver
func (c *TypeConverter) InsertStatement(metadata *model.TableMetadata, rows int) string {
	cols := make([]string, len(metadata.Columns))
	marks := make([]string, len(metadata.Columns))
	for i, col := range metadata.Columns {
		cols[i] = QuoteIdentifier(col.Name)
		marks[i] = "?"
	}
	tuple := "(" + strings.Join(marks, ", ") + ")"
	if rows < 1 {
		rows = 1
	}
	tuples := make([]string, rows)
	for i := range tuples {
		tuples[i] = tuple
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		c.QualifiedName(metadata), strings.Join(cols, ", "), strings.Join(tuples, ", "))
}

// QualifiedName returns the quoted table name, schema-qualified on Postgres
func (c *TypeConverter) QualifiedName(metadata *model.TableMetadata) string {
	if c.dialect == DialectPostgres && metadata.Schema != "" {
		return QuoteIdentifier(metadata.Schema) + "." + QuoteIdentifier(metadata.Table)
	}
	return QuoteIdentifier(metadata.Table)
}

// QuoteIdentifier quotes and escapes an identifier; the double-quote form is
// accepted by both PostgreSQL and SQLite
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(strings.ToLower(name))
}
