// pkg/converter/values.go
package converter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/jobnorm/pkg/model"
)

const dateLayout = "2006-01-02"

// ConvertValue converts an output-file cell to a value for the sink column.
// The NA, INVALID and UNMATCHED markers all load as NULL.
func (c *TypeConverter) ConvertValue(cell string, col model.Column) (interface{}, error) {
	if c.isNull(cell) {
		if !col.Nullable {
			return nil, fmt.Errorf("column %s is not nullable but got %q", col.Name, cell)
		}
		return nil, nil
	}

	s := strings.TrimSpace(cell)
	switch strings.ToLower(col.DataType) {
	case model.TypeBigInt, model.TypeInteger:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// whole numbers written with a fraction, e.g. "5.0"
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != float64(int64(f)) {
				return nil, fmt.Errorf("column %s: invalid integer %q", col.Name, cell)
			}
			v = int64(f)
		}
		return v, nil

	case model.TypeNumeric, model.TypeDouble:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid number %q", col.Name, cell)
		}
		return v, nil

	case model.TypeDate:
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid date %q", col.Name, cell)
		}
		if c.dialect == DialectSQLite {
			return t.Format(dateLayout), nil
		}
		return t, nil

	case model.TypeText:
		return cell, nil

	default:
		return nil, fmt.Errorf("column %s: unsupported column type %q", col.Name, col.DataType)
	}
}

// ConvertRow converts one output-file row in column order
func (c *TypeConverter) ConvertRow(metadata *model.TableMetadata, row []string) ([]interface{}, error) {
	if len(row) != len(metadata.Columns) {
		return nil, fmt.Errorf("table %s: row has %d cells, want %d", metadata.Table, len(row), len(metadata.Columns))
	}
	args := make([]interface{}, len(row))
	for i, col := range metadata.Columns {
		v, err := c.ConvertValue(row[i], col)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// isNull determines if a cell should be treated as NULL
func (c *TypeConverter) isNull(cell string) bool {
	if model.ParseValue(cell).IsSentinel() {
		return true
	}
	return strings.TrimSpace(cell) == "" && c.config.EmptyStringAsNull
}
