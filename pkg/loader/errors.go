// pkg/loader/errors.go
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"modernc.org/sqlite"
)

// ErrorCategory classifies a failure while loading a table
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryDataConversion
	ErrorCategoryConstraint
	ErrorCategoryTableLevel
	ErrorCategoryConnectionLevel
	ErrorCategoryTransient
	ErrorCategoryCanceled
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryDataConversion:
		return "DataConversion"
	case ErrorCategoryConstraint:
		return "Constraint"
	case ErrorCategoryTableLevel:
		return "TableLevel"
	case ErrorCategoryConnectionLevel:
		return "ConnectionLevel"
	case ErrorCategoryTransient:
		return "Transient"
	case ErrorCategoryCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("Unknown(%d)", int(ec))
	}
}

// SQLite primary result codes
const (
	sqliteBusy       = 5
	sqliteLocked     = 6
	sqliteConstraint = 19
	sqliteMismatch   = 20
)

// ConversionError reports an output-file cell that could not be converted
// for its sink column
type ConversionError struct {
	Table string
	Line  int64
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("table %s, row %d: %v", e.Table, e.Line, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// CategorizeError determines the category of a load error
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCategoryCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCategoryTransient
	}

	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return ErrorCategoryDataConversion
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"):
			return ErrorCategoryConnectionLevel
		case strings.HasPrefix(pgErr.Code, "22"):
			return ErrorCategoryDataConversion
		case strings.HasPrefix(pgErr.Code, "23"):
			return ErrorCategoryConstraint
		case strings.HasPrefix(pgErr.Code, "40"), pgErr.Code == "57014":
			// serialization failure, deadlock, statement timeout
			return ErrorCategoryTransient
		case strings.HasPrefix(pgErr.Code, "42"):
			return ErrorCategoryTableLevel
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqliteBusy, sqliteLocked:
			return ErrorCategoryTransient
		case sqliteConstraint:
			return ErrorCategoryConstraint
		case sqliteMismatch:
			return ErrorCategoryDataConversion
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected eof") {
		return ErrorCategoryConnectionLevel
	}
	return ErrorCategoryTableLevel
}

// IsRetryableError reports whether reloading the table may succeed
func IsRetryableError(err error) bool {
	switch CategorizeError(err) {
	case ErrorCategoryConnectionLevel, ErrorCategoryTransient:
		return true
	}
	return false
}
