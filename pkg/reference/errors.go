// pkg/reference/errors.go
package reference

import (
	"errors"
	"fmt"
)

// ErrMissingReferenceFile matches every MissingReferenceFileError with errors.Is
var ErrMissingReferenceFile = errors.New("missing reference file")

// MissingReferenceFileError is returned when a required reference table is
// absent, unreadable or lacks a required column. It is always fatal.
type MissingReferenceFileError struct {
	Table  string // Logical table name, e.g. "skill_mapping"
	Path   string // File that was expected
	Column string // Missing column, empty when the whole file is missing
	Err    error  // Underlying cause, if any
}

func (e *MissingReferenceFileError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("reference table %s (%s) is missing required column %q", e.Table, e.Path, e.Column)
	}
	if e.Err != nil {
		return fmt.Sprintf("reference table %s (%s) could not be loaded: %v", e.Table, e.Path, e.Err)
	}
	return fmt.Sprintf("reference table %s not found at %s", e.Table, e.Path)
}

// Unwrap returns the underlying cause
func (e *MissingReferenceFileError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMissingReferenceFile
func (e *MissingReferenceFileError) Is(target error) bool {
	return target == ErrMissingReferenceFile
}
