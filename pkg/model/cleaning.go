// pkg/model/cleaning.go
package model

// Operation names the kind of change applied to a field
type Operation string

const (
	OpExtracted     Operation = "extracted"     // filled from free text
	OpCanonicalized Operation = "canonicalized" // rewritten to a controlled value
	OpInvalidated   Operation = "invalidated"   // set to INVALID
	OpUnmatched     Operation = "unmatched"     // set to UNMATCHED
	OpCleared       Operation = "cleared"       // set back to NOT_AVAILABLE
	OpEnriched      Operation = "enriched"      // filled from a reference table
)

// FieldChange represents a single change made to a record field
type FieldChange struct {
	SourceName    string    // Source file the record came from
	SourceID      string    // Row identifier within the source
	Field         Field     // Field that changed
	OriginalValue Value     // Value before the change
	NewValue      Value     // Value after the change
	Operation     Operation // Kind of change
	Reason        string    // Rule or lookup that caused it (e.g. "salary_currency_window")
}

// NewFieldChange creates a change record for a field of rec
func NewFieldChange(rec *Record, f Field, before, after Value, op Operation, reason string) FieldChange {
	name, id := rec.SourceLabel()
	return FieldChange{
		SourceName:    name,
		SourceID:      id,
		Field:         f,
		OriginalValue: before,
		NewValue:      after,
		Operation:     op,
		Reason:        reason,
	}
}
