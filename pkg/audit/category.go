// pkg/audit/category.go
package audit

import (
	"fmt"

	"github.com/David-Botos/jobnorm/pkg/model"
)

// Category classifies a non-fatal outcome recorded during a run
type Category int

const (
	// CategoryNone is not an error
	CategoryNone Category = iota
	// CategoryUnresolvedEnumValue: a field value failed enum validation and became INVALID
	CategoryUnresolvedEnumValue
	// CategoryUnmatchedCanonicalValue: a field value was not in a closed vocabulary
	CategoryUnmatchedCanonicalValue
	// CategoryRecordDropped: a whole record was excluded from projection
	CategoryRecordDropped
	// CategoryReferenceAmbiguity: several rules matched and precedence decided
	CategoryReferenceAmbiguity
	// CategoryMalformedRow: an input row could not be read and was skipped
	CategoryMalformedRow
)

// String returns a string representation of the category
func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "None"
	case CategoryUnresolvedEnumValue:
		return "UnresolvedEnumValue"
	case CategoryUnmatchedCanonicalValue:
		return "UnmatchedCanonicalValue"
	case CategoryRecordDropped:
		return "RecordDropped"
	case CategoryReferenceAmbiguity:
		return "ReferenceAmbiguity"
	case CategoryMalformedRow:
		return "MalformedRow"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// MarshalText renders the category by name in JSON maps
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText reads a category written by MarshalText
func (c *Category) UnmarshalText(text []byte) error {
	for cat := CategoryNone; cat <= CategoryMalformedRow; cat++ {
		if cat.String() == string(text) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown audit category %q", text)
}

// CategoryFor maps a field operation to the outcome category it represents
func CategoryFor(op model.Operation) Category {
	switch op {
	case model.OpInvalidated:
		return CategoryUnresolvedEnumValue
	case model.OpUnmatched:
		return CategoryUnmatchedCanonicalValue
	default:
		return CategoryNone
	}
}

// DropReason names why a record was excluded from projection
type DropReason string

const (
	DropNoCompany DropReason = "dropped_no_company"
	DropAllNA     DropReason = "dropped_all_na"
)
