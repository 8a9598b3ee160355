// pkg/model/value.go
package model

import (
	"fmt"
	"strings"
)

// On-disk spellings of the three sentinel states
const (
	NotAvailableMarker = "__NA__"
	InvalidMarker      = "__INVALID__"
	UnmatchedMarker    = "__UNMATCHED__"
)

// State classifies a field value
type State uint8

const (
	// StateUnknown means the value is genuinely unknown and may be filled by extraction
	StateUnknown State = iota
	// StateInvalid means a value existed but failed enum validation
	StateInvalid
	// StateUnmatched means a value existed but could not be resolved against a closed vocabulary
	StateUnmatched
	// StatePresent carries a concrete value
	StatePresent
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StateInvalid:
		return "Invalid"
	case StateUnmatched:
		return "Unmatched"
	case StatePresent:
		return "Present"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Value is a tagged field value: one of the sentinel states or a present string.
// The zero Value is Unknown.
type Value struct {
	state State
	text  string
}

// Unknown returns the NOT_AVAILABLE sentinel
func Unknown() Value { return Value{} }

// Invalid returns the INVALID sentinel
func Invalid() Value { return Value{state: StateInvalid} }

// Unmatched returns the UNMATCHED sentinel
func Unmatched() Value { return Value{state: StateUnmatched} }

// Present wraps a concrete value. Blank text is Unknown.
func Present(text string) Value {
	if strings.TrimSpace(text) == "" {
		return Unknown()
	}
	return Value{state: StatePresent, text: text}
}

// ParseValue reads a cell as written on disk. Marker strings become their
// sentinel and the usual null spellings become Unknown; anything else is kept verbatim.
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case NotAvailableMarker:
		return Unknown()
	case InvalidMarker:
		return Invalid()
	case UnmatchedMarker:
		return Unmatched()
	}
	if isNullSpelling(trimmed) {
		return Unknown()
	}
	return Value{state: StatePresent, text: raw}
}

func isNullSpelling(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "nil", "n/a", "<na>":
		return true
	}
	return false
}

// State returns the value's tag
func (v Value) State() State { return v.state }

// IsUnknown reports whether the value is NOT_AVAILABLE
func (v Value) IsUnknown() bool { return v.state == StateUnknown }

// IsInvalid reports whether the value is INVALID
func (v Value) IsInvalid() bool { return v.state == StateInvalid }

// IsUnmatched reports whether the value is UNMATCHED
func (v Value) IsUnmatched() bool { return v.state == StateUnmatched }

// IsPresent reports whether the value carries text
func (v Value) IsPresent() bool { return v.state == StatePresent }

// IsSentinel reports whether the value is any of the three sentinels
func (v Value) IsSentinel() bool { return v.state != StatePresent }

// Text returns the concrete text, or "" for sentinels
func (v Value) Text() string {
	if v.state != StatePresent {
		return ""
	}
	return v.text
}

// String renders the value for tabular output
func (v Value) String() string {
	switch v.state {
	case StatePresent:
		return v.text
	case StateInvalid:
		return InvalidMarker
	case StateUnmatched:
		return UnmatchedMarker
	default:
		return NotAvailableMarker
	}
}

// SplitMulti splits a pipe-delimited multi-value field into trimmed, non-empty tokens
func SplitMulti(v Value) []string {
	if !v.IsPresent() {
		return nil
	}
	parts := strings.Split(v.text, MultiValueDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinMulti joins tokens into a multi-value field; an empty list is Unknown
func JoinMulti(tokens []string) Value {
	if len(tokens) == 0 {
		return Unknown()
	}
	return Present(strings.Join(tokens, MultiValueDelimiter))
}
