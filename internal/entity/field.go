package entity

import (
	"encoding/json"
	"strings"
)

// Placeholder is the wire and storage text for a field that was never populated.
const Placeholder = "N/A"

// FieldState tells apart missing, unknown and populated values.
type FieldState uint8

const (
	// FieldAbsent means the attribute was never set at all.
	FieldAbsent FieldState = iota
	// FieldUnknown is the placeholder sentinel: reserved, not data.
	FieldUnknown
	// FieldKnown holds a real value.
	FieldKnown
)

var placeholderTexts = map[string]struct{}{
	"n/a":  {},
	"na":   {},
	"-":    {},
	"--":   {},
	"none": {},
	"null": {},
}

// Field is an optional text attribute with an explicit Unknown case.
// The zero value is Absent.
type Field struct {
	state FieldState
	value string
}

// Known builds a field from scraped or submitted text. Blank text yields an
// absent field and placeholder text yields Unknown, so a Known field never
// carries the sentinel.
func Known(value string) Field {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return Field{}
	}
	if IsPlaceholder(value) {
		return Unknown()
	}
	return Field{state: FieldKnown, value: value}
}

// Unknown returns the placeholder sentinel.
func Unknown() Field {
	return Field{state: FieldUnknown}
}

// IsPlaceholder reports whether text is one of the accepted sentinel spellings.
func IsPlaceholder(text string) bool {
	_, ok := placeholderTexts[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// State returns the field state.
func (f Field) State() FieldState { return f.state }

// IsKnown reports whether the field holds real data.
func (f Field) IsKnown() bool { return f.state == FieldKnown }

// IsUnknown reports whether the field holds the placeholder sentinel.
func (f Field) IsUnknown() bool { return f.state == FieldUnknown }

// IsAbsent reports whether the field was never set.
func (f Field) IsAbsent() bool { return f.state == FieldAbsent }

// Get returns the value and whether it is known.
func (f Field) Get() (string, bool) {
	return f.value, f.state == FieldKnown
}

// OrUnknown turns an absent field into the sentinel.
func (f Field) OrUnknown() Field {
	if f.state == FieldAbsent {
		return Unknown()
	}
	return f
}

// Equal reports whether both fields are in the same state with the same value.
func (f Field) Equal(other Field) bool {
	return f.state == other.state && f.value == other.value
}

// String renders the value, the placeholder, or an empty string.
func (f Field) String() string {
	switch f.state {
	case FieldKnown:
		return f.value
	case FieldUnknown:
		return Placeholder
	default:
		return ""
	}
}

// MarshalJSON encodes Known as a string, Unknown as "N/A" and Absent as null.
func (f Field) MarshalJSON() ([]byte, error) {
	if f.state == FieldAbsent {
		return []byte("null"), nil
	}
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts null or a string.
func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Field{}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*f = Known(text)
	return nil
}
