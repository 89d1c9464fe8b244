package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressKind discriminates the Address variants.
type AddressKind string

const (
	AddressNone         AddressKind = ""
	AddressUnknown      AddressKind = "unknown"
	AddressUnstructured AddressKind = "unstructured"
	AddressStructured   AddressKind = "structured"
)

// AddressParts is the structured street/city/state/zip/country shape.
type AddressParts struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

func (p AddressParts) empty() bool {
	return p == AddressParts{}
}

// Address is either free text or structured parts, plus the none and unknown cases.
type Address struct {
	Kind  AddressKind
	Text  string
	Parts AddressParts
}

// UnstructuredAddress builds a free-text address. Blank text gives none and
// placeholder text gives unknown.
func UnstructuredAddress(text string) Address {
	field := Known(text)
	switch {
	case field.IsUnknown():
		return UnknownAddress()
	case field.IsAbsent():
		return Address{}
	}
	value, _ := field.Get()
	return Address{Kind: AddressUnstructured, Text: value}
}

// StructuredAddress builds a structured address from trimmed parts.
func StructuredAddress(parts AddressParts) Address {
	parts = AddressParts{
		Street:  cleanPart(parts.Street),
		City:    cleanPart(parts.City),
		State:   cleanPart(parts.State),
		ZipCode: cleanPart(parts.ZipCode),
		Country: cleanPart(parts.Country),
	}
	if parts.empty() {
		return Address{}
	}
	return Address{Kind: AddressStructured, Parts: parts}
}

// UnknownAddress returns the placeholder address.
func UnknownAddress() Address {
	return Address{Kind: AddressUnknown}
}

func cleanPart(value string) string {
	value, _ = Known(value).Get()
	return value
}

// IsKnown reports whether the address carries real data.
func (a Address) IsKnown() bool {
	return a.Kind == AddressUnstructured || a.Kind == AddressStructured
}

// City returns the structured city when there is one.
func (a Address) City() string {
	if a.Kind == AddressStructured {
		return a.Parts.City
	}
	return ""
}

// String renders the address on one line.
func (a Address) String() string {
	switch a.Kind {
	case AddressUnstructured:
		return a.Text
	case AddressStructured:
		parts := make([]string, 0, 5)
		for _, p := range []string{a.Parts.Street, a.Parts.City, a.Parts.State, a.Parts.ZipCode, a.Parts.Country} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", ")
	case AddressUnknown:
		return Placeholder
	default:
		return ""
	}
}

// MarshalJSON writes null, "N/A", a string or an object depending on the kind.
func (a Address) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AddressNone:
		return []byte("null"), nil
	case AddressUnknown:
		return json.Marshal(Placeholder)
	case AddressUnstructured:
		return json.Marshal(a.Text)
	case AddressStructured:
		return json.Marshal(a.Parts)
	default:
		return nil, fmt.Errorf("unknown address kind %q", a.Kind)
	}
}

// UnmarshalJSON accepts both the string and the object shape.
func (a *Address) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*a = Address{}
	case data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*a = UnstructuredAddress(text)
	case data[0] == '{':
		var parts AddressParts
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*a = StructuredAddress(parts)
	default:
		return fmt.Errorf("address must be a string or an object")
	}
	return nil
}
