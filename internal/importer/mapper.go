// Package importer turns spreadsheet-like business listings into rows keyed
// by directory field names.
package importer

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Directory field names produced by the mapper.
const (
	FieldCorporateID   = "corporateId"
	FieldName          = "name"
	FieldDescription   = "description"
	FieldCategory      = "category"
	FieldAddress       = "address"
	FieldCity          = "city"
	FieldState         = "state"
	FieldZipCode       = "zipCode"
	FieldCountry       = "country"
	FieldPhone         = "phone"
	FieldMobile        = "mobile"
	FieldEmail         = "email"
	FieldWebsite       = "website"
	FieldContactPerson = "contactPerson"
	FieldMemberClass   = "memberClass"
	FieldDesignation   = "designation"
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity for a header that
// matched no alias exactly.
const fuzzyThreshold = 0.9

// aliases lists accepted header spellings per field, normalised. The
// tablescraper keys come from browser-extension exports of the chamber
// member list.
var aliases = map[string][]string{
	FieldCorporateID:   {"corporate id", "corporateid", "member id", "membership no", "membership number", "tablescraper selected row"},
	FieldName:          {"name", "company", "company name", "business name", "business", "firm name", "tablescraper selected row 2"},
	FieldDescription:   {"description", "about", "details"},
	FieldCategory:      {"category", "type", "business type", "type business", "industry", "sector"},
	FieldAddress:       {"address", "street", "street address", "office address"},
	FieldCity:          {"city", "town"},
	FieldState:         {"state", "province", "region"},
	FieldZipCode:       {"zip", "zip code", "zipcode", "postal code", "postcode"},
	FieldCountry:       {"country"},
	FieldPhone:         {"phone", "telephone", "tel", "phone number", "office phone", "tablescraper selected row 3"},
	FieldMobile:        {"mobile", "cell", "mobile number", "cell phone"},
	FieldEmail:         {"email", "e mail", "email address", "mail"},
	FieldWebsite:       {"website", "web", "url", "site", "homepage", "link", "tablescraper selected row href"},
	FieldContactPerson: {"contact person", "contact", "contact name", "representative"},
	FieldMemberClass:   {"member class", "class", "membership class", "membership type"},
	FieldDesignation:   {"designation", "title", "position"},
}

// Mapping assigns table columns to directory fields.
type Mapping struct {
	// Columns maps a column index to its field.
	Columns map[int]string
	// Headers maps each original header to the field it was assigned to.
	Headers map[string]string
	// Unmapped lists headers that were ignored.
	Unmapped []string
}

// Has reports whether some column feeds the field.
func (m Mapping) Has(field string) bool {
	for _, f := range m.Columns {
		if f == field {
			return true
		}
	}
	return false
}

// Row returns the values of one table row keyed by field. Blank cells are
// omitted.
func (m Mapping) Row(cells []string) map[string]string {
	row := make(map[string]string, len(m.Columns))
	for idx, field := range m.Columns {
		if idx >= len(cells) {
			continue
		}
		value := strings.TrimSpace(cells[idx])
		if value == "" {
			continue
		}
		row[field] = value
	}
	return row
}

// MapHeader assigns each header to at most one field. Exact alias matches
// win; the remaining headers are matched by similarity against fields that
// are still unassigned.
func MapHeader(header []string) Mapping {
	m := Mapping{Columns: map[int]string{}, Headers: map[string]string{}}
	assigned := map[string]bool{}
	exact := exactIndex()

	var pending []int
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		field, ok := exact[key]
		if !ok || assigned[field] {
			pending = append(pending, i)
			continue
		}
		m.Columns[i] = field
		m.Headers[h] = field
		assigned[field] = true
	}

	for _, i := range pending {
		h := header[i]
		field, score := bestMatch(normalizeHeader(h), assigned)
		if score < fuzzyThreshold {
			m.Unmapped = append(m.Unmapped, h)
			continue
		}
		m.Columns[i] = field
		m.Headers[h] = field
		assigned[field] = true
	}
	return m
}

func exactIndex() map[string]string {
	index := make(map[string]string)
	for field, names := range aliases {
		for _, name := range names {
			index[name] = field
		}
	}
	return index
}

func bestMatch(key string, assigned map[string]bool) (string, float64) {
	fields := make([]string, 0, len(aliases))
	for field := range aliases {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var (
		best      string
		bestScore float64
	)
	for _, field := range fields {
		if assigned[field] {
			continue
		}
		for _, name := range aliases[field] {
			if score := matchr.JaroWinkler(key, name, false); score > bestScore {
				best, bestScore = field, score
			}
		}
	}
	return best, bestScore
}

// normalizeHeader lower-cases a header and folds separators to single spaces.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', '/':
			return ' '
		}
		return r
	}, h)
	return strings.Join(strings.Fields(h), " ")
}
