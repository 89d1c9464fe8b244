package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/octobees/business-directory/api/internal/enrichment"
	"github.com/octobees/business-directory/api/internal/entity"
)

type labelField struct {
	label string
	field func(p *enrichment.Partial) *entity.Field
}

// detailLabels are the row labels on a member detail page.
var detailLabels = []labelField{
	{"Contact Person", func(p *enrichment.Partial) *entity.Field { return &p.ContactPerson }},
	{"Company Name", func(p *enrichment.Partial) *entity.Field { return &p.CompanyName }},
	{"Member Class", func(p *enrichment.Partial) *entity.Field { return &p.MemberClass }},
	{"Member ID", func(p *enrichment.Partial) *entity.Field { return &p.MemberID }},
	{"Designation", func(p *enrichment.Partial) *entity.Field { return &p.Designation }},
	{"Category", func(p *enrichment.Partial) *entity.Field { return &p.Category }},
	{"Address", func(p *enrichment.Partial) *entity.Field { return &p.Address }},
	{"Phone", func(p *enrichment.Partial) *entity.Field { return &p.Phone }},
	{"Mobile", func(p *enrichment.Partial) *entity.Field { return &p.Mobile }},
	{"Email", func(p *enrichment.Partial) *entity.Field { return &p.Email }},
}

const labelCells = "td, th, dt"

func extractPage(doc *goquery.Document) enrichment.Partial {
	var partial enrichment.Partial
	cells := doc.Find(labelCells)
	for _, lf := range detailLabels {
		value, ok := valueForLabel(cells, lf.label)
		if !ok {
			continue
		}
		*lf.field(&partial) = entity.Known(value)
	}
	return partial
}

// valueForLabel finds the cell carrying label and returns the text of the
// cell right after it. An exact label match wins over a cell that merely
// contains the label text.
func valueForLabel(cells *goquery.Selection, label string) (string, bool) {
	want := strings.ToLower(label)
	var exact, partial *goquery.Selection

	cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := normalizeLabel(cell.Text())
		switch {
		case text == want:
			exact = cell
			return false
		case partial == nil && strings.Contains(text, want):
			partial = cell
		}
		return true
	})

	match := exact
	if match == nil {
		match = partial
	}
	if match == nil {
		return "", false
	}
	next := match.Next()
	if next.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(next.Text()), true
}

func normalizeLabel(text string) string {
	text = strings.ToLower(strings.Join(strings.Fields(text), " "))
	return strings.TrimSpace(strings.TrimSuffix(text, ":"))
}
