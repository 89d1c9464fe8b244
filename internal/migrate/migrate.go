// Package migrate rewrites records stored before the canonical shape.
//
// Three legacy shapes are recognised from the raw import document kept on
// each record: the tablescraper export (columns named
// "tablescraper-selected-row*"), a flat string address with separate city,
// state, zip or country columns, and documents already in the structured
// shape. Records are only stamped with the current schema version once
// rewritten, so a second run finds nothing to do.
package migrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/octobees/business-directory/api/internal/entity"
	"github.com/octobees/business-directory/api/internal/importer"
)

const (
	defaultPageSize   = 200
	tablescraperKey   = "tablescraper-selected-row"
	legacyUnknownName = "Unknown Business"
)

// ErrUnrecognised means the raw document matches none of the legacy shapes.
var ErrUnrecognised = errors.New("unrecognised legacy record")

// Store is the record storage the migration pages through.
type Store interface {
	ListLegacy(ctx context.Context, afterSeq int64, limit int) ([]entity.Business, error)
	UpdateByID(ctx context.Context, business entity.Business) (entity.Business, error)
}

// Options bounds a migration run.
type Options struct {
	PageSize int
	// DryRun reports what would change without writing.
	DryRun bool
}

// Problem is a record the migration left untouched.
type Problem struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Reason string    `json:"reason"`
}

// Report summarises a run.
type Report struct {
	Scanned      int       `json:"scanned"`
	Migrated     int       `json:"migrated"`
	Unrecognised int       `json:"unrecognised"`
	Problems     []Problem `json:"problems,omitempty"`
}

// Shape names the legacy layout a record was recognised as.
type Shape string

const (
	ShapeTablescraper Shape = "tablescraper"
	ShapeFlatAddress  Shape = "flat-address"
	ShapeStructured   Shape = "structured"
)

// Run migrates every legacy record. Storage failures stop the run; records
// that cannot be recognised are reported and skipped.
func Run(ctx context.Context, store Store, log logrus.FieldLogger, opts Options) (Report, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	var (
		report Report
		cursor int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		page, err := store.ListLegacy(ctx, cursor, opts.PageSize)
		if err != nil {
			return report, fmt.Errorf("list legacy records: %w", err)
		}
		if len(page) == 0 {
			return report, nil
		}

		for _, rec := range page {
			cursor = rec.Seq
			report.Scanned++

			migrated, shape, err := Canonicalize(rec)
			entry := log.WithFields(logrus.Fields{"id": rec.ID, "name": rec.Name})
			if err != nil {
				report.Unrecognised++
				report.Problems = append(report.Problems, Problem{ID: rec.ID, Name: rec.Name, Reason: err.Error()})
				entry.WithError(err).Warn("legacy record skipped")
				continue
			}
			if !opts.DryRun {
				if _, err := store.UpdateByID(ctx, migrated); err != nil {
					return report, fmt.Errorf("update %s: %w", rec.ID, err)
				}
			}
			report.Migrated++
			entry.WithField("shape", shape).Debug("legacy record migrated")
		}
	}
}

// Canonicalize rewrites one legacy record into the current shape.
func Canonicalize(b entity.Business) (entity.Business, Shape, error) {
	row, tablescraper, err := rawRow(b.Raw)
	if err != nil {
		return b, "", err
	}

	shape := ShapeStructured
	if tablescraper {
		shape = ShapeTablescraper
		if b.Name == "" || b.Name == legacyUnknownName || entity.IsPlaceholder(b.Name) {
			b.Name = row[importer.FieldName]
		}
		b.CorporateID = fill(b.CorporateID, row[importer.FieldCorporateID]).OrUnknown()
		b.Phone = fill(b.Phone, row[importer.FieldPhone]).OrUnknown()
		b.Website = fill(b.Website, row[importer.FieldWebsite]).OrUnknown()
	}

	if addr, ok := structuredFrom(b.Address, row); ok {
		b.Address = addr
		if shape == ShapeStructured {
			shape = ShapeFlatAddress
		}
	} else if b.Address.Kind == entity.AddressNone && row[importer.FieldAddress] != "" {
		b.Address = entity.UnstructuredAddress(row[importer.FieldAddress])
		if shape == ShapeStructured {
			shape = ShapeFlatAddress
		}
	}

	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" || b.Name == legacyUnknownName {
		return b, "", fmt.Errorf("%w: no business name", ErrUnrecognised)
	}
	b.SchemaVersion = entity.SchemaVersion
	return b, shape, nil
}

// rawRow maps the raw document onto directory fields and reports whether it
// is a tablescraper export.
func rawRow(raw []byte) (map[string]string, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]string{}, false, nil
	}
	if raw[0] != '{' {
		return nil, false, fmt.Errorf("%w: raw document is not an object", ErrUnrecognised)
	}

	doc := make([]byte, 0, len(raw)+2)
	doc = append(doc, '[')
	doc = append(doc, raw...)
	doc = append(doc, ']')
	table, err := importer.ReadJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnrecognised, err)
	}

	tablescraper := false
	for _, h := range table.Header {
		if strings.HasPrefix(strings.ToLower(h), tablescraperKey) {
			tablescraper = true
			break
		}
	}
	mapping := importer.MapHeader(table.Header)
	return mapping.Row(table.Rows[0]), tablescraper, nil
}

// structuredFrom turns a free-text address plus separate locality columns
// into the structured shape.
func structuredFrom(addr entity.Address, row map[string]string) (entity.Address, bool) {
	if addr.Kind == entity.AddressStructured {
		return addr, false
	}
	parts := entity.AddressParts{
		City:    row[importer.FieldCity],
		State:   row[importer.FieldState],
		ZipCode: row[importer.FieldZipCode],
		Country: row[importer.FieldCountry],
	}
	if parts == (entity.AddressParts{}) {
		return addr, false
	}
	switch addr.Kind {
	case entity.AddressUnstructured:
		parts.Street = addr.Text
	default:
		parts.Street = row[importer.FieldAddress]
	}
	structured := entity.StructuredAddress(parts)
	return structured, structured.Kind == entity.AddressStructured
}

// fill keeps a known value and otherwise takes the raw text.
func fill(current entity.Field, raw string) entity.Field {
	if current.IsKnown() {
		return current
	}
	if next := entity.Known(raw); !next.IsAbsent() {
		return next
	}
	return current
}
