package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/octobees/business-directory/api/internal/dto"
	"github.com/octobees/business-directory/api/internal/entity"
	"github.com/octobees/business-directory/api/internal/importer"
)

// Import reads a csv, xlsx or json listing, remaps its columns and upserts
// the rows on corporate id.
func (s *BusinessesService) Import(ctx context.Context, filename string, r io.Reader) (dto.ImportSummary, error) {
	format, err := importer.FormatFromFilename(filename)
	if err != nil {
		return dto.ImportSummary{}, ValidationError{Message: err.Error()}
	}
	table, err := importer.Read(format, r)
	if err != nil {
		if errors.Is(err, importer.ErrEmpty) {
			return dto.ImportSummary{}, ValidationError{Message: "file is empty"}
		}
		return dto.ImportSummary{}, ValidationError{Message: err.Error()}
	}

	mapping := importer.MapHeader(table.Header)
	if !mapping.Has(importer.FieldName) {
		return dto.ImportSummary{}, ValidationError{Message: "no column could be mapped to the business name"}
	}

	summary := dto.ImportSummary{Columns: mapping.Headers}
	records := make([]entity.Business, 0, len(table.Rows))
	for i, cells := range table.Rows {
		rowNum := i + 2
		row := mapping.Row(cells)
		if len(row) == 0 {
			continue
		}

		req := requestFromRow(row)
		if err := validateBusiness(req); err != nil {
			summary.Errors = append(summary.Errors, dto.ImportRowError{Row: rowNum, Message: err.Error()})
			continue
		}

		business := BusinessFromRequest(req)
		raw, err := json.Marshal(table.RawRow(i))
		if err != nil {
			return dto.ImportSummary{}, fmt.Errorf("encode row %d: %w", rowNum, err)
		}
		business.Raw = raw
		records = append(records, business)
	}
	return s.store(ctx, records, summary, len(table.Rows))
}

func requestFromRow(row map[string]string) dto.BusinessRequest {
	return dto.BusinessRequest{
		CorporateID:   row[importer.FieldCorporateID],
		Name:          row[importer.FieldName],
		Description:   row[importer.FieldDescription],
		Category:      row[importer.FieldCategory],
		Address:       addressFromRow(row),
		Phone:         row[importer.FieldPhone],
		Mobile:        row[importer.FieldMobile],
		Email:         row[importer.FieldEmail],
		Website:       row[importer.FieldWebsite],
		ContactPerson: row[importer.FieldContactPerson],
		MemberClass:   row[importer.FieldMemberClass],
		Designation:   row[importer.FieldDesignation],
	}
}

func addressFromRow(row map[string]string) entity.Address {
	parts := entity.AddressParts{
		Street:  row[importer.FieldAddress],
		City:    row[importer.FieldCity],
		State:   row[importer.FieldState],
		ZipCode: row[importer.FieldZipCode],
		Country: row[importer.FieldCountry],
	}
	if parts.City != "" || parts.State != "" || parts.ZipCode != "" || parts.Country != "" {
		return entity.StructuredAddress(parts)
	}
	if parts.Street != "" {
		return entity.UnstructuredAddress(parts.Street)
	}
	return entity.UnknownAddress()
}
