package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is a supported upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ErrEmpty is returned when an upload carries no header row.
var ErrEmpty = errors.New("file has no rows")

// FormatFromFilename picks the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported file type %q: use .csv, .xlsx or .json", filepath.Ext(name))
	}
}

// Table is a header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read decodes r according to format.
func Read(format Format, r io.Reader) (Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	case FormatJSON:
		return ReadJSON(r)
	default:
		return Table{}, fmt.Errorf("unsupported format %q", format)
	}
}

// ReadCSV reads a comma separated file whose first row is the header.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, ErrEmpty
		}
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := Table{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv row: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return Table{}, ErrEmpty
	}
	return Table{Header: rows[0], Rows: rows[1:]}, nil
}

// ReadJSON reads an array of flat objects, or an object wrapping one under
// "businesses". Non-string values are rendered as JSON text.
func ReadJSON(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("read json: %w", err)
	}

	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		var wrapped struct {
			Businesses []map[string]any `json:"businesses"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil || wrapped.Businesses == nil {
			return Table{}, fmt.Errorf("decode json: expected an array of objects: %w", err)
		}
		items = wrapped.Businesses
	}
	if len(items) == 0 {
		return Table{}, ErrEmpty
	}

	seen := map[string]bool{}
	var header []string
	for _, item := range items {
		keys := make([]string, 0, len(item))
		for k := range item {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			header = append(header, k)
		}
	}

	table := Table{Header: header}
	for _, item := range items {
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = cellText(item[k])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// RawRow renders a data row as an object keyed by the original headers.
func (t Table) RawRow(i int) map[string]string {
	raw := make(map[string]string, len(t.Header))
	row := t.Rows[i]
	for j, h := range t.Header {
		if j < len(row) && strings.TrimSpace(row[j]) != "" {
			raw[h] = row[j]
		}
	}
	return raw
}
