// Package tabular reads and writes the spreadsheets used for bulk import and
// export: .xlsx workbooks through excelize and .csv files through encoding/csv.
package tabular

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader trims a header cell and brings it to NFC form
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return norm.NFC.String(strings.TrimSpace(h))
}

func foldKey(s string) string {
	return cases.Fold().String(NormalizeHeader(s))
}

// Row is one data row keyed by header name
type Row struct {
	// Number is the 1-based index of the row among data rows
	Number int
	// Line is the 1-based line of the row in the source sheet, header included
	Line int
	Data map[string]string
}

// Get returns the value for a column by header name. Header matching falls back to
// a case-insensitive comparison so "price" satisfies a "Price" rule.
func (r Row) Get(header string) string {
	if v, ok := r.Data[header]; ok {
		return v
	}
	want := foldKey(header)
	for k, v := range r.Data {
		if foldKey(k) == want {
			return v
		}
	}
	return ""
}

// Has reports whether the row has a column named header
func (r Row) Has(header string) bool {
	if _, ok := r.Data[header]; ok {
		return true
	}
	want := foldKey(header)
	for k := range r.Data {
		if foldKey(k) == want {
			return true
		}
	}
	return false
}

// IsEmpty returns true if the row has no non-empty values
func (r Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Sheet is a parsed table
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// MissingHeaders returns the required headers absent from the sheet
func (s *Sheet) MissingHeaders(required []string) []string {
	have := make(map[string]struct{}, len(s.Headers))
	for _, h := range s.Headers {
		have[foldKey(h)] = struct{}{}
	}
	var missing []string
	for _, h := range required {
		if _, ok := have[foldKey(h)]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// buildRows maps raw records onto headers. Blank records are skipped and do not
// consume a row number.
func buildRows(headers []string, records [][]string, firstLine int) []Row {
	rows := make([]Row, 0, len(records))
	for i, record := range records {
		row := Row{
			Line: firstLine + i,
			Data: make(map[string]string, len(headers)),
		}
		for col, header := range headers {
			if header == "" {
				continue
			}
			value := ""
			if col < len(record) {
				value = strings.TrimSpace(record[col])
			}
			row.Data[header] = value
		}
		if row.IsEmpty() {
			continue
		}
		row.Number = len(rows) + 1
		rows = append(rows, row)
	}
	return rows
}

func normalizeHeaders(raw []string) ([]string, error) {
	headers := make([]string, len(raw))
	named := 0
	for i, h := range raw {
		headers[i] = NormalizeHeader(h)
		if headers[i] != "" {
			named++
		}
	}
	if named == 0 {
		return nil, ErrMissingHeader
	}
	return headers, nil
}
