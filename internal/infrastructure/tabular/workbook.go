package tabular

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is a supported spreadsheet format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var zipMagic = []byte("PK\x03\x04")

// DetectFormat picks the format from the file extension, falling back to the content
func DetectFormat(filename string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xls":
		return "", fmt.Errorf("%w: legacy .xls workbooks are not supported, save as .xlsx", ErrUnsupportedFormat)
	}
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX, nil
	}
	if len(data) > 0 {
		return FormatCSV, nil
	}
	return "", ErrEmptyFile
}

// Parse reads an uploaded file into a Sheet
func Parse(filename string, data []byte) (*Sheet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	format, err := DetectFormat(filename, data)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ParseWorkbook(data)
	default:
		return NewCSVParser().Parse(bytes.NewReader(data))
	}
}

// ParseWorkbook reads the first sheet of an .xlsx workbook, using its first row as
// field names. Cells are read raw so numbers keep full precision and dates arrive
// as Excel serial numbers.
func ParseWorkbook(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	name := sheets[0]

	records, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	if len(records) == 0 {
		return nil, ErrMissingHeader
	}

	headers, err := normalizeHeaders(records[0])
	if err != nil {
		return nil, err
	}
	return &Sheet{
		Name:    name,
		Headers: headers,
		Rows:    buildRows(headers, records[1:], 2),
	}, nil
}
