package tabular

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Template layout
const (
	TemplateSheetName   = "Шаблон"
	TemplateFileName    = "template.xlsx"
	TemplateEmptyRows   = 10
	DefaultColumnWidth  = 20.0
	ContentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerFillColor     = "1976D2"
	headerFontColor     = "FFFFFF"
	borderColor         = "000000"
	defaultExportSheet  = "Данные"
	excelSheetNameLimit = 31
)

// Column is one exported column
type Column struct {
	Header string
	Width  float64
}

// Table is an in-memory table to write as a single-sheet workbook
type Table struct {
	SheetName string
	Columns   []Column
	Rows      [][]any
}

// Columns builds columns of default width from header names
func Columns(headers ...string) []Column {
	cols := make([]Column, len(headers))
	for i, h := range headers {
		cols[i] = Column{Header: h, Width: DefaultColumnWidth}
	}
	return cols
}

func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: borderColor, Style: 1},
		{Type: "top", Color: borderColor, Style: 1},
		{Type: "right", Color: borderColor, Style: 1},
		{Type: "bottom", Color: borderColor, Style: 1},
	}
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: headerFontColor, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
}

func cellStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 11},
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    thinBorders(),
	})
}

// newSheet creates a workbook whose only sheet is named name, with styled headers
// in row 1 and the given column widths.
func newSheet(name string, cols []Column) (*excelize.File, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns to write")
	}
	if name == "" {
		name = defaultExportSheet
	}
	if r := []rune(name); len(r) > excelSheetNameLimit {
		name = string(r[:excelSheetNameLimit])
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	style, err := headerStyle(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(name, cell, col.Header); err != nil {
			f.Close()
			return nil, err
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		width := col.Width
		if width <= 0 {
			width = DefaultColumnWidth
		}
		if err := f.SetColWidth(name, colName, colName, width); err != nil {
			f.Close()
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(name, "A1", last, style); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeBuffer(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Template builds the blank import workbook: the headers followed by ten
// bordered placeholder rows.
func Template(headers []string) ([]byte, error) {
	cols := Columns(headers...)
	f, err := newSheet(TemplateSheetName, cols)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	style, err := cellStyle(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), TemplateEmptyRows+1)
	if err := f.SetCellStyle(TemplateSheetName, "A2", last, style); err != nil {
		return nil, err
	}
	return writeBuffer(f)
}

// Export writes the table rows under styled headers
func Export(t Table) ([]byte, error) {
	f, err := newSheet(t.SheetName, t.Columns)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return writeBuffer(f)
}

// cellValue converts domain values into types excelize stores natively
func cellValue(v any) any {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.InexactFloat64()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format("2006-01-02T15:04:05")
	case nil:
		return ""
	}
	return v
}
