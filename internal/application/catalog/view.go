package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/tabular"
)

// Column is one table column of a record type; the header doubles as the export header
type Column[T catalog.Record] struct {
	Header     string
	Width      float64
	Value      func(T) any
	Searchable bool
}

// View is the table projection of a page
type View[T catalog.Record] struct {
	Rows       []T       `json:"rows"`
	Total      int       `json:"total"`
	Search     string    `json:"search,omitempty"`
	IsLoading  bool      `json:"isLoading"`
	IsFetching bool      `json:"isFetching"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// Filter keeps the records where any searchable column contains search, ignoring case
func Filter[T catalog.Record](rows []T, columns []Column[T], search string) []T {
	search = strings.TrimSpace(search)
	if search == "" {
		return rows
	}
	needle := cases.Fold().String(search)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		for _, col := range columns {
			if !col.Searchable {
				continue
			}
			if strings.Contains(cases.Fold().String(cellText(col.Value(row))), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Table turns rows into an export table with the columns' headers and widths
func Table[T catalog.Record](sheet string, rows []T, columns []Column[T]) tabular.Table {
	cols := make([]tabular.Column, len(columns))
	for i, c := range columns {
		cols[i] = tabular.Column{Header: c.Header, Width: c.Width}
	}
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(columns))
		for j, c := range columns {
			cells[j] = c.Value(row)
		}
		out[i] = cells
	}
	return tabular.Table{SheetName: sheet, Columns: cols, Rows: out}
}

func cellText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case decimal.Decimal:
		return val.String()
	case catalog.Timestamp:
		if val.IsZero() {
			return ""
		}
		return val.Format("2006-01-02 15:04:05")
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
