package tabular

import (
	"errors"
	"fmt"
	"strings"
)

// Import error codes
const (
	ErrCodeImportInvalidFile   = "ERR_IMPORT_INVALID_FILE"
	ErrCodeImportEmptyFile     = "ERR_IMPORT_EMPTY_FILE"
	ErrCodeImportMissingHeader = "ERR_IMPORT_MISSING_HEADER"

	ErrCodeImportValidation    = "ERR_IMPORT_VALIDATION"
	ErrCodeImportRequiredField = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidType   = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeImportInvalidFormat = "ERR_IMPORT_INVALID_FORMAT"
	ErrCodeImportInvalidLength = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeImportInvalidRange  = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeImportDuplicate     = "ERR_IMPORT_DUPLICATE_IN_FILE"
)

// MessageNoDataRows is reported for a sheet holding only a header
const MessageNoDataRows = "Файл не содержит строк с данными"

// Common import errors
var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrInvalidEncoding   = errors.New("invalid file encoding")
	ErrMissingHeader     = errors.New("file missing header row")
	ErrNoDataRows        = errors.New("file contains no data rows")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// RowError is one violation found in a data row. Row is the 1-based index of the
// data row, not counting the header.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	return fmt.Sprintf("Строка %d: %s", e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
	}
}

// NewRowErrorWithValue creates a new RowError with the invalid value
func NewRowErrorWithValue(row int, column, code, message, value string) RowError {
	e := NewRowError(row, column, code, message)
	e.Value = value
	return e
}

// ErrorCollection accumulates every error of a batch. Nothing is dropped: the
// preview lists the complete set.
type ErrorCollection struct {
	errors []RowError
	rows   map[int]struct{}
}

// NewErrorCollection creates an empty collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{rows: make(map[int]struct{})}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.errors = append(ec.errors, err)
	ec.rows[err.Row] = struct{}{}
}

// AddRequiredError adds a missing value error
func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(NewRowError(row, column, ErrCodeImportRequiredField,
		fmt.Sprintf("отсутствует обязательное поле «%s»", column)))
}

// AddTypeError adds a type validation error
func (ec *ErrorCollection) AddTypeError(row int, column string, fieldType FieldType, value string) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeImportInvalidType,
		fmt.Sprintf("поле «%s» %s", column, fieldType.expectation()), value))
}

// AddLengthError adds a max length error
func (ec *ErrorCollection) AddLengthError(row int, column string, maxLen int) {
	ec.Add(NewRowError(row, column, ErrCodeImportInvalidLength,
		fmt.Sprintf("поле «%s» не должно превышать %d символов", column, maxLen)))
}

// AddRangeError adds a numeric range error
func (ec *ErrorCollection) AddRangeError(row int, column, message, value string) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeImportInvalidRange,
		fmt.Sprintf("поле «%s» %s", column, message), value))
}

// AddDuplicateError adds an in-file duplicate error
func (ec *ErrorCollection) AddDuplicateError(row int, column, value string, firstRow int) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeImportDuplicate,
		fmt.Sprintf("значение «%s» в поле «%s» повторяет строку %d", value, column, firstRow), value))
}

// Errors returns the collected errors in insertion order
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// Messages renders every error as "Строка N: ..."
func (ec *ErrorCollection) Messages() []string {
	out := make([]string, len(ec.errors))
	for i, err := range ec.errors {
		out[i] = err.Error()
	}
	return out
}

// Count returns the number of errors
func (ec *ErrorCollection) Count() int {
	return len(ec.errors)
}

// RowCount returns the number of distinct rows with at least one error
func (ec *ErrorCollection) RowCount() int {
	return len(ec.rows)
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return len(ec.errors) > 0
}

// String returns a string representation of all errors
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found:\n", len(ec.errors))
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// ValidationResult is the outcome of validating a batch
type ValidationResult struct {
	BatchID   string              `json:"batchId"`
	TotalRows int                 `json:"totalRows"`
	ValidRows int                 `json:"validRows"`
	ErrorRows int                 `json:"errorRows"`
	IsValid   bool                `json:"isValid"`
	Errors    []string            `json:"errors"`
	Details   []RowError          `json:"details,omitempty"`
	Preview   []map[string]string `json:"preview,omitempty"`
}

// NewValidationResult builds a result from the collected errors
func NewValidationResult(batchID string, rows []Row, ec *ErrorCollection) *ValidationResult {
	vr := &ValidationResult{
		BatchID:   batchID,
		TotalRows: len(rows),
		ErrorRows: ec.RowCount(),
		Errors:    ec.Messages(),
		Details:   ec.Errors(),
	}
	vr.ValidRows = vr.TotalRows - vr.ErrorRows
	vr.IsValid = !ec.HasErrors() && vr.TotalRows > 0
	if vr.TotalRows == 0 {
		vr.Errors = append(vr.Errors, MessageNoDataRows)
	}
	if vr.IsValid {
		vr.Preview = make([]map[string]string, 0, len(rows))
		for _, r := range rows {
			vr.Preview = append(vr.Preview, r.Data)
		}
	}
	return vr
}
