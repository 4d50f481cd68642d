package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeEmail   FieldType = "email"
)

func (t FieldType) expectation() string {
	switch t {
	case TypeInt:
		return "должно быть целым числом"
	case TypeDecimal:
		return "должно быть числом"
	case TypeDate:
		return "содержит некорректную дату"
	case TypeEmail:
		return "содержит некорректный email"
	}
	return "имеет некорректный формат"
}

var emailValidator = validator.New()

// dateLayouts are the textual date formats accepted besides Excel serial numbers
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02.01.2006",
	"02.01.2006 15:04",
}

// ParseInt parses an integer cell. Spreadsheet programs may store whole numbers
// as "3.0", which is accepted.
func ParseInt(value string) (int64, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("not an integer: %q", value)
	}
	return d.IntPart(), nil
}

// ParseDecimal parses a numeric cell, accepting a comma decimal separator
func ParseDecimal(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(value, ",", ".", 1))
}

// ParseDate parses a date cell given either as text or as an Excel serial number
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", value)
}

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column       string
	Type         FieldType
	Required     bool
	MaxLength    int
	MinValue     *decimal.Decimal
	MinExclusive bool
	MaxValue     *decimal.Decimal
	Unique       bool
	CustomFunc   func(value string) error
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column, Type: TypeString}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Int sets the field type to integer
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder {
	b.rule.Type = TypeInt
	return b
}

// Decimal sets the field type to decimal
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder {
	b.rule.Type = TypeDecimal
	return b
}

// Date sets the field type to date
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder {
	b.rule.Type = TypeDate
	return b
}

// Email sets the field type to email
func (b *FieldRuleBuilder) Email() *FieldRuleBuilder {
	b.rule.Type = TypeEmail
	return b
}

// MaxLength sets the maximum length in characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// MinValue sets an inclusive lower bound
func (b *FieldRuleBuilder) MinValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	b.rule.MinExclusive = false
	return b
}

// GreaterThan sets an exclusive lower bound
func (b *FieldRuleBuilder) GreaterThan(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	b.rule.MinExclusive = true
	return b
}

// MaxValue sets an inclusive upper bound
func (b *FieldRuleBuilder) MaxValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MaxValue = &v
	return b
}

// Unique marks the field as unique within the file
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Custom sets a custom validation function; its error text becomes the message
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// Validator checks rows against an ordered rule set
type Validator struct {
	rules []FieldRule
}

// NewValidator creates a validator; errors of one row are reported in rule order
func NewValidator(rules []FieldRule) *Validator {
	return &Validator{rules: rules}
}

// Columns returns the rule columns in order, which is also the template header order
func (v *Validator) Columns() []string {
	cols := make([]string, len(v.rules))
	for i, r := range v.rules {
		cols[i] = r.Column
	}
	return cols
}

// Validate scans every row and collects every violation
func (v *Validator) Validate(rows []Row) *ErrorCollection {
	ec := NewErrorCollection()
	seen := make(map[string]map[string]int)
	for _, row := range rows {
		v.validateRow(row, ec, seen)
	}
	return ec
}

// ValidateRow checks a single row
func (v *Validator) ValidateRow(row Row) *ErrorCollection {
	ec := NewErrorCollection()
	v.validateRow(row, ec, make(map[string]map[string]int))
	return ec
}

func (v *Validator) validateRow(row Row, ec *ErrorCollection, seen map[string]map[string]int) {
	for _, rule := range v.rules {
		value := row.Get(rule.Column)

		if value == "" {
			if rule.Required {
				ec.AddRequiredError(row.Number, rule.Column)
			}
			continue
		}

		if !checkType(value, rule.Type) {
			ec.AddTypeError(row.Number, rule.Column, rule.Type, value)
			continue
		}

		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			ec.AddLengthError(row.Number, rule.Column, rule.MaxLength)
		}

		if rule.Type == TypeInt || rule.Type == TypeDecimal {
			if msg := checkRange(value, rule); msg != "" {
				ec.AddRangeError(row.Number, rule.Column, msg, value)
			}
		}

		if rule.Unique {
			if seen[rule.Column] == nil {
				seen[rule.Column] = make(map[string]int)
			}
			key := foldKey(value)
			if first, ok := seen[rule.Column][key]; ok {
				ec.AddDuplicateError(row.Number, rule.Column, value, first)
			} else {
				seen[rule.Column][key] = row.Number
			}
		}

		if rule.CustomFunc != nil {
			if err := rule.CustomFunc(value); err != nil {
				ec.Add(NewRowErrorWithValue(row.Number, rule.Column, ErrCodeImportValidation, err.Error(), value))
			}
		}
	}
}

func checkType(value string, t FieldType) bool {
	switch t {
	case TypeInt:
		_, err := ParseInt(value)
		return err == nil
	case TypeDecimal:
		_, err := ParseDecimal(value)
		return err == nil
	case TypeDate:
		_, err := ParseDate(value)
		return err == nil
	case TypeEmail:
		return emailValidator.Var(value, "email") == nil
	}
	return true
}

func checkRange(value string, rule FieldRule) string {
	d, err := ParseDecimal(value)
	if err != nil {
		return ""
	}
	if min := rule.MinValue; min != nil {
		if rule.MinExclusive && !d.GreaterThan(*min) {
			return fmt.Sprintf("должно быть больше %s", min.String())
		}
		if !rule.MinExclusive && d.LessThan(*min) {
			if min.IsZero() {
				return "не может быть отрицательным"
			}
			return fmt.Sprintf("должно быть не меньше %s", min.String())
		}
	}
	if max := rule.MaxValue; max != nil && d.GreaterThan(*max) {
		return fmt.Sprintf("должно быть не больше %s", max.String())
	}
	return ""
}
