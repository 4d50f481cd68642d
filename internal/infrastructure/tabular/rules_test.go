package tabular

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partRules() []FieldRule {
	return []FieldRule{
		Field("Name").Required().MaxLength(100).Build(),
		Field("Description").Required().MaxLength(250).Build(),
		Field("CategoryID").Required().Int().GreaterThan(decimal.Zero).Build(),
		Field("SupplierID").Required().Int().GreaterThan(decimal.Zero).Build(),
		Field("Price").Required().Decimal().GreaterThan(decimal.Zero).Build(),
	}
}

func rowsOf(records ...map[string]string) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{Number: i + 1, Line: i + 2, Data: r}
	}
	return rows
}

func TestValidator_CollectsEveryRow(t *testing.T) {
	rows := rowsOf(
		map[string]string{"Name": "", "Description": "d", "CategoryID": "1", "SupplierID": "1", "Price": "1"},
		map[string]string{"Name": "Bolt", "Description": "d", "CategoryID": "1", "SupplierID": "1", "Price": "2.5"},
		map[string]string{"Name": "Nut", "Description": "d", "CategoryID": "x", "SupplierID": "1", "Price": "1"},
	)

	ec := NewValidator(partRules()).Validate(rows)

	require.Equal(t, 2, ec.Count())
	msgs := ec.Messages()
	assert.Equal(t, "Строка 1: отсутствует обязательное поле «Name»", msgs[0])
	assert.Equal(t, "Строка 3: поле «CategoryID» должно быть целым числом", msgs[1])
	assert.Equal(t, 2, ec.RowCount())

	result := NewValidationResult("batch", rows, ec)
	assert.False(t, result.IsValid)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	assert.Empty(t, result.Preview)
}

func TestValidator_MissingColumnFailsEveryRow(t *testing.T) {
	rows := rowsOf(
		map[string]string{"Name": "A", "Description": "d", "CategoryID": "1", "SupplierID": "1"},
		map[string]string{"Name": "B", "Description": "d", "CategoryID": "1", "SupplierID": "1"},
	)

	ec := NewValidator(partRules()).Validate(rows)
	result := NewValidationResult("batch", rows, ec)

	assert.False(t, result.IsValid)
	assert.Equal(t, []string{
		"Строка 1: отсутствует обязательное поле «Price»",
		"Строка 2: отсутствует обязательное поле «Price»",
	}, result.Errors)
}

func TestValidator_Rules(t *testing.T) {
	tests := []struct {
		name    string
		rule    FieldRule
		value   string
		wantMsg string
	}{
		{"length counts runes", Field("Name").MaxLength(3).Build(), "Болт", "Строка 1: поле «Name» не должно превышать 3 символов"},
		{"length ok", Field("Name").MaxLength(4).Build(), "Болт", ""},
		{"greater than zero", Field("Price").Decimal().GreaterThan(decimal.Zero).Build(), "0", "Строка 1: поле «Price» должно быть больше 0"},
		{"comma decimal", Field("Price").Decimal().GreaterThan(decimal.Zero).Build(), "1,25", ""},
		{"negative quantity", Field("Quantity").Int().MinValue(decimal.Zero).Build(), "-1", "Строка 1: поле «Quantity» не может быть отрицательным"},
		{"zero quantity", Field("Quantity").Int().MinValue(decimal.Zero).Build(), "0", ""},
		{"whole float as int", Field("Quantity").Int().Build(), "3.0", ""},
		{"fraction as int", Field("Quantity").Int().Build(), "3.5", "Строка 1: поле «Quantity» должно быть целым числом"},
		{"max value", Field("Quantity").Int().MaxValue(decimal.NewFromInt(5)).Build(), "6", "Строка 1: поле «Quantity» должно быть не больше 5"},
		{"email", Field("Email").Email().Build(), "not-an-email", "Строка 1: поле «Email» содержит некорректный email"},
		{"email ok", Field("Email").Email().Build(), "sales@example.com", ""},
		{"date", Field("Date").Date().Build(), "31.02.2024x", "Строка 1: поле «Date» содержит некорректную дату"},
		{"optional empty", Field("Date").Date().Build(), "", ""},
		{"custom", Field("Code").Custom(func(string) error { return errors.New("неизвестный код") }).Build(), "X", "Строка 1: неизвестный код"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Row{Number: 1, Data: map[string]string{tt.rule.Column: tt.value}}
			ec := NewValidator([]FieldRule{tt.rule}).ValidateRow(row)
			if tt.wantMsg == "" {
				assert.False(t, ec.HasErrors(), ec.String())
				return
			}
			require.Equal(t, 1, ec.Count())
			assert.Equal(t, tt.wantMsg, ec.Messages()[0])
		})
	}
}

func TestValidator_Unique(t *testing.T) {
	rows := rowsOf(
		map[string]string{"Name": "Brakes"},
		map[string]string{"Name": "Filters"},
		map[string]string{"Name": "brakes"},
	)
	ec := NewValidator([]FieldRule{Field("Name").Required().Unique().Build()}).Validate(rows)

	require.Equal(t, 1, ec.Count())
	assert.Equal(t, 3, ec.Errors()[0].Row)
	assert.Equal(t, ErrCodeImportDuplicate, ec.Errors()[0].Code)
}

func TestValidator_Columns(t *testing.T) {
	assert.Equal(t, []string{"Name", "Description", "CategoryID", "SupplierID", "Price"},
		NewValidator(partRules()).Columns())
}

func TestNewValidationResult(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		result := NewValidationResult("b", nil, NewErrorCollection())
		assert.False(t, result.IsValid)
		assert.Equal(t, []string{MessageNoDataRows}, result.Errors)
	})

	t.Run("valid rows carry preview", func(t *testing.T) {
		rows := rowsOf(map[string]string{"Name": "A"})
		result := NewValidationResult("b", rows, NewErrorCollection())
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Errors)
		require.Len(t, result.Preview, 1)
		assert.Equal(t, "A", result.Preview[0]["Name"])
	})
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"2024-03-15", "15.03.2024", "45366"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestParseInt(t *testing.T) {
	n, err := ParseInt("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)

	n, err = ParseInt("7.0")
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)

	_, err = ParseInt("7.5")
	assert.Error(t, err)
}
