package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser_Parse(t *testing.T) {
	t.Run("comma delimited with BOM", func(t *testing.T) {
		input := "\ufeffName,Description\nBrakes,Brake parts\nFilters,Oil filters\n"
		sheet, err := NewCSVParser().Parse(strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, []string{"Name", "Description"}, sheet.Headers)
		require.Len(t, sheet.Rows, 2)
		assert.Equal(t, 1, sheet.Rows[0].Number)
		assert.Equal(t, 2, sheet.Rows[0].Line)
		assert.Equal(t, "Brakes", sheet.Rows[0].Get("Name"))
		assert.Equal(t, "Oil filters", sheet.Rows[1].Get("Description"))
	})

	t.Run("semicolon is sniffed", func(t *testing.T) {
		input := "Name;Price\nBolt;1,50\n"
		sheet, err := NewCSVParser().Parse(strings.NewReader(input))
		require.NoError(t, err)

		require.Len(t, sheet.Rows, 1)
		assert.Equal(t, "1,50", sheet.Rows[0].Get("Price"))
	})

	t.Run("explicit delimiter", func(t *testing.T) {
		input := "Name\tPrice\nBolt\t2\n"
		sheet, err := NewCSVParser(WithDelimiter('\t')).Parse(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, "2", sheet.Rows[0].Get("Price"))
	})

	t.Run("blank rows do not consume numbers", func(t *testing.T) {
		input := "Name,Price\nA,1\n,\nB,2\n"
		sheet, err := NewCSVParser().Parse(strings.NewReader(input))
		require.NoError(t, err)

		require.Len(t, sheet.Rows, 2)
		assert.Equal(t, 2, sheet.Rows[1].Number)
		assert.Equal(t, 4, sheet.Rows[1].Line)
	})

	t.Run("short records are padded", func(t *testing.T) {
		input := "Name,Price\nA\n"
		sheet, err := NewCSVParser().Parse(strings.NewReader(input))
		require.NoError(t, err)

		assert.True(t, sheet.Rows[0].Has("Price"))
		assert.Empty(t, sheet.Rows[0].Get("Price"))
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := NewCSVParser().Parse(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := NewCSVParser().Parse(strings.NewReader("Name\n\xff\xfe\n"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("header without names", func(t *testing.T) {
		_, err := NewCSVParser().Parse(strings.NewReader(" , \nA,B\n"))
		assert.ErrorIs(t, err, ErrMissingHeader)
	})
}

func TestRow_GetCaseInsensitive(t *testing.T) {
	row := Row{Data: map[string]string{"price": "10", "Название": "Болт"}}

	assert.Equal(t, "10", row.Get("Price"))
	assert.Equal(t, "Болт", row.Get("НАЗВАНИЕ"))
	assert.True(t, row.Has("PRICE"))
	assert.False(t, row.Has("Quantity"))
}

func TestSheet_MissingHeaders(t *testing.T) {
	sheet := &Sheet{Headers: []string{"name", "Description"}}
	assert.Equal(t, []string{"Price"}, sheet.MissingHeaders([]string{"Name", "Price"}))
	assert.Empty(t, sheet.MissingHeaders([]string{"NAME"}))
}
