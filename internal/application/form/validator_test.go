package form

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
)

func TestValidator_Category(t *testing.T) {
	v := NewValidator()

	assert.Nil(t, v.Struct(catalog.CategoryRequest{Name: "Тормоза"}))

	errs := v.Struct(catalog.CategoryRequest{Name: strings.Repeat("a", 101)})
	require.Len(t, errs, 1)
	assert.Equal(t, CodeTooLong, errs["name"].Code)

	errs = v.Struct(catalog.CategoryRequest{Name: "   ", Description: strings.Repeat("я", 251)})
	assert.Equal(t, CodeRequired, errs["name"].Code)
	assert.Equal(t, CodeTooLong, errs["description"].Code)

	// 100 Cyrillic runes are within the limit
	assert.Nil(t, v.Struct(catalog.CategoryRequest{Name: strings.Repeat("я", 100)}))
}

func TestValidator_Part(t *testing.T) {
	v := NewValidator()

	valid := catalog.PartRequest{
		Name:        "Диск",
		Description: "Тормозной диск",
		CategoryID:  1,
		SupplierID:  2,
		UnitPrice:   decimal.RequireFromString("0.01"),
	}
	assert.Nil(t, v.Struct(valid))

	bad := valid
	bad.CategoryID = 0
	bad.UnitPrice = decimal.Zero
	errs := v.Struct(bad)
	assert.Equal(t, []string{"categoryId", "unitPrice"}, errs.Fields())
	assert.Equal(t, CodeNotSelected, errs["categoryId"].Code)
	assert.Equal(t, CodePositive, errs["unitPrice"].Code)

	fe := v.Field(bad, "unitPrice")
	require.NotNil(t, fe)
	assert.Equal(t, "Значение должно быть больше 0", fe.Message)
	assert.Nil(t, v.Field(bad, "name"))
}

func TestValidator_Supplier(t *testing.T) {
	v := NewValidator()

	errs := v.Struct(catalog.SupplierRequest{Name: "ООО Ромашка", Phone: "+7 900", Email: "not-an-email"})
	require.Len(t, errs, 1)
	assert.Equal(t, CodeEmail, errs["email"].Code)

	errs = v.Struct(catalog.SupplierRequest{Name: "ООО Ромашка", Phone: " ", Email: "a@b.ru"})
	assert.Equal(t, CodeRequired, errs["phone"].Code)
}

func TestValidator_Inventory(t *testing.T) {
	v := NewValidator()

	errs := v.Struct(catalog.InventoryRequest{PartID: 1, QuantityInStock: -1})
	assert.Equal(t, CodeNonNegative, errs["quantityInStock"].Code)

	assert.Nil(t, v.Struct(catalog.InventoryRequest{PartID: 1, QuantityInStock: 0}))

	errs = v.Struct(catalog.QuantityAdjustment{Quantity: 0})
	assert.Equal(t, CodePositive, errs["quantity"].Code)
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		"name":  {Field: "name", Code: CodeRequired, Message: "Поле обязательно для заполнения"},
		"email": {Field: "email", Code: CodeEmail, Message: "Некорректный email"},
	}
	assert.Equal(t, "validation failed: email: Некорректный email; name: Поле обязательно для заполнения", errs.Error())

	got, ok := AsValidationErrors(error(errs))
	assert.True(t, ok)
	assert.Len(t, got, 2)
}
