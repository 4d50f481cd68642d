package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntity(t *testing.T) {
	t.Run("known entity", func(t *testing.T) {
		e, err := ParseEntity(" Parts ")
		require.NoError(t, err)
		assert.Equal(t, EntityParts, e)
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, err := ParseEntity("orders")
		assert.Error(t, err)
	})
}

func TestInventoryRecord_UnmarshalJSON(t *testing.T) {
	t.Run("inventoryId field", func(t *testing.T) {
		var r InventoryRecord
		require.NoError(t, json.Unmarshal([]byte(`{"inventoryId":7,"partId":3,"quantityInStock":12}`), &r))
		assert.Equal(t, int64(7), r.InventoryID)
		assert.Equal(t, int64(3), r.PartID)
		assert.Equal(t, 12, r.QuantityInStock)
	})

	t.Run("bare id field", func(t *testing.T) {
		var r InventoryRecord
		require.NoError(t, json.Unmarshal([]byte(`{"id":9,"partId":3,"partName":"Bolt","lastRestockDate":"2024-05-01T12:30:00"}`), &r))
		assert.Equal(t, int64(9), r.InventoryID)
		assert.Equal(t, "Bolt", r.DisplayName())
		assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), r.LastRestockDate.Time)
	})

	t.Run("null restock date", func(t *testing.T) {
		var r InventoryRecord
		require.NoError(t, json.Unmarshal([]byte(`{"inventoryId":1,"lastRestockDate":null}`), &r))
		assert.True(t, r.LastRestockDate.IsZero())
	})
}

func TestPartRequest_MarshalJSON(t *testing.T) {
	req := PartRequest{
		Name:        "Filter",
		Description: "Oil filter",
		CategoryID:  2,
		SupplierID:  4,
		UnitPrice:   decimal.RequireFromString("12.50"),
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Filter","description":"Oil filter","categoryId":2,"supplierId":4,"unitPrice":12.5}`, string(data))
}

func TestPart_ToRequest(t *testing.T) {
	p := Part{PartID: 1, Name: "Belt", CategoryID: 3, CategoryName: "Engine", SupplierID: 5, UnitPrice: decimal.NewFromInt(40)}
	req := p.ToRequest()
	assert.Equal(t, "Belt", req.Name)
	assert.Equal(t, int64(3), req.CategoryID)
	assert.True(t, req.UnitPrice.Equal(decimal.NewFromInt(40)))
}

func TestThresholds_Valid(t *testing.T) {
	assert.True(t, DefaultThresholds().Valid())
	assert.True(t, Thresholds{Low: 0, Medium: 1}.Valid())
	assert.False(t, Thresholds{Low: 10, Medium: 10}.Valid())
	assert.False(t, Thresholds{Low: -1, Medium: 5}.Valid())
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2024-01-02", "2024-01-02T03:04:05Z", "2024-01-02 03:04:05"} {
		_, err := ParseTimestamp(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseTimestamp("02.01.2024")
	assert.Error(t, err)
}
