package catalog

import (
	"encoding/json"
	"strconv"
)

// InventoryRecord is the stock level of one part
type InventoryRecord struct {
	InventoryID     int64     `json:"inventoryId"`
	PartID          int64     `json:"partId"`
	PartName        string    `json:"partName"`
	QuantityInStock int       `json:"quantityInStock"`
	LastRestockDate Timestamp `json:"lastRestockDate"`
}

// RecordID implements Record
func (r InventoryRecord) RecordID() int64 { return r.InventoryID }

// DisplayName implements Record
func (r InventoryRecord) DisplayName() string {
	if r.PartName != "" {
		return r.PartName
	}
	return "#" + strconv.FormatInt(r.PartID, 10)
}

// UnmarshalJSON accepts both "inventoryId" and the bare "id" some endpoints emit.
func (r *InventoryRecord) UnmarshalJSON(data []byte) error {
	type alias InventoryRecord
	aux := struct {
		*alias
		ID *int64 `json:"id"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.InventoryID == 0 && aux.ID != nil {
		r.InventoryID = *aux.ID
	}
	return nil
}

// ToRequest copies the record into an edit draft
func (r InventoryRecord) ToRequest() InventoryRequest {
	return InventoryRequest{
		PartID:          r.PartID,
		QuantityInStock: r.QuantityInStock,
	}
}

// InventoryRequest is the body of create and update calls
type InventoryRequest struct {
	PartID          int64 `json:"partId" validate:"gt=0"`
	QuantityInStock int   `json:"quantityInStock" validate:"gte=0"`
}

// QuantityAdjustment is the draft of the add/remove stock dialog
type QuantityAdjustment struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// AdjustDirection selects the add or remove endpoint
type AdjustDirection string

const (
	AdjustAdd    AdjustDirection = "add"
	AdjustRemove AdjustDirection = "remove"
)
