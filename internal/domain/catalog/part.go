package catalog

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Part is a catalog item that references a category and a supplier
type Part struct {
	PartID       int64           `json:"partId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	CategoryID   int64           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	SupplierID   int64           `json:"supplierId"`
	SupplierName string          `json:"supplierName"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
}

// RecordID implements Record
func (p Part) RecordID() int64 { return p.PartID }

// DisplayName implements Record
func (p Part) DisplayName() string { return p.Name }

// ToRequest copies the record into an edit draft
func (p Part) ToRequest() PartRequest {
	return PartRequest{
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		SupplierID:  p.SupplierID,
		UnitPrice:   p.UnitPrice,
	}
}

// PartRequest is the body of create and update calls
type PartRequest struct {
	Name        string          `json:"name" validate:"nonblank,max=100"`
	Description string          `json:"description" validate:"nonblank,max=250"`
	CategoryID  int64           `json:"categoryId" validate:"gt=0"`
	SupplierID  int64           `json:"supplierId" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice" validate:"gt=0"`
}

// MarshalJSON sends the price as a JSON number, which is what the backend binds to.
func (r PartRequest) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name        string      `json:"name"`
		Description string      `json:"description"`
		CategoryID  int64       `json:"categoryId"`
		SupplierID  int64       `json:"supplierId"`
		UnitPrice   json.Number `json:"unitPrice"`
	}
	return json.Marshal(wire{
		Name:        r.Name,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		SupplierID:  r.SupplierID,
		UnitPrice:   json.Number(r.UnitPrice.String()),
	})
}
