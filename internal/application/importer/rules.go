package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/tabular"
)

// Creator creates one record in the backend
type Creator[T catalog.Record, R any] interface {
	Create(ctx context.Context, req R) (T, error)
}

// Schema binds an entity's import columns to its create call
type Schema struct {
	Entity catalog.Entity
	Rules  []tabular.FieldRule
	create func(ctx context.Context, row tabular.Row) (int64, error)
}

// Headers returns the template headers in column order
func (s Schema) Headers() []string {
	return tabular.NewValidator(s.Rules).Columns()
}

// NewSchema builds a schema whose rows are converted by convert and created through api
func NewSchema[T catalog.Record, R any](entity catalog.Entity, rules []tabular.FieldRule, convert func(tabular.Row) (R, error), api Creator[T, R]) Schema {
	return Schema{
		Entity: entity,
		Rules:  rules,
		create: func(ctx context.Context, row tabular.Row) (int64, error) {
			req, err := convert(row)
			if err != nil {
				return 0, err
			}
			rec, err := api.Create(ctx, req)
			if err != nil {
				return 0, err
			}
			return rec.RecordID(), nil
		},
	}
}

// Column names shared by the import template and the export sheet
const (
	ColName            = "Name"
	ColDescription     = "Description"
	ColCategoryID      = "CategoryID"
	ColSupplierID      = "SupplierID"
	ColPrice           = "Price"
	ColContactPerson   = "ContactPerson"
	ColPhone           = "Phone"
	ColEmail           = "Email"
	ColAddress         = "Address"
	ColPartID          = "PartID"
	ColQuantity        = "Quantity"
	ColLastRestockDate = "LastRestockDate"
)

// PartRules are the column rules of a parts sheet
func PartRules() []tabular.FieldRule {
	return []tabular.FieldRule{
		tabular.Field(ColName).Required().MaxLength(100).Build(),
		tabular.Field(ColDescription).Required().MaxLength(250).Build(),
		tabular.Field(ColCategoryID).Required().Int().GreaterThan(decimal.Zero).Build(),
		tabular.Field(ColSupplierID).Required().Int().GreaterThan(decimal.Zero).Build(),
		tabular.Field(ColPrice).Required().Decimal().GreaterThan(decimal.Zero).Build(),
	}
}

// CategoryRules are the column rules of a categories sheet
func CategoryRules() []tabular.FieldRule {
	return []tabular.FieldRule{
		tabular.Field(ColName).Required().MaxLength(100).Build(),
		tabular.Field(ColDescription).MaxLength(250).Build(),
	}
}

// SupplierRules are the column rules of a suppliers sheet
func SupplierRules() []tabular.FieldRule {
	return []tabular.FieldRule{
		tabular.Field(ColName).Required().MaxLength(100).Build(),
		tabular.Field(ColContactPerson).MaxLength(100).Build(),
		tabular.Field(ColPhone).Required().MaxLength(20).Build(),
		tabular.Field(ColEmail).Required().Email().Build(),
		tabular.Field(ColAddress).MaxLength(250).Build(),
	}
}

// InventoryRules are the column rules of a stock sheet. LastRestockDate is checked
// but not sent: the backend stamps the restock date itself.
func InventoryRules() []tabular.FieldRule {
	return []tabular.FieldRule{
		tabular.Field(ColPartID).Required().Int().GreaterThan(decimal.Zero).Build(),
		tabular.Field(ColQuantity).Required().Int().MinValue(decimal.Zero).Build(),
		tabular.Field(ColLastRestockDate).Date().Build(),
	}
}

func text(row tabular.Row, col string) string {
	return strings.TrimSpace(row.Get(col))
}

func intCell(row tabular.Row, col string) (int64, error) {
	n, err := tabular.ParseInt(text(row, col))
	if err != nil {
		return 0, fmt.Errorf("row %d: %s: %w", row.Number, col, err)
	}
	return n, nil
}

// PartFromRow converts a validated parts row
func PartFromRow(row tabular.Row) (catalog.PartRequest, error) {
	categoryID, err := intCell(row, ColCategoryID)
	if err != nil {
		return catalog.PartRequest{}, err
	}
	supplierID, err := intCell(row, ColSupplierID)
	if err != nil {
		return catalog.PartRequest{}, err
	}
	price, err := tabular.ParseDecimal(text(row, ColPrice))
	if err != nil {
		return catalog.PartRequest{}, fmt.Errorf("row %d: %s: %w", row.Number, ColPrice, err)
	}
	return catalog.PartRequest{
		Name:        text(row, ColName),
		Description: text(row, ColDescription),
		CategoryID:  categoryID,
		SupplierID:  supplierID,
		UnitPrice:   price,
	}, nil
}

// CategoryFromRow converts a validated categories row
func CategoryFromRow(row tabular.Row) (catalog.CategoryRequest, error) {
	return catalog.CategoryRequest{
		Name:        text(row, ColName),
		Description: text(row, ColDescription),
	}, nil
}

// SupplierFromRow converts a validated suppliers row
func SupplierFromRow(row tabular.Row) (catalog.SupplierRequest, error) {
	return catalog.SupplierRequest{
		Name:          text(row, ColName),
		ContactPerson: text(row, ColContactPerson),
		Phone:         text(row, ColPhone),
		Email:         text(row, ColEmail),
		Address:       text(row, ColAddress),
	}, nil
}

// InventoryFromRow converts a validated stock row
func InventoryFromRow(row tabular.Row) (catalog.InventoryRequest, error) {
	partID, err := intCell(row, ColPartID)
	if err != nil {
		return catalog.InventoryRequest{}, err
	}
	qty, err := intCell(row, ColQuantity)
	if err != nil {
		return catalog.InventoryRequest{}, err
	}
	return catalog.InventoryRequest{PartID: partID, QuantityInStock: int(qty)}, nil
}

// Backend is the set of collections the importer creates records in
type Backend struct {
	Parts      Creator[catalog.Part, catalog.PartRequest]
	Categories Creator[catalog.Category, catalog.CategoryRequest]
	Suppliers  Creator[catalog.Supplier, catalog.SupplierRequest]
	Inventory  Creator[catalog.InventoryRecord, catalog.InventoryRequest]
}

// Schemas returns the import schema of every entity
func Schemas(b Backend) []Schema {
	return []Schema{
		NewSchema(catalog.EntityCategories, CategoryRules(), CategoryFromRow, b.Categories),
		NewSchema(catalog.EntitySuppliers, SupplierRules(), SupplierFromRow, b.Suppliers),
		NewSchema(catalog.EntityParts, PartRules(), PartFromRow, b.Parts),
		NewSchema(catalog.EntityInventory, InventoryRules(), InventoryFromRow, b.Inventory),
	}
}
