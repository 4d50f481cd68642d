package catalog

import (
	"time"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
)

// Labels are the user-facing texts of one entity page
type Labels struct {
	SheetName  string
	FileName   string
	Created    string
	Updated    string
	Deleted    string
	Adjusted   string
	SaveFailed string
	// DeleteFailed is shown for a delete error that is not a reference conflict
	DeleteFailed string
	// Referenced replaces the backend error when the record is still referenced
	Referenced string
}

// Definition describes an entity page
type Definition[T catalog.Record, R any] struct {
	Entity   catalog.Entity
	Columns  []Column[T]
	NewDraft func() R
	ToDraft  func(T) R
	Labels   Labels
}

func lastRestock(ts catalog.Timestamp) any {
	if ts.IsZero() {
		return time.Time{}
	}
	return ts.Time
}

// PartsDefinition describes the parts page
func PartsDefinition() Definition[catalog.Part, catalog.PartRequest] {
	return Definition[catalog.Part, catalog.PartRequest]{
		Entity: catalog.EntityParts,
		Columns: []Column[catalog.Part]{
			{Header: "ID", Width: 10, Value: func(p catalog.Part) any { return p.PartID }},
			{Header: "Name", Width: 30, Value: func(p catalog.Part) any { return p.Name }, Searchable: true},
			{Header: "Description", Width: 40, Value: func(p catalog.Part) any { return p.Description }, Searchable: true},
			{Header: "CategoryID", Width: 12, Value: func(p catalog.Part) any { return p.CategoryID }},
			{Header: "Category", Width: 20, Value: func(p catalog.Part) any { return p.CategoryName }, Searchable: true},
			{Header: "SupplierID", Width: 12, Value: func(p catalog.Part) any { return p.SupplierID }},
			{Header: "Supplier", Width: 20, Value: func(p catalog.Part) any { return p.SupplierName }, Searchable: true},
			{Header: "Price", Width: 15, Value: func(p catalog.Part) any { return p.UnitPrice }, Searchable: true},
		},
		NewDraft: func() catalog.PartRequest { return catalog.PartRequest{} },
		ToDraft:  catalog.Part.ToRequest,
		Labels: Labels{
			SheetName:    "Запчасти",
			FileName:     "parts.xlsx",
			Created:      "Запчасть успешно добавлена",
			Updated:      "Запчасть успешно обновлена",
			Deleted:      "Запчасть успешно удалена",
			SaveFailed:   "Произошла ошибка при сохранении запчасти",
			DeleteFailed: "Произошла ошибка при удалении запчасти",
			Referenced:   "Невозможно удалить запчасть, так как существуют связанные записи склада",
		},
	}
}

// CategoriesDefinition describes the categories page
func CategoriesDefinition() Definition[catalog.Category, catalog.CategoryRequest] {
	return Definition[catalog.Category, catalog.CategoryRequest]{
		Entity: catalog.EntityCategories,
		Columns: []Column[catalog.Category]{
			{Header: "ID", Width: 10, Value: func(c catalog.Category) any { return c.CategoryID }},
			{Header: "Name", Width: 30, Value: func(c catalog.Category) any { return c.Name }, Searchable: true},
			{Header: "Description", Width: 50, Value: func(c catalog.Category) any { return c.Description }, Searchable: true},
		},
		NewDraft: func() catalog.CategoryRequest { return catalog.CategoryRequest{} },
		ToDraft:  catalog.Category.ToRequest,
		Labels: Labels{
			SheetName:    "Категории",
			FileName:     "categories.xlsx",
			Created:      "Категория успешно добавлена",
			Updated:      "Категория успешно обновлена",
			Deleted:      "Категория успешно удалена",
			SaveFailed:   "Произошла ошибка при сохранении категории",
			DeleteFailed: "Произошла ошибка при удалении категории",
			Referenced:   "Невозможно удалить категорию, так как существуют связанные запчасти",
		},
	}
}

// SuppliersDefinition describes the suppliers page
func SuppliersDefinition() Definition[catalog.Supplier, catalog.SupplierRequest] {
	return Definition[catalog.Supplier, catalog.SupplierRequest]{
		Entity: catalog.EntitySuppliers,
		Columns: []Column[catalog.Supplier]{
			{Header: "ID", Width: 10, Value: func(s catalog.Supplier) any { return s.SupplierID }},
			{Header: "Name", Width: 30, Value: func(s catalog.Supplier) any { return s.Name }, Searchable: true},
			{Header: "ContactPerson", Width: 25, Value: func(s catalog.Supplier) any { return s.ContactPerson }, Searchable: true},
			{Header: "Phone", Width: 18, Value: func(s catalog.Supplier) any { return s.Phone }, Searchable: true},
			{Header: "Email", Width: 25, Value: func(s catalog.Supplier) any { return s.Email }, Searchable: true},
			{Header: "Address", Width: 40, Value: func(s catalog.Supplier) any { return s.Address }, Searchable: true},
		},
		NewDraft: func() catalog.SupplierRequest { return catalog.SupplierRequest{} },
		ToDraft:  catalog.Supplier.ToRequest,
		Labels: Labels{
			SheetName:    "Поставщики",
			FileName:     "suppliers.xlsx",
			Created:      "Поставщик успешно добавлен",
			Updated:      "Поставщик успешно обновлен",
			Deleted:      "Поставщик успешно удален",
			SaveFailed:   "Произошла ошибка при сохранении поставщика",
			DeleteFailed: "Произошла ошибка при удалении поставщика",
			Referenced:   "Невозможно удалить поставщика, так как существуют связанные запчасти",
		},
	}
}

// InventoryDefinition describes the stock page
func InventoryDefinition() Definition[catalog.InventoryRecord, catalog.InventoryRequest] {
	return Definition[catalog.InventoryRecord, catalog.InventoryRequest]{
		Entity: catalog.EntityInventory,
		Columns: []Column[catalog.InventoryRecord]{
			{Header: "ID", Width: 10, Value: func(r catalog.InventoryRecord) any { return r.InventoryID }},
			{Header: "PartID", Width: 10, Value: func(r catalog.InventoryRecord) any { return r.PartID }},
			{Header: "Part", Width: 30, Value: func(r catalog.InventoryRecord) any { return r.PartName }, Searchable: true},
			{Header: "Quantity", Width: 12, Value: func(r catalog.InventoryRecord) any { return r.QuantityInStock }, Searchable: true},
			{Header: "LastRestockDate", Width: 22, Value: func(r catalog.InventoryRecord) any { return lastRestock(r.LastRestockDate) }},
		},
		NewDraft: func() catalog.InventoryRequest { return catalog.InventoryRequest{} },
		ToDraft:  catalog.InventoryRecord.ToRequest,
		Labels: Labels{
			SheetName:    "Склад",
			FileName:     "inventory.xlsx",
			Created:      "Запись склада успешно добавлена",
			Updated:      "Запись склада успешно обновлена",
			Deleted:      "Запись склада успешно удалена",
			Adjusted:     "Количество успешно изменено",
			SaveFailed:   "Произошла ошибка при сохранении записи склада",
			DeleteFailed: "Произошла ошибка при удалении записи склада",
			Referenced:   "Невозможно удалить запись склада, так как на неё есть ссылки",
		},
	}
}
