package catalog

import (
	"context"
	"fmt"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/application/form"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/apiclient"
)

// Screen is the type-erased surface of a Page used by transports that pick the
// entity at runtime.
type Screen interface {
	Entity() catalog.Entity
	ListView(search string) any
	LoadView(ctx context.Context, search string) any
	Refetch() error
	DialogView() any
	OpenCreate() error
	OpenEdit(ctx context.Context, id int64) error
	OpenDelete(ctx context.Context, id int64) error
	OpenAdjust(ctx context.Context, id int64, direction catalog.AdjustDirection) error
	PatchDraft(patch []byte) (form.ValidationErrors, error)
	SetAdjustment(quantity int) (form.ValidationErrors, error)
	Submit(ctx context.Context) (Outcome, error)
	Close()
	Export(ctx context.Context, search string) (*Export, error)
}

// ListView implements Screen
func (p *Page[T, R]) ListView(search string) any {
	return p.List(search)
}

// LoadView implements Screen
func (p *Page[T, R]) LoadView(ctx context.Context, search string) any {
	return p.Load(ctx, search)
}

// DialogView implements Screen
func (p *Page[T, R]) DialogView() any {
	return p.Dialog()
}

// Pages holds the page of every entity
type Pages struct {
	Parts      *Page[catalog.Part, catalog.PartRequest]
	Categories *Page[catalog.Category, catalog.CategoryRequest]
	Suppliers  *Page[catalog.Supplier, catalog.SupplierRequest]
	Inventory  *Page[catalog.InventoryRecord, catalog.InventoryRequest]
}

// NewPages builds the four entity pages on top of the backend client
func NewPages(client *apiclient.Client, deps Deps) *Pages {
	inventory := client.Inventory()
	return &Pages{
		Parts:      NewPage(PartsDefinition(), EntityAPI[catalog.Part, catalog.PartRequest](client.Parts()), deps),
		Categories: NewPage(CategoriesDefinition(), EntityAPI[catalog.Category, catalog.CategoryRequest](client.Categories()), deps),
		Suppliers:  NewPage(SuppliersDefinition(), EntityAPI[catalog.Supplier, catalog.SupplierRequest](client.Suppliers()), deps),
		Inventory: NewPage(InventoryDefinition(), EntityAPI[catalog.InventoryRecord, catalog.InventoryRequest](inventory), deps,
			WithAdjuster[catalog.InventoryRecord, catalog.InventoryRequest](inventory)),
	}
}

// Screen returns the page of entity
func (ps *Pages) Screen(entity catalog.Entity) (Screen, error) {
	switch entity {
	case catalog.EntityParts:
		return ps.Parts, nil
	case catalog.EntityCategories:
		return ps.Categories, nil
	case catalog.EntitySuppliers:
		return ps.Suppliers, nil
	case catalog.EntityInventory:
		return ps.Inventory, nil
	}
	return nil, shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("unknown entity %q", entity))
}

var (
	_ Screen = (*Page[catalog.Part, catalog.PartRequest])(nil)
	_ Screen = (*Page[catalog.InventoryRecord, catalog.InventoryRequest])(nil)
)
