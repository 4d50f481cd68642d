package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
)

// EntityClient wraps the list/count/create/update/delete endpoints of one collection.
// T is the record the backend returns, R the request body it accepts.
type EntityClient[T catalog.Record, R any] struct {
	c      *Client
	entity catalog.Entity
}

// NewEntityClient creates a client for the given collection
func NewEntityClient[T catalog.Record, R any](c *Client, entity catalog.Entity) *EntityClient[T, R] {
	return &EntityClient[T, R]{c: c, entity: entity}
}

// Entity returns the collection this client talks to
func (e *EntityClient[T, R]) Entity() catalog.Entity {
	return e.entity
}

func (e *EntityClient[T, R]) path(parts ...string) string {
	return "/" + strings.Join(append([]string{string(e.entity)}, parts...), "/")
}

// List returns every record of the collection
func (e *EntityClient[T, R]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := e.c.Get(ctx, e.path(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get returns a single record
func (e *EntityClient[T, R]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := e.c.Get(ctx, e.path(strconv.FormatInt(id, 10)), nil, &out)
	return out, err
}

// Count returns the number of records
func (e *EntityClient[T, R]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := e.c.Get(ctx, e.path("count"), nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Create posts a new record
func (e *EntityClient[T, R]) Create(ctx context.Context, req R) (T, error) {
	var out T
	err := e.c.Post(ctx, e.path(), nil, req, &out)
	return out, err
}

// Update replaces the record with the given id
func (e *EntityClient[T, R]) Update(ctx context.Context, id int64, req R) (T, error) {
	var out T
	err := e.c.Put(ctx, e.path(strconv.FormatInt(id, 10)), req, &out)
	return out, err
}

// Delete removes the record with the given id
func (e *EntityClient[T, R]) Delete(ctx context.Context, id int64) error {
	return e.c.Delete(ctx, e.path(strconv.FormatInt(id, 10)))
}

// InventoryClient adds the stock adjustment endpoints to the inventory collection
type InventoryClient struct {
	*EntityClient[catalog.InventoryRecord, catalog.InventoryRequest]
}

// Adjust adds or removes quantity units from an inventory record
func (i *InventoryClient) Adjust(ctx context.Context, id int64, direction catalog.AdjustDirection, quantity int) (catalog.InventoryRecord, error) {
	var out catalog.InventoryRecord
	if direction != catalog.AdjustAdd && direction != catalog.AdjustRemove {
		return out, fmt.Errorf("unknown adjust direction %q", direction)
	}
	query := url.Values{"quantity": []string{strconv.Itoa(quantity)}}
	err := i.c.Post(ctx, i.path(strconv.FormatInt(id, 10), string(direction)), query, nil, &out)
	return out, err
}

// Parts returns the parts collection client
func (c *Client) Parts() *EntityClient[catalog.Part, catalog.PartRequest] {
	return NewEntityClient[catalog.Part, catalog.PartRequest](c, catalog.EntityParts)
}

// Categories returns the categories collection client
func (c *Client) Categories() *EntityClient[catalog.Category, catalog.CategoryRequest] {
	return NewEntityClient[catalog.Category, catalog.CategoryRequest](c, catalog.EntityCategories)
}

// Suppliers returns the suppliers collection client
func (c *Client) Suppliers() *EntityClient[catalog.Supplier, catalog.SupplierRequest] {
	return NewEntityClient[catalog.Supplier, catalog.SupplierRequest](c, catalog.EntitySuppliers)
}

// Inventory returns the inventory collection client
func (c *Client) Inventory() *InventoryClient {
	return &InventoryClient{
		EntityClient: NewEntityClient[catalog.InventoryRecord, catalog.InventoryRequest](c, catalog.EntityInventory),
	}
}
