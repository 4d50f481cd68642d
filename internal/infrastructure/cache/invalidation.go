package cache

import (
	"context"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
)

// KeysFor returns the collection keys a change of entity makes stale: the collection
// itself and the collections embedding its data. Metrics keys are handled by prefix.
func KeysFor(entity catalog.Entity) []Key {
	keys := []Key{EntityKey(entity)}
	for _, dep := range entity.Dependents() {
		keys = append(keys, EntityKey(dep))
	}
	return keys
}

// InvalidationHandler refreshes the cache when a collection changed
type InvalidationHandler struct {
	qc *QueryClient
}

// NewInvalidationHandler creates the handler; subscribe it to
// catalog.EventTypeCollectionChanged.
func NewInvalidationHandler(qc *QueryClient) *InvalidationHandler {
	return &InvalidationHandler{qc: qc}
}

// Handle implements shared.EventHandler
func (h *InvalidationHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	ev, ok := event.(*catalog.CollectionChangedEvent)
	if !ok {
		return nil
	}
	h.qc.Invalidate(KeysFor(ev.Entity)...)
	h.qc.InvalidatePrefix(MetricsKeyPrefix)
	return nil
}

var _ shared.EventHandler = (*InvalidationHandler)(nil)
