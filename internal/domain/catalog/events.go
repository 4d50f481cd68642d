package catalog

import (
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
)

// EventTypeCollectionChanged is published after any successful mutation of a collection
const EventTypeCollectionChanged = "catalog.collection_changed"

// ChangeAction describes the mutation that changed a collection
type ChangeAction string

const (
	ActionCreated  ChangeAction = "created"
	ActionUpdated  ChangeAction = "updated"
	ActionDeleted  ChangeAction = "deleted"
	ActionAdjusted ChangeAction = "adjusted"
	ActionImported ChangeAction = "imported"
)

// CollectionChangedEvent tells subscribers that the server state of a collection moved
type CollectionChangedEvent struct {
	shared.BaseDomainEvent
	Entity   Entity       `json:"entity"`
	Action   ChangeAction `json:"action"`
	RecordID int64        `json:"record_id,omitempty"`
	Count    int          `json:"count,omitempty"`
	// Remote is set on changes received from another dashboard instance
	Remote bool `json:"-"`
}

// NewCollectionChangedEvent creates the event for one mutated record
func NewCollectionChangedEvent(entity Entity, action ChangeAction, recordID int64) *CollectionChangedEvent {
	return &CollectionChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCollectionChanged),
		Entity:          entity,
		Action:          action,
		RecordID:        recordID,
	}
}
