// Package catalog holds the records the dashboard mirrors from the inventory backend:
// parts, categories, suppliers and stock levels, plus the aggregate metrics shapes.
package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Entity names one of the remotely managed collections. The value doubles as the REST path
// segment and as the cache key of the collection.
type Entity string

const (
	EntityParts      Entity = "parts"
	EntityCategories Entity = "categories"
	EntitySuppliers  Entity = "suppliers"
	EntityInventory  Entity = "inventory"
)

// Entities returns every managed entity in dependency order (referenced collections first).
func Entities() []Entity {
	return []Entity{EntityCategories, EntitySuppliers, EntityParts, EntityInventory}
}

// ParseEntity converts a path segment into an Entity
func ParseEntity(s string) (Entity, error) {
	for _, e := range Entities() {
		if string(e) == strings.ToLower(strings.TrimSpace(s)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity %q", s)
}

// String returns the entity name
func (e Entity) String() string {
	return string(e)
}

// Dependents lists the collections whose rows embed data of e (parts carry category and
// supplier names, inventory rows carry part names) and go stale when e changes.
func (e Entity) Dependents() []Entity {
	switch e {
	case EntityCategories, EntitySuppliers:
		return []Entity{EntityParts}
	case EntityParts:
		return []Entity{EntityInventory}
	}
	return nil
}

// Record is implemented by every entity returned from the backend
type Record interface {
	RecordID() int64
	DisplayName() string
}

// timestampLayouts lists the layouts the backend is known to emit for date-times.
// LocalDateTime values carry no zone and are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a time.Time that accepts the zone-less layouts produced by the backend
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s using the known backend layouts
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format("2006-01-02T15:04:05") + `"`), nil
}
