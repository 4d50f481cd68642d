package event

import (
	"sync"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/shared"
)

type registration struct {
	id      uint64
	handler shared.EventHandler
}

// HandlerRegistry manages event handler registrations. Handlers are tracked by
// registration id so function adapters, which are not comparable, can be removed.
type HandlerRegistry struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]registration // eventType -> handlers
	wildcard []registration
}

// NewHandlerRegistry creates a new handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string][]registration),
	}
}

// Register adds a handler for specific event types and returns its registration id.
// If no event types are provided, the handler receives all events.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	reg := registration{id: r.nextID, handler: handler}
	if len(eventTypes) == 0 {
		r.wildcard = append(r.wildcard, reg)
		return reg.id
	}
	for _, eventType := range eventTypes {
		r.handlers[eventType] = append(r.handlers[eventType], reg)
	}
	return reg.id
}

// Unregister removes a registration from all event types
func (r *HandlerRegistry) Unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = without(r.wildcard, id)
	for eventType, regs := range r.handlers {
		r.handlers[eventType] = without(regs, id)
		if len(r.handlers[eventType]) == 0 {
			delete(r.handlers, eventType)
		}
	}
}

// GetHandlers returns type-specific handlers followed by wildcard handlers
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.handlers[eventType]
	result := make([]shared.EventHandler, 0, len(typed)+len(r.wildcard))
	for _, reg := range typed {
		result = append(result, reg.handler)
	}
	for _, reg := range r.wildcard {
		result = append(result, reg.handler)
	}
	return result
}

// Len returns the number of distinct registrations
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uint64]struct{})
	for _, regs := range r.handlers {
		for _, reg := range regs {
			seen[reg.id] = struct{}{}
		}
	}
	for _, reg := range r.wildcard {
		seen[reg.id] = struct{}{}
	}
	return len(seen)
}

func without(regs []registration, id uint64) []registration {
	out := regs[:0]
	for _, reg := range regs {
		if reg.id != id {
			out = append(out, reg)
		}
	}
	return out
}
