package cache

import (
	"context"
	"fmt"
	"time"
)

// Result is a Snapshot with typed data
type Result[T any] struct {
	Data       T
	HasData    bool
	IsLoading  bool
	IsFetching bool
	Err        error
	UpdatedAt  time.Time
	Version    uint64
}

// Status returns the loading/error part of r
func (r Result[T]) Status() Status {
	return Status{IsLoading: r.IsLoading, Err: r.Err}
}

// Query is a typed handle on one key of a QueryClient
type Query[T any] struct {
	qc  *QueryClient
	key Key
}

// Register binds a typed fetcher to key and returns its handle
func Register[T any](qc *QueryClient, key Key, fetch func(ctx context.Context) (T, error)) *Query[T] {
	qc.Register(key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	return &Query[T]{qc: qc, key: key}
}

// Key returns the cache key
func (q *Query[T]) Key() Key {
	return q.key
}

// Get returns the current value, starting a fetch if needed
func (q *Query[T]) Get() Result[T] {
	return convert[T](q.qc.Get(q.key))
}

// Peek returns the current value without fetching
func (q *Query[T]) Peek() Result[T] {
	return convert[T](q.qc.Peek(q.key))
}

// Refetch starts a fetch unless one is in flight
func (q *Query[T]) Refetch() error {
	return q.qc.Refetch(q.key)
}

// Invalidate marks the key stale and refetches it
func (q *Query[T]) Invalidate() {
	q.qc.Invalidate(q.key)
}

// Wait blocks until the key has no fetch in flight
func (q *Query[T]) Wait(ctx context.Context) error {
	return q.qc.Wait(ctx, q.key)
}

// Load fetches if needed, waits for the fetch to settle and returns the result
func (q *Query[T]) Load(ctx context.Context) Result[T] {
	q.qc.Get(q.key)
	if err := q.Wait(ctx); err != nil {
		r := q.Peek()
		r.Err = err
		return r
	}
	return q.Peek()
}

// Subscribe calls fn after every observable change of the key
func (q *Query[T]) Subscribe(fn func(Result[T])) (func(), error) {
	return q.qc.Subscribe(q.key, func(s Snapshot) {
		fn(convert[T](s))
	})
}

func convert[T any](s Snapshot) Result[T] {
	r := Result[T]{
		HasData:    s.HasData,
		IsLoading:  s.IsLoading,
		IsFetching: s.IsFetching,
		Err:        s.Err,
		UpdatedAt:  s.UpdatedAt,
		Version:    s.Version,
	}
	if s.HasData {
		data, ok := s.Data.(T)
		if !ok && s.Data != nil {
			r.Err = fmt.Errorf("cache: unexpected data type %T", s.Data)
			return r
		}
		r.Data = data
	}
	return r
}
