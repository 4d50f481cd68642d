// Package cache implements the read-through, invalidate-on-write query cache that
// mirrors backend collections, plus the Redis relay that spreads invalidations
// between dashboard instances.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
)

// Key identifies one cached collection or metric group
type Key string

// MetricsKeyPrefix prefixes every dashboard metric key
const MetricsKeyPrefix = "metrics-"

// EntityKey returns the cache key of an entity collection
func EntityKey(e catalog.Entity) Key {
	return Key(e)
}

// ErrUnknownKey is reported for keys nobody registered a fetcher for
var ErrUnknownKey = errors.New("unknown cache key")

// Fetcher loads the current server state of a key
type Fetcher func(ctx context.Context) (any, error)

// Snapshot is the observable state of one key
type Snapshot struct {
	Data    any
	HasData bool
	// IsLoading is true while the first fetch is pending and no data ever arrived
	IsLoading bool
	// IsFetching is true while any fetch, including a background refetch, is pending
	IsFetching bool
	Err        error
	UpdatedAt  time.Time
	// Version increases with every observable change of the key
	Version uint64
}

// Status is the loading/error part of a snapshot
type Status struct {
	IsLoading bool
	Err       error
}

// Status returns the loading/error part of s
func (s Snapshot) Status() Status {
	return Status{IsLoading: s.IsLoading, Err: s.Err}
}

// Combine aggregates the status of several keys a page depends on:
// loading when any is loading, error is the first error in argument order.
func Combine(statuses ...Status) Status {
	var out Status
	for _, s := range statuses {
		out.IsLoading = out.IsLoading || s.IsLoading
		if out.Err == nil && s.Err != nil {
			out.Err = s.Err
		}
	}
	return out
}

type entry struct {
	fetcher Fetcher
	snap    Snapshot
	stale   bool
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	subs    map[uint64]func(Snapshot)
}

// QueryClient holds the last fetched value per key
type QueryClient struct {
	mu         sync.Mutex
	entries    map[Key]*entry
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
	now        func() time.Time
	baseCtx    context.Context
	stop       context.CancelFunc
	nextSubID  uint64
}

// QueryClientOption configures a QueryClient
type QueryClientOption func(*QueryClient)

// WithRetry sets how many times a failed fetch is retried and the pause between attempts
func WithRetry(count int, delay time.Duration) QueryClientOption {
	return func(c *QueryClient) {
		if count >= 0 {
			c.retryCount = count
		}
		c.retryDelay = delay
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) QueryClientOption {
	return func(c *QueryClient) {
		c.logger = logger
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) QueryClientOption {
	return func(c *QueryClient) {
		c.now = now
	}
}

// NewQueryClient creates an empty cache. Fetches retry 3 times by default.
func NewQueryClient(opts ...QueryClientOption) *QueryClient {
	ctx, stop := context.WithCancel(context.Background())
	c := &QueryClient{
		entries:    make(map[Key]*entry),
		retryCount: 3,
		retryDelay: time.Second,
		logger:     zap.NewNop(),
		now:        time.Now,
		baseCtx:    ctx,
		stop:       stop,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register binds a fetcher to key. Re-registering replaces the fetcher and marks
// the cached value stale; the next Get refetches.
func (c *QueryClient) Register(key Key, fetcher Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.fetcher = fetcher
		e.stale = true
		return
	}
	c.entries[key] = &entry{
		fetcher: fetcher,
		stale:   true,
		subs:    make(map[uint64]func(Snapshot)),
	}
}

// Registered reports whether key has a fetcher
func (c *QueryClient) Registered(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Keys returns the registered keys in lexical order
func (c *QueryClient) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Get returns the current snapshot and starts a fetch when the key holds no fresh
// value and nothing is in flight. Errors do not trigger a new fetch; call Refetch.
func (c *QueryClient) Get(key Key) Snapshot {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return Snapshot{Err: fmt.Errorf("%w: %s", ErrUnknownKey, key)}
	}
	var notify func()
	if e.stale && e.cancel == nil && e.snap.Err == nil {
		notify = c.startFetchLocked(key, e)
	}
	snap := e.snap
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
	return snap
}

// Peek returns the current snapshot without triggering any fetch
func (c *QueryClient) Peek(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Err: fmt.Errorf("%w: %s", ErrUnknownKey, key)}
	}
	return e.snap
}

// Refetch starts a fetch unless one is already in flight for key
func (c *QueryClient) Refetch(key Key) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	var notify func()
	if e.cancel == nil {
		notify = c.startFetchLocked(key, e)
	}
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

// Invalidate marks keys stale and refetches them in the background. A fetch already
// in flight is superseded, so its response can no longer publish pre-mutation data;
// invalidating the same key repeatedly yields a single visible refresh. Unknown keys
// are ignored.
func (c *QueryClient) Invalidate(keys ...Key) {
	var notifies []func()
	c.mu.Lock()
	for _, key := range keys {
		e, ok := c.entries[key]
		if !ok {
			continue
		}
		e.stale = true
		if n := c.startFetchLocked(key, e); n != nil {
			notifies = append(notifies, n)
		}
	}
	c.mu.Unlock()

	for _, n := range notifies {
		n()
	}
	if len(keys) > 0 {
		c.logger.Debug("cache keys invalidated", zap.Strings("keys", keyStrings(keys)))
	}
}

// InvalidatePrefix invalidates every registered key starting with prefix
func (c *QueryClient) InvalidatePrefix(prefix string) {
	var keys []Key
	for _, k := range c.Keys() {
		if strings.HasPrefix(string(k), prefix) {
			keys = append(keys, k)
		}
	}
	c.Invalidate(keys...)
}

// Wait blocks until no fetch is in flight for key. Listeners of the final change
// have run when it returns, so a listener must not call Wait itself.
func (c *QueryClient) Wait(ctx context.Context, key Key) error {
	for {
		c.mu.Lock()
		e, ok := c.entries[key]
		if !ok {
			c.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		done := e.done
		c.mu.Unlock()

		if done == nil {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Subscribe calls fn after every observable change of key. Listeners run outside
// the cache lock and may observe snapshots out of order; compare Version to drop
// older ones.
func (c *QueryClient) Subscribe(key Key, fn func(Snapshot)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	c.nextSubID++
	id := c.nextSubID
	e.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(e.subs, id)
	}, nil
}

// Close cancels every in-flight fetch
func (c *QueryClient) Close() {
	c.stop()
}

// startFetchLocked supersedes any in-flight fetch of e with a new generation.
// It returns the listener notification to run once the lock is released, or nil
// when the change is not observable (a fetch was already pending).
func (c *QueryClient) startFetchLocked(key Key, e *entry) func() {
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	gen := e.gen
	ctx, cancel := context.WithCancel(c.baseCtx)
	e.cancel = cancel
	if e.done == nil {
		e.done = make(chan struct{})
	}

	go c.run(ctx, key, e, gen, e.fetcher)

	if e.snap.IsFetching {
		return nil
	}
	e.snap.IsFetching = true
	e.snap.IsLoading = !e.snap.HasData
	e.snap.Err = nil
	e.snap.Version++
	return c.notifier(e)
}

func (c *QueryClient) run(ctx context.Context, key Key, e *entry, gen uint64, fetcher Fetcher) {
	data, err := c.fetchWithRetry(ctx, key, fetcher)

	c.mu.Lock()
	if gen != e.gen {
		// superseded by a later invalidation
		c.mu.Unlock()
		return
	}
	e.cancel()
	e.cancel = nil
	e.snap.IsFetching = false
	e.snap.IsLoading = false
	if err != nil {
		e.snap.Err = err
	} else {
		e.snap.Data = data
		e.snap.HasData = true
		e.snap.Err = nil
		e.snap.UpdatedAt = c.now()
		e.stale = false
	}
	e.snap.Version++
	done := e.done
	e.done = nil
	notify := c.notifier(e)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("cache fetch failed", zap.String("key", string(key)), zap.Error(err))
	}
	notify()
	close(done)
}

func (c *QueryClient) fetchWithRetry(ctx context.Context, key Key, fetcher Fetcher) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
			c.logger.Debug("retrying cache fetch",
				zap.String("key", string(key)),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
		}
		data, err := fetcher(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *QueryClient) notifier(e *entry) func() {
	snap := e.snap
	subs := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(snap)
		}
	}
}

func keyStrings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
