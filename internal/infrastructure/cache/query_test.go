package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, opts ...QueryClientOption) *QueryClient {
	t.Helper()
	opts = append([]QueryClientOption{WithRetry(0, 0), WithLogger(zaptest.NewLogger(t))}, opts...)
	qc := NewQueryClient(opts...)
	t.Cleanup(qc.Close)
	return qc
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

type recorder struct {
	mu    sync.Mutex
	snaps []Result[int]
}

func (r *recorder) record(res Result[int]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, res)
}

func (r *recorder) all() []Result[int] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result[int](nil), r.snaps...)
}

func TestQueryClient_ReadThrough(t *testing.T) {
	qc := newTestClient(t)
	gate := make(chan struct{})
	var calls atomic.Int32
	q := Register(qc, "parts", func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-gate
		return 42, nil
	})

	first := q.Get()
	assert.True(t, first.IsLoading)
	assert.True(t, first.IsFetching)
	assert.False(t, first.HasData)

	// a second read while pending does not start another fetch
	q.Get()
	close(gate)
	require.NoError(t, q.Wait(waitCtx(t)))

	res := q.Get()
	assert.False(t, res.IsLoading)
	assert.False(t, res.IsFetching)
	assert.True(t, res.HasData)
	assert.Equal(t, 42, res.Data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQueryClient_UnknownKey(t *testing.T) {
	qc := newTestClient(t)
	assert.ErrorIs(t, qc.Get("nope").Err, ErrUnknownKey)
	assert.ErrorIs(t, qc.Refetch("nope"), ErrUnknownKey)
	_, err := qc.Subscribe("nope", func(Snapshot) {})
	assert.ErrorIs(t, err, ErrUnknownKey)
	qc.Invalidate("nope")
}

func TestQueryClient_RetryThenSurfaceError(t *testing.T) {
	qc := newTestClient(t, WithRetry(2, 0))
	var calls atomic.Int32
	boom := errors.New("backend down")
	q := Register(qc, "suppliers", func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, boom
	})

	res := q.Load(waitCtx(t))
	assert.ErrorIs(t, res.Err, boom)
	assert.False(t, res.IsLoading)
	assert.Equal(t, int32(3), calls.Load())

	// errors are not refetched implicitly
	q.Get()
	require.NoError(t, q.Wait(waitCtx(t)))
	assert.Equal(t, int32(3), calls.Load())

	require.NoError(t, q.Refetch())
	require.NoError(t, q.Wait(waitCtx(t)))
	assert.Equal(t, int32(6), calls.Load())
}

func TestQueryClient_ErrorKeepsLastData(t *testing.T) {
	qc := newTestClient(t)
	var fail atomic.Bool
	q := Register(qc, "categories", func(ctx context.Context) (int, error) {
		if fail.Load() {
			return 0, errors.New("timeout")
		}
		return 7, nil
	})
	require.Equal(t, 7, q.Load(waitCtx(t)).Data)

	fail.Store(true)
	q.Invalidate()
	require.NoError(t, q.Wait(waitCtx(t)))

	res := q.Peek()
	assert.Error(t, res.Err)
	assert.True(t, res.HasData)
	assert.Equal(t, 7, res.Data)
}

func TestQueryClient_DoubleInvalidateSingleRefresh(t *testing.T) {
	qc := newTestClient(t)
	release := make(chan struct{})
	var calls atomic.Int32
	q := Register(qc, "inventory", func(ctx context.Context) (int, error) {
		n := calls.Add(1)
		if n == 1 {
			return 1, nil
		}
		select {
		case <-release:
			return int(n), nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
	require.Equal(t, 1, q.Load(waitCtx(t)).Data)

	rec := &recorder{}
	unsubscribe, err := q.Subscribe(rec.record)
	require.NoError(t, err)
	defer unsubscribe()

	q.Invalidate()
	q.Invalidate()
	close(release)
	require.NoError(t, q.Wait(waitCtx(t)))

	snaps := rec.all()
	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].IsFetching)
	assert.Equal(t, 1, snaps[0].Data)
	assert.False(t, snaps[1].IsFetching)
	assert.NoError(t, snaps[1].Err)
	assert.Greater(t, snaps[1].Data, 1)
	assert.Greater(t, snaps[1].Version, snaps[0].Version)
}

func TestQueryClient_SupersededFetchDiscarded(t *testing.T) {
	qc := newTestClient(t)
	var mu sync.Mutex
	stock := 10
	gate := make(chan struct{})
	read := make(chan struct{}, 1)
	var calls atomic.Int32
	q := Register(qc, "inventory", func(ctx context.Context) (int, error) {
		mu.Lock()
		v := stock
		mu.Unlock()
		if calls.Add(1) == 1 {
			read <- struct{}{}
			<-gate
		}
		return v, nil
	})

	rec := &recorder{}
	unsubscribe, err := q.Subscribe(rec.record)
	require.NoError(t, err)
	defer unsubscribe()

	q.Get()
	<-read

	// add 5 units while the pre-mutation fetch is still in flight
	mu.Lock()
	stock += 5
	mu.Unlock()
	q.Invalidate()
	require.NoError(t, q.Wait(waitCtx(t)))
	assert.Equal(t, 15, q.Peek().Data)

	close(gate)
	assert.Never(t, func() bool { return q.Peek().Data != 15 }, 50*time.Millisecond, 5*time.Millisecond)

	for _, s := range rec.all() {
		if s.HasData {
			assert.Equal(t, 15, s.Data)
		}
	}
}

func TestQueryClient_InvalidatePrefix(t *testing.T) {
	qc := newTestClient(t)
	var overall, lowStock, parts atomic.Int32
	count := func(c *atomic.Int32) func(context.Context) (int, error) {
		return func(context.Context) (int, error) { return int(c.Add(1)), nil }
	}
	qs := []*Query[int]{
		Register(qc, "metrics-overall", count(&overall)),
		Register(qc, "metrics-low-stock", count(&lowStock)),
		Register(qc, "parts", count(&parts)),
	}
	for _, q := range qs {
		q.Load(waitCtx(t))
	}

	qc.InvalidatePrefix(MetricsKeyPrefix)
	for _, q := range qs {
		require.NoError(t, q.Wait(waitCtx(t)))
	}

	assert.Equal(t, int32(2), overall.Load())
	assert.Equal(t, int32(2), lowStock.Load())
	assert.Equal(t, int32(1), parts.Load())
}

func TestQueryClient_TypeMismatch(t *testing.T) {
	qc := newTestClient(t)
	qc.Register("parts", func(context.Context) (any, error) { return "text", nil })
	require.NoError(t, qc.Wait(waitCtx(t), "parts"))
	qc.Get("parts")
	require.NoError(t, qc.Wait(waitCtx(t), "parts"))

	q := &Query[int]{qc: qc, key: "parts"}
	assert.Error(t, q.Peek().Err)
}

func TestCombine(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")

	assert.Equal(t, Status{}, Combine())
	assert.Equal(t, Status{IsLoading: true, Err: errA}, Combine(
		Status{},
		Status{Err: errA},
		Status{IsLoading: true, Err: errB},
	))
}
