package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/cache"
)

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) Overall(ctx context.Context) (catalog.OverallMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(catalog.OverallMetrics), args.Error(1)
}

func (m *mockMetrics) InventoryOverview(ctx context.Context) (catalog.InventoryOverview, error) {
	args := m.Called(ctx)
	return args.Get(0).(catalog.InventoryOverview), args.Error(1)
}

func (m *mockMetrics) StockDistribution(ctx context.Context, t catalog.Thresholds) ([]catalog.StockLevelCount, error) {
	args := m.Called(ctx, t)
	return args.Get(0).([]catalog.StockLevelCount), args.Error(1)
}

func (m *mockMetrics) CategoryStats(ctx context.Context) ([]catalog.CategoryStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.CategoryStat), args.Error(1)
}

func (m *mockMetrics) SupplierStats(ctx context.Context) ([]catalog.SupplierStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.SupplierStat), args.Error(1)
}

func (m *mockMetrics) LowStock(ctx context.Context, threshold int) ([]catalog.LowStockItem, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]catalog.LowStockItem), args.Error(1)
}

type fakeThresholds struct {
	mu  sync.Mutex
	t   catalog.Thresholds
	fns []func(catalog.Thresholds)
}

func (f *fakeThresholds) Thresholds(context.Context) (catalog.Thresholds, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t, nil
}

func (f *fakeThresholds) SubscribeThresholds(fn func(catalog.Thresholds)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns = append(f.fns, fn)
	return func() {}
}

func (f *fakeThresholds) set(t catalog.Thresholds) {
	f.mu.Lock()
	f.t = t
	fns := append([]func(catalog.Thresholds){}, f.fns...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(t)
	}
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func stubAll(m *mockMetrics) {
	m.On("Overall", mock.Anything).Return(catalog.OverallMetrics{TotalParts: 12, TotalValue: decimal.NewFromInt(5400)}, nil)
	m.On("InventoryOverview", mock.Anything).Return(catalog.InventoryOverview{TotalQuantity: 340, UniqueParts: 12}, nil)
	m.On("SupplierStats", mock.Anything).Return([]catalog.SupplierStat{{SupplierName: "Бош", PartCount: 7}}, nil)
	m.On("LowStock", mock.Anything, mock.Anything).Return([]catalog.LowStockItem{{PartName: "Колодки", Quantity: 2}}, nil)
}

func TestDashboard_LoadUsesStoredThresholds(t *testing.T) {
	m := &mockMetrics{}
	stubAll(m)
	m.On("CategoryStats", mock.Anything).Return([]catalog.CategoryStat{{CategoryName: "Тормоза", PartCount: 5}}, nil)
	m.On("StockDistribution", mock.Anything, catalog.Thresholds{Low: 5, Medium: 20}).
		Return([]catalog.StockLevelCount{{StockLevel: "LOW", Count: 3}}, nil)

	src := &fakeThresholds{t: catalog.Thresholds{Low: 5, Medium: 20}}
	d := New(cache.NewQueryClient(cache.WithRetry(0, 0)), m, src)
	defer d.Close()

	v := d.Load(ctxT(t))
	assert.False(t, v.IsLoading)
	assert.Empty(t, v.Error)
	assert.Equal(t, int64(12), v.Overall.Data.TotalParts)
	assert.Equal(t, int64(340), v.InventoryOverview.Data.TotalQuantity)
	require.Len(t, v.StockDistribution.Data, 1)
	assert.Equal(t, catalog.Thresholds{Low: 5, Medium: 20}, v.Thresholds)
	m.AssertCalled(t, "LowStock", mock.Anything, 5)
}

func TestDashboard_FailingGroupKeepsOthers(t *testing.T) {
	m := &mockMetrics{}
	stubAll(m)
	m.On("CategoryStats", mock.Anything).Return([]catalog.CategoryStat(nil), errors.New("timeout"))
	m.On("StockDistribution", mock.Anything, mock.Anything).Return([]catalog.StockLevelCount{}, nil)

	d := New(cache.NewQueryClient(cache.WithRetry(0, 0)), m, &fakeThresholds{t: catalog.DefaultThresholds()})
	v := d.Load(ctxT(t))

	assert.Equal(t, ErrTextCategoryStats, v.CategoryStats.Error)
	assert.Equal(t, ErrTextCategoryStats, v.Error)
	assert.True(t, v.SupplierStats.HasData)
	assert.Empty(t, v.SupplierStats.Error)
	assert.Equal(t, int64(12), v.Overall.Data.TotalParts)
}

func TestDashboard_ThresholdChangeRefetchesDistribution(t *testing.T) {
	m := &mockMetrics{}
	stubAll(m)
	m.On("CategoryStats", mock.Anything).Return([]catalog.CategoryStat{}, nil)
	m.On("StockDistribution", mock.Anything, catalog.DefaultThresholds()).
		Return([]catalog.StockLevelCount{{StockLevel: "LOW", Count: 1}}, nil)
	m.On("StockDistribution", mock.Anything, catalog.Thresholds{Low: 2, Medium: 8}).
		Return([]catalog.StockLevelCount{{StockLevel: "LOW", Count: 9}}, nil)

	src := &fakeThresholds{t: catalog.DefaultThresholds()}
	qc := cache.NewQueryClient(cache.WithRetry(0, 0))
	d := New(qc, m, src)

	v := d.Load(ctxT(t))
	require.Len(t, v.StockDistribution.Data, 1)
	assert.Equal(t, int64(1), v.StockDistribution.Data[0].Count)

	src.set(catalog.Thresholds{Low: 2, Medium: 8})
	require.NoError(t, qc.Wait(ctxT(t), KeyStockDistribution))

	v = d.Load(ctxT(t))
	assert.Equal(t, int64(9), v.StockDistribution.Data[0].Count)
	assert.Equal(t, catalog.Thresholds{Low: 2, Medium: 8}, v.Thresholds)
	m.AssertNumberOfCalls(t, "Overall", 1)
}

func TestDashboard_CollectionChangeRefreshesMetrics(t *testing.T) {
	m := &mockMetrics{}
	stubAll(m)
	m.On("CategoryStats", mock.Anything).Return([]catalog.CategoryStat{}, nil)
	m.On("StockDistribution", mock.Anything, mock.Anything).Return([]catalog.StockLevelCount{}, nil)

	qc := cache.NewQueryClient(cache.WithRetry(0, 0))
	d := New(qc, m, nil)
	d.Load(ctxT(t))

	h := cache.NewInvalidationHandler(qc)
	require.NoError(t, h.Handle(context.Background(),
		catalog.NewCollectionChangedEvent(catalog.EntityInventory, catalog.ActionAdjusted, 7)))
	d.Load(ctxT(t))

	m.AssertNumberOfCalls(t, "Overall", 2)
	m.AssertNumberOfCalls(t, "LowStock", 2)
	m.AssertCalled(t, "LowStock", mock.Anything, catalog.DefaultLowStockThreshold)

	d.Refresh()
	d.Load(ctxT(t))
	m.AssertNumberOfCalls(t, "SupplierStats", 3)
}
