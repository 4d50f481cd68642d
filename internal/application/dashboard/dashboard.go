// Package dashboard aggregates the backend metrics shown on the home screen. Every
// metric group is its own cache key so one failing group does not blank the others.
package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
	"github.com/Fiarr4ikDev/DiplomForXenon/internal/infrastructure/cache"
)

// Cache keys of the metric groups
const (
	KeyOverall           cache.Key = cache.MetricsKeyPrefix + "overall"
	KeyInventoryOverview cache.Key = cache.MetricsKeyPrefix + "inventory-overview"
	KeyStockDistribution cache.Key = cache.MetricsKeyPrefix + "stock-distribution"
	KeyCategoryStats     cache.Key = cache.MetricsKeyPrefix + "category-stats"
	KeySupplierStats     cache.Key = cache.MetricsKeyPrefix + "supplier-stats"
	KeyLowStock          cache.Key = cache.MetricsKeyPrefix + "low-stock"
)

// Per-section error texts
const (
	ErrTextOverall           = "Ошибка при загрузке общей статистики"
	ErrTextInventoryOverview = "Ошибка при загрузке статистики инвентаря"
	ErrTextStockDistribution = "Ошибка при загрузке распределения запасов"
	ErrTextCategoryStats     = "Ошибка при загрузке статистики по категориям"
	ErrTextSupplierStats     = "Ошибка при загрузке статистики по поставщикам"
	ErrTextLowStock          = "Ошибка при загрузке деталей с низким запасом"
)

// MetricsAPI is the backend metrics surface
type MetricsAPI interface {
	Overall(ctx context.Context) (catalog.OverallMetrics, error)
	InventoryOverview(ctx context.Context) (catalog.InventoryOverview, error)
	StockDistribution(ctx context.Context, t catalog.Thresholds) ([]catalog.StockLevelCount, error)
	CategoryStats(ctx context.Context) ([]catalog.CategoryStat, error)
	SupplierStats(ctx context.Context) ([]catalog.SupplierStat, error)
	LowStock(ctx context.Context, threshold int) ([]catalog.LowStockItem, error)
}

// ThresholdSource provides the user's stock thresholds
type ThresholdSource interface {
	Thresholds(ctx context.Context) (catalog.Thresholds, error)
	SubscribeThresholds(fn func(catalog.Thresholds)) func()
}

// Section is one metric group as rendered
type Section[T any] struct {
	Data      T      `json:"data"`
	HasData   bool   `json:"hasData"`
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
}

// View is the whole dashboard. IsLoading stays true until every group resolved
// once; Error is the first failing group's text.
type View struct {
	Overall           Section[catalog.OverallMetrics]    `json:"overall"`
	InventoryOverview Section[catalog.InventoryOverview] `json:"inventoryOverview"`
	StockDistribution Section[[]catalog.StockLevelCount] `json:"stockDistribution"`
	CategoryStats     Section[[]catalog.CategoryStat]    `json:"categoryStats"`
	SupplierStats     Section[[]catalog.SupplierStat]    `json:"supplierStats"`
	LowStock          Section[[]catalog.LowStockItem]    `json:"lowStock"`
	Thresholds        catalog.Thresholds                 `json:"thresholds"`
	IsLoading         bool                               `json:"isLoading"`
	Error             string                             `json:"error,omitempty"`
}

// Dashboard owns the metric queries
type Dashboard struct {
	qc         *cache.QueryClient
	thresholds ThresholdSource
	logger     *zap.Logger

	overall      *cache.Query[catalog.OverallMetrics]
	inventory    *cache.Query[catalog.InventoryOverview]
	distribution *cache.Query[[]catalog.StockLevelCount]
	categories   *cache.Query[[]catalog.CategoryStat]
	suppliers    *cache.Query[[]catalog.SupplierStat]
	lowStock     *cache.Query[[]catalog.LowStockItem]

	mu      sync.Mutex
	current catalog.Thresholds
	stop    func()
}

// Option configures a Dashboard
type Option func(*Dashboard)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Dashboard) {
		d.logger = l
	}
}

// New registers the metric groups with the cache. Threshold-dependent groups are
// refetched whenever the thresholds change; collection changes reach them through
// the cache's metrics prefix invalidation.
func New(qc *cache.QueryClient, api MetricsAPI, thresholds ThresholdSource, opts ...Option) *Dashboard {
	d := &Dashboard{
		qc:         qc,
		thresholds: thresholds,
		logger:     zap.NewNop(),
		current:    catalog.DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.overall = cache.Register(qc, KeyOverall, api.Overall)
	d.inventory = cache.Register(qc, KeyInventoryOverview, api.InventoryOverview)
	d.categories = cache.Register(qc, KeyCategoryStats, api.CategoryStats)
	d.suppliers = cache.Register(qc, KeySupplierStats, api.SupplierStats)
	d.distribution = cache.Register(qc, KeyStockDistribution, func(ctx context.Context) ([]catalog.StockLevelCount, error) {
		return api.StockDistribution(ctx, d.loadThresholds(ctx))
	})
	d.lowStock = cache.Register(qc, KeyLowStock, func(ctx context.Context) ([]catalog.LowStockItem, error) {
		return api.LowStock(ctx, d.loadThresholds(ctx).Low)
	})

	if thresholds != nil {
		d.stop = thresholds.SubscribeThresholds(func(t catalog.Thresholds) {
			d.setThresholds(t)
			d.qc.Invalidate(KeyStockDistribution, KeyLowStock)
		})
	}
	return d
}

// Close stops following threshold changes
func (d *Dashboard) Close() {
	if d.stop != nil {
		d.stop()
	}
}

// Keys returns every metric key
func Keys() []cache.Key {
	return []cache.Key{KeyOverall, KeyInventoryOverview, KeyStockDistribution, KeyCategoryStats, KeySupplierStats, KeyLowStock}
}

func (d *Dashboard) loadThresholds(ctx context.Context) catalog.Thresholds {
	if d.thresholds == nil {
		return d.currentThresholds()
	}
	t, err := d.thresholds.Thresholds(ctx)
	if err != nil {
		d.logger.Warn("failed to read stock thresholds, using defaults", zap.Error(err))
		t = catalog.DefaultThresholds()
	}
	d.setThresholds(t)
	return t
}

func (d *Dashboard) setThresholds(t catalog.Thresholds) {
	d.mu.Lock()
	d.current = t
	d.mu.Unlock()
}

func (d *Dashboard) currentThresholds() catalog.Thresholds {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Refresh refetches every metric group
func (d *Dashboard) Refresh() {
	d.qc.InvalidatePrefix(cache.MetricsKeyPrefix)
}

// Snapshot returns the dashboard without waiting, starting fetches for stale groups
func (d *Dashboard) Snapshot() View {
	return d.build()
}

// Load waits up to ctx for pending fetches and returns the dashboard
func (d *Dashboard) Load(ctx context.Context) View {
	for _, k := range Keys() {
		d.qc.Get(k)
	}
	for _, k := range Keys() {
		if err := d.qc.Wait(ctx, k); err != nil {
			break
		}
	}
	return d.Snapshot()
}

func (d *Dashboard) build() View {
	v := View{
		Overall:           section(d.overall.Get(), ErrTextOverall),
		InventoryOverview: section(d.inventory.Get(), ErrTextInventoryOverview),
		StockDistribution: section(d.distribution.Get(), ErrTextStockDistribution),
		CategoryStats:     section(d.categories.Get(), ErrTextCategoryStats),
		SupplierStats:     section(d.suppliers.Get(), ErrTextSupplierStats),
		LowStock:          section(d.lowStock.Get(), ErrTextLowStock),
		Thresholds:        d.currentThresholds(),
	}
	status := cache.Combine(
		d.overall.Peek().Status(),
		d.inventory.Peek().Status(),
		d.distribution.Peek().Status(),
		d.categories.Peek().Status(),
		d.suppliers.Peek().Status(),
		d.lowStock.Peek().Status(),
	)
	v.IsLoading = status.IsLoading
	for _, msg := range []string{
		v.Overall.Error, v.InventoryOverview.Error, v.StockDistribution.Error,
		v.CategoryStats.Error, v.SupplierStats.Error, v.LowStock.Error,
	} {
		if msg != "" {
			v.Error = msg
			break
		}
	}
	return v
}

func section[T any](r cache.Result[T], errText string) Section[T] {
	s := Section[T]{Data: r.Data, HasData: r.HasData, IsLoading: r.IsLoading}
	if r.Err != nil {
		s.Error = errText
	}
	return s
}
