package apiclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
)

// MetricsClient reads the aggregate dashboard statistics
type MetricsClient struct {
	c *Client
}

// Metrics returns the metrics client
func (c *Client) Metrics() *MetricsClient {
	return &MetricsClient{c: c}
}

// Overall returns catalog totals
func (m *MetricsClient) Overall(ctx context.Context) (catalog.OverallMetrics, error) {
	var out catalog.OverallMetrics
	err := m.c.Get(ctx, "/metrics/overall", nil, &out)
	return out, err
}

// InventoryOverview returns stock totals
func (m *MetricsClient) InventoryOverview(ctx context.Context) (catalog.InventoryOverview, error) {
	var out catalog.InventoryOverview
	err := m.c.Get(ctx, "/metrics/inventory-overview", nil, &out)
	return out, err
}

// StockDistribution buckets parts by stock level using the given thresholds
func (m *MetricsClient) StockDistribution(ctx context.Context, t catalog.Thresholds) ([]catalog.StockLevelCount, error) {
	query := url.Values{
		"lowThreshold":    []string{strconv.Itoa(t.Low)},
		"mediumThreshold": []string{strconv.Itoa(t.Medium)},
	}
	var out []catalog.StockLevelCount
	err := m.c.Get(ctx, "/metrics/stock-distribution", query, &out)
	return out, err
}

// CategoryStats returns per-category aggregates
func (m *MetricsClient) CategoryStats(ctx context.Context) ([]catalog.CategoryStat, error) {
	var out []catalog.CategoryStat
	err := m.c.Get(ctx, "/metrics/category-stats", nil, &out)
	return out, err
}

// SupplierStats returns per-supplier aggregates
func (m *MetricsClient) SupplierStats(ctx context.Context) ([]catalog.SupplierStat, error) {
	var out []catalog.SupplierStat
	err := m.c.Get(ctx, "/metrics/supplier-stats", nil, &out)
	return out, err
}

// LowStock returns parts whose quantity is below threshold
func (m *MetricsClient) LowStock(ctx context.Context, threshold int) ([]catalog.LowStockItem, error) {
	query := url.Values{"threshold": []string{strconv.Itoa(threshold)}}
	var out []catalog.LowStockItem
	err := m.c.Get(ctx, "/metrics/low-stock", query, &out)
	return out, err
}
