package catalog

import "github.com/shopspring/decimal"

// Default stock thresholds used when the user has not configured their own
const (
	DefaultLowStockThreshold    = 10
	DefaultMediumStockThreshold = 50
)

// OverallMetrics summarizes the whole catalog
type OverallMetrics struct {
	TotalParts   int64           `json:"totalParts"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

// InventoryOverview summarizes stock levels
type InventoryOverview struct {
	TotalQuantity   int64   `json:"totalQuantity"`
	UniqueParts     int64   `json:"uniqueParts"`
	AverageQuantity float64 `json:"averageQuantity"`
}

// StockLevelCount is one bucket of the stock distribution chart
type StockLevelCount struct {
	StockLevel string `json:"stockLevel"`
	Count      int64  `json:"count"`
}

// CategoryStat aggregates parts per category
type CategoryStat struct {
	CategoryName string          `json:"categoryName"`
	PartCount    int64           `json:"partCount"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

// SupplierStat aggregates parts per supplier
type SupplierStat struct {
	SupplierName string          `json:"supplierName"`
	PartCount    int64           `json:"partCount"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

// LowStockItem is a part whose quantity is under the low threshold
type LowStockItem struct {
	PartName string `json:"partName"`
	Quantity int    `json:"quantity"`
}

// Thresholds are the user-configurable stock level boundaries
type Thresholds struct {
	Low    int `json:"lowStockThreshold"`
	Medium int `json:"mediumStockThreshold"`
}

// DefaultThresholds returns the built-in thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{Low: DefaultLowStockThreshold, Medium: DefaultMediumStockThreshold}
}

// Valid reports whether low is non-negative and medium is strictly above low
func (t Thresholds) Valid() bool {
	return t.Low >= 0 && t.Medium > t.Low
}
