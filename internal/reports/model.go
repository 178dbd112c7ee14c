package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// IngredientUsageRow aggregates journaled consumption of one
// ingredient over a period.
type IngredientUsageRow struct {
	IngredientID int64           `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	TotalUsed    decimal.Decimal `json:"total_used"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// SalesSummary covers all orders of a period. Cost comes from the
// journaled ingredient usage, so it only reflects orders that reached
// the kitchen-done status.
type SalesSummary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Orders       int64           `json:"orders"`
	Revenue      decimal.Decimal `json:"revenue"`
	Cost         decimal.Decimal `json:"cost"`
	Profit       decimal.Decimal `json:"profit"`
	AverageOrder decimal.Decimal `json:"average_order"`
}

// TopItem is one best-selling position.
type TopItem struct {
	ItemType string          `json:"item_type"`
	ItemID   int64           `json:"item_id"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}
