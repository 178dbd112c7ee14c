package ingredient

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a raw material with finite stock. Stock changes only
// through Adjust (restock/write-off) and order reservations.
type Ingredient struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Movement reasons.
const (
	ReasonRestock     = "restock"
	ReasonWriteOff    = "write_off"
	ReasonReservation = "order_reservation"
)

// StockMovement is one append-only ledger row recording a stock change
// with its cause.
type StockMovement struct {
	ID           string          `json:"id"`
	IngredientID int64           `json:"ingredient_id"`
	Delta        decimal.Decimal `json:"delta"`
	StockBefore  decimal.Decimal `json:"stock_before"`
	StockAfter   decimal.Decimal `json:"stock_after"`
	Reason       string          `json:"reason"`
	Comment      string          `json:"comment,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
