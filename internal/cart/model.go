package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item types a cart line can reference. A loyalty roll is a regular
// roll granted free of charge by a completed loyalty card; it keeps
// consuming ingredients like any other roll.
const (
	ItemRoll        = "roll"
	ItemSet         = "set"
	ItemLoyaltyRoll = "loyalty_roll"
)

// Line is one position in the cart. Lines merge by (type, id): adding
// the same item again bumps the quantity instead of duplicating.
type Line struct {
	ItemType string `json:"item_type"`
	ItemID   int64  `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Cart is the per-user staging area for an order. Prices are NOT
// stored here; they are resolved from the catalog at read time and
// snapshotted only when the order is placed.
type Cart struct {
	UserID    string    `json:"user_id"`
	Items     []Line    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PricedLine is a cart line with catalog data joined in for display.
type PricedLine struct {
	Line
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// View is the enriched cart returned to clients.
type View struct {
	UserID string          `json:"user_id"`
	Items  []PricedLine    `json:"items"`
	Total  decimal.Decimal `json:"total"`
}
