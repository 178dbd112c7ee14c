package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roll is a sellable item composed of ingredients. CostPrice is derived
// from the recipe and recomputed on every recipe change; SalePrice is
// set independently by the admin.
type Roll struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	ImageURL    string          `json:"image_url,omitempty"`
	IsPopular   bool            `json:"is_popular"`
	IsNew       bool            `json:"is_new"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RecipeLine binds one ingredient to a roll. The ingredient columns are
// joined in for costing and availability so callers need no second
// lookup.
type RecipeLine struct {
	RollID        int64           `json:"roll_id"`
	IngredientID  int64           `json:"ingredient_id"`
	AmountPerRoll decimal.Decimal `json:"amount_per_roll"`

	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
	StockQuantity  decimal.Decimal `json:"stock_quantity"`
}

// Set is a bundle of rolls. CostPrice is derived from the composition;
// SetPrice is set independently.
type Set struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SetPrice    decimal.Decimal `json:"set_price"`
	ImageURL    string          `json:"image_url,omitempty"`
	IsPopular   bool            `json:"is_popular"`
	IsNew       bool            `json:"is_new"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SetItem is one roll inside a set, with the roll's figures joined in.
type SetItem struct {
	SetID    int64 `json:"set_id"`
	RollID   int64 `json:"roll_id"`
	Quantity int   `json:"quantity"`

	RollName      string          `json:"roll_name"`
	RollCostPrice decimal.Decimal `json:"roll_cost_price"`
	RollSalePrice decimal.Decimal `json:"roll_sale_price"`
}
