package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a placed and paid-for request. Item prices are snapshotted
// at placement and never change afterwards, whatever happens to the
// catalog.
type Order struct {
	ID              int64           `json:"id"`
	UserID          string          `json:"user_id"`
	Phone           string          `json:"phone"`
	DeliveryAddress string          `json:"delivery_address"`
	PaymentMethod   string          `json:"payment_method"`
	Status          string          `json:"status"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Comment         string          `json:"comment,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Items []Item `json:"items,omitempty"`
}

// Item is one order position with its price snapshot.
type Item struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ItemType   string          `json:"item_type"`
	ItemID     int64           `json:"item_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// IngredientNeed is the aggregated demand of one ingredient across the
// whole order.
type IngredientNeed struct {
	IngredientID int64           `json:"ingredient_id"`
	Name         string          `json:"name"`
	Amount       decimal.Decimal `json:"amount"`
}
