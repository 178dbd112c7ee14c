package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovementEvent mirrors one stock_movements row.
type StockMovementEvent struct {
	EventID      string          `json:"event_id"`
	IngredientID int64           `json:"ingredient_id"`
	Delta        decimal.Decimal `json:"delta"`
	StockAfter   decimal.Decimal `json:"stock_after"`
	Reason       string          `json:"reason"`
	Comment      string          `json:"comment,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// OrderStatusEvent records one status transition.
type OrderStatusEvent struct {
	EventID    string    `json:"event_id"`
	OrderID    int64     `json:"order_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderCreatedEvent is published after the fulfillment transaction commits.
type OrderCreatedEvent struct {
	EventID    string          `json:"event_id"`
	OrderID    int64           `json:"order_id"`
	UserID     string          `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      int             `json:"items"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEventID returns the id stamped on every published event.
func NewEventID() string { return uuid.New().String() }
