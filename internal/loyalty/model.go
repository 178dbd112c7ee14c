package loyalty

import "time"

// CardTarget is how many paid rolls fill a card.
const CardTarget = 8

// Card is one punch card. A user has at most one incomplete card at a
// time; overflow punches roll over into a fresh card.
type Card struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id"`
	CardNumber  string     `json:"card_number"`
	FilledRolls int        `json:"filled_rolls"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Roll is a catalog roll the admin opened for loyalty redemption.
type Roll struct {
	ID          int64     `json:"id"`
	RollID      int64     `json:"roll_id"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`

	RollName     string `json:"roll_name"`
	RollImageURL string `json:"roll_image_url,omitempty"`
}

// Usage records one redemption of a completed card.
type Usage struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	CardID     int64     `json:"loyalty_card_id"`
	RollID     int64     `json:"roll_id"`
	OrderID    *int64    `json:"order_id,omitempty"`
	UsedAt     time.Time `json:"used_at"`
	RollName   string    `json:"roll_name,omitempty"`
	CardNumber string    `json:"card_number,omitempty"`
}
