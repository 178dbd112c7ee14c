package loyalty

import "context"

type Repository interface {
	// ActiveCard returns the user's incomplete card, or nil when every
	// card is full.
	ActiveCard(ctx context.Context, userID string) (*Card, error)
	CreateCard(ctx context.Context, card *Card) error
	UpdateCard(ctx context.Context, card *Card) error
	Cards(ctx context.Context, userID string) ([]Card, error)

	// RedeemableCard returns the oldest completed card without a usage
	// record, or nil when the user has nothing to redeem.
	RedeemableCard(ctx context.Context, userID string) (*Card, error)

	AvailableRolls(ctx context.Context) ([]Roll, error)
	AddRoll(ctx context.Context, rollID int64) (*Roll, error)
	SetRollAvailability(ctx context.Context, id int64, available bool) error
	IsRollAvailable(ctx context.Context, rollID int64) (bool, error)

	RecordUsage(ctx context.Context, usage *Usage) error
	History(ctx context.Context, userID string) ([]Usage, error)
}
