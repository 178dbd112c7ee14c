package loyalty

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anteyko-labs/sushi-flutter/internal/cart"
	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

// CartAdder places the free roll into the user's cart on redemption.
// Implemented by cart.Service, which also runs the availability check;
// a bonus roll the kitchen cannot make is rejected like any other.
type CartAdder interface {
	Add(ctx context.Context, userID, itemType string, itemID int64, quantity int) (*cart.Cart, error)
}

type Service struct {
	repo  Repository
	carts CartAdder
}

func NewService(repo Repository, carts CartAdder) *Service {
	return &Service{repo: repo, carts: carts}
}

func newCardNumber() string {
	return "LC-" + strings.ToUpper(uuid.New().String()[:8])
}

// Punch credits paid rolls to the user's card. Overflow rolls over:
// 10 punches on an empty card complete it and start the next one at 2.
func (s *Service) Punch(ctx context.Context, userID string, rolls int) error {
	if rolls <= 0 {
		return core.Invalid("punch count must be positive")
	}

	card, err := s.repo.ActiveCard(ctx, userID)
	if err != nil {
		return err
	}
	if card == nil {
		card = &Card{UserID: userID, CardNumber: newCardNumber()}
		if err := s.repo.CreateCard(ctx, card); err != nil {
			return err
		}
	}

	remaining := rolls
	for remaining > 0 {
		take := remaining
		if room := CardTarget - card.FilledRolls; take > room {
			take = room
		}
		card.FilledRolls += take
		remaining -= take

		if card.FilledRolls >= CardTarget {
			now := time.Now().UTC()
			card.IsCompleted = true
			card.CompletedAt = &now
		}
		if err := s.repo.UpdateCard(ctx, card); err != nil {
			return err
		}
		if card.IsCompleted {
			logrus.WithFields(logrus.Fields{
				"user_id":     userID,
				"card_number": card.CardNumber,
			}).Info("loyalty card completed")
		}

		if remaining > 0 {
			card = &Card{UserID: userID, CardNumber: newCardNumber()}
			if err := s.repo.CreateCard(ctx, card); err != nil {
				return err
			}
		}
	}
	return nil
}

// Status is the client's loyalty screen: current progress plus how
// many completed cards are waiting to be redeemed.
type Status struct {
	Card       *Card `json:"card"`
	Redeemable bool  `json:"redeemable"`
	Cards      int   `json:"cards_total"`
}

func (s *Service) CardStatus(ctx context.Context, userID string) (*Status, error) {
	card, err := s.repo.ActiveCard(ctx, userID)
	if err != nil {
		return nil, err
	}
	redeemable, err := s.repo.RedeemableCard(ctx, userID)
	if err != nil {
		return nil, err
	}
	cards, err := s.repo.Cards(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Status{Card: card, Redeemable: redeemable != nil, Cards: len(cards)}, nil
}

func (s *Service) AvailableRolls(ctx context.Context) ([]Roll, error) {
	return s.repo.AvailableRolls(ctx)
}

// Redeem spends one completed card on a loyalty roll: the roll lands
// in the cart at price zero and the card is marked used.
func (s *Service) Redeem(ctx context.Context, userID string, rollID int64) (*Usage, error) {
	available, err := s.repo.IsRollAvailable(ctx, rollID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, core.Invalid("roll %d is not offered for loyalty redemption", rollID)
	}

	card, err := s.repo.RedeemableCard(ctx, userID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, core.Invalid("no completed loyalty card to redeem")
	}

	if _, err := s.carts.Add(ctx, userID, cart.ItemLoyaltyRoll, rollID, 1); err != nil {
		return nil, err
	}

	usage := &Usage{UserID: userID, CardID: card.ID, RollID: rollID}
	if err := s.repo.RecordUsage(ctx, usage); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"card_number": card.CardNumber,
		"roll_id":     rollID,
	}).Info("loyalty card redeemed")
	return usage, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]Usage, error) {
	return s.repo.History(ctx, userID)
}

func (s *Service) AddRoll(ctx context.Context, rollID int64) (*Roll, error) {
	return s.repo.AddRoll(ctx, rollID)
}

func (s *Service) SetRollAvailability(ctx context.Context, id int64, available bool) error {
	return s.repo.SetRollAvailability(ctx, id, available)
}
