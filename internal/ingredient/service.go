package ingredient

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
	"github.com/anteyko-labs/sushi-flutter/internal/events"
)

// CostRecomputer propagates a changed unit cost into every roll and
// set whose derived cost depends on the ingredient. Implemented by
// catalog.Service.
type CostRecomputer interface {
	RecomputeForIngredient(ctx context.Context, ingredientID int64) error
}

// Service is the Ingredient Ledger: the single entry point for stock
// queries and manual adjustments. Order reservations bypass it only
// through the fulfillment transaction, which writes the same movement
// rows.
type Service struct {
	repo  Repository
	pub   events.Publisher
	costs CostRecomputer
}

func NewService(repo Repository, pub events.Publisher, costs CostRecomputer) *Service {
	return &Service{repo: repo, pub: pub, costs: costs}
}

func (s *Service) Get(ctx context.Context, id int64) (*Ingredient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Ingredient, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, ing *Ingredient) error {
	if ing.Name == "" || ing.Unit == "" {
		return core.Invalid("ingredient name and unit are required")
	}
	if ing.StockQuantity.IsNegative() {
		return core.Invalid("initial stock cannot be negative")
	}
	if ing.CostPerUnit.IsNegative() || ing.PricePerUnit.IsNegative() {
		return core.Invalid("ingredient prices cannot be negative")
	}
	return s.repo.Create(ctx, ing)
}

// Update changes descriptive fields and prices. A changed unit cost
// invalidates every dependent roll and set cost, so those are
// recomputed before the call returns.
func (s *Service) Update(ctx context.Context, ing *Ingredient) error {
	if ing.Name == "" || ing.Unit == "" {
		return core.Invalid("ingredient name and unit are required")
	}
	if ing.CostPerUnit.IsNegative() || ing.PricePerUnit.IsNegative() {
		return core.Invalid("ingredient prices cannot be negative")
	}

	current, err := s.repo.Get(ctx, ing.ID)
	if err != nil {
		return err
	}
	costChanged := !current.CostPerUnit.Equal(ing.CostPerUnit)

	if err := s.repo.Update(ctx, ing); err != nil {
		return err
	}

	if costChanged && s.costs != nil {
		if err := s.costs.RecomputeForIngredient(ctx, ing.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete refuses while the ingredient is part of any recipe.
func (s *Service) Delete(ctx context.Context, id int64) error {
	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return core.Invalid("ingredient %d is referenced by a recipe and cannot be deleted", id)
	}
	return s.repo.Delete(ctx, id)
}

// Adjust applies a manual stock change (restock or write-off), records
// the movement and publishes it to the audit stream. A delta that would
// take stock below zero is rejected, not clamped.
func (s *Service) Adjust(ctx context.Context, id int64, delta decimal.Decimal, reason, comment string) (*StockMovement, error) {
	if reason != ReasonRestock && reason != ReasonWriteOff {
		return nil, core.Invalid("unknown adjustment reason %q", reason)
	}
	if delta.IsZero() {
		return nil, core.Invalid("adjustment delta cannot be zero")
	}

	m, err := s.repo.AdjustStock(ctx, id, &StockMovement{
		Delta:   delta,
		Reason:  reason,
		Comment: comment,
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"ingredient_id": id,
		"delta":         delta.String(),
		"reason":        reason,
	}).Info("stock adjusted")

	s.pub.Publish(events.TopicStockMovements, events.StockMovementEvent{
		EventID:      events.NewEventID(),
		IngredientID: m.IngredientID,
		Delta:        m.Delta,
		StockAfter:   m.StockAfter,
		Reason:       m.Reason,
		Comment:      m.Comment,
		OccurredAt:   m.CreatedAt,
	})

	return m, nil
}

func (s *Service) Movements(ctx context.Context, id int64) ([]StockMovement, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Movements(ctx, id)
}
