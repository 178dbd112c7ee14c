package order

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/anteyko-labs/sushi-flutter/internal/cart"
	"github.com/anteyko-labs/sushi-flutter/internal/catalog"
	"github.com/anteyko-labs/sushi-flutter/internal/core"
	"github.com/anteyko-labs/sushi-flutter/internal/events"
)

// CatalogReader resolves order lines to price snapshots and recipes.
type CatalogReader interface {
	GetRoll(ctx context.Context, id int64) (*catalog.Roll, error)
	GetSet(ctx context.Context, id int64) (*catalog.Set, error)
	Recipe(ctx context.Context, rollID int64) ([]catalog.RecipeLine, error)
	Composition(ctx context.Context, setID int64) ([]catalog.SetItem, error)
}

// CartReader supplies the user's cart when the request carries no
// explicit item list.
type CartReader interface {
	Raw(ctx context.Context, userID string) (*cart.Cart, error)
}

// LoyaltyHook punches the user's loyalty card for the paid rolls of a
// placed order. Punch failures never fail the order.
type LoyaltyHook interface {
	Punch(ctx context.Context, userID string, rolls int) error
}

type Service struct {
	repo    Repository
	catalog CatalogReader
	carts   CartReader
	loyalty LoyaltyHook
	pub     events.Publisher
}

func NewService(repo Repository, cat CatalogReader, carts CartReader, loyalty LoyaltyHook, pub events.Publisher) *Service {
	return &Service{repo: repo, catalog: cat, carts: carts, loyalty: loyalty, pub: pub}
}

type ItemRequest struct {
	ItemType string `json:"item_type"`
	ItemID   int64  `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type CreateRequest struct {
	// Items, when present, define the order and the cart is ignored
	// and left untouched.
	Items []ItemRequest `json:"items"`

	Phone           string `json:"phone"`
	DeliveryAddress string `json:"delivery_address"`
	PaymentMethod   string `json:"payment_method"`
	Comment         string `json:"comment"`

	// Total, when positive, overrides the computed sum (promo pricing
	// agreed by phone). Negative totals are rejected outright.
	Total decimal.Decimal `json:"total_price"`
}

// Create places an order: snapshots prices, aggregates ingredient
// demand across all lines and hands everything to the fulfillment
// transaction. Nothing changes unless the whole order succeeds.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Order, error) {
	if req.Phone == "" || req.DeliveryAddress == "" {
		return nil, core.Invalid("phone and delivery address are required")
	}
	if req.Total.IsNegative() {
		return nil, core.ErrNegativeTotal
	}

	lines := req.Items
	fromCart := false
	if len(lines) == 0 {
		stored, err := s.carts.Raw(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, l := range stored.Items {
			lines = append(lines, ItemRequest{ItemType: l.ItemType, ItemID: l.ItemID, Quantity: l.Quantity})
		}
		fromCart = true
	}
	if len(lines) == 0 {
		return nil, core.ErrEmptyOrder
	}

	order := &Order{
		UserID:          userID,
		Phone:           req.Phone,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Comment:         req.Comment,
	}

	total := decimal.Zero
	hasPaid := false
	paidRolls := 0
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, core.Invalid("item quantity must be positive")
		}

		price, err := s.unitPrice(ctx, l.ItemType, l.ItemID)
		if err != nil {
			return nil, err
		}
		if price.IsPositive() {
			hasPaid = true
			if l.ItemType == cart.ItemRoll {
				paidRolls += l.Quantity
			}
		}

		lineTotal := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(lineTotal)
		order.Items = append(order.Items, Item{
			ItemType:   l.ItemType,
			ItemID:     l.ItemID,
			Quantity:   l.Quantity,
			UnitPrice:  price,
			TotalPrice: lineTotal,
		})
	}
	if !hasPaid {
		return nil, core.ErrNoPaidItems
	}

	order.TotalPrice = total
	if req.Total.IsPositive() {
		order.TotalPrice = req.Total
	}

	consumption, err := s.consumption(ctx, order.Items)
	if err != nil {
		return nil, err
	}

	clearCartFor := ""
	if fromCart {
		clearCartFor = userID
	}
	if err := s.repo.Create(ctx, order, consumption, clearCartFor); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalPrice.String(),
		"items":    len(order.Items),
	}).Info("order placed")

	s.pub.Publish(events.TopicOrders, events.OrderCreatedEvent{
		EventID:    events.NewEventID(),
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		Items:      len(order.Items),
		OccurredAt: order.CreatedAt,
	})

	if s.loyalty != nil && paidRolls > 0 {
		if err := s.loyalty.Punch(ctx, userID, paidRolls); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Warn("loyalty punch failed")
		}
	}

	return order, nil
}

func (s *Service) unitPrice(ctx context.Context, itemType string, itemID int64) (decimal.Decimal, error) {
	switch itemType {
	case cart.ItemRoll:
		roll, err := s.catalog.GetRoll(ctx, itemID)
		if err != nil {
			return decimal.Zero, err
		}
		return roll.SalePrice, nil
	case cart.ItemSet:
		set, err := s.catalog.GetSet(ctx, itemID)
		if err != nil {
			return decimal.Zero, err
		}
		return set.SetPrice, nil
	case cart.ItemLoyaltyRoll:
		if _, err := s.catalog.GetRoll(ctx, itemID); err != nil {
			return decimal.Zero, err
		}
		return decimal.Zero, nil
	default:
		return decimal.Zero, core.Invalid("unknown item type %q", itemType)
	}
}

// consumption aggregates ingredient demand across every line, so an
// ingredient shared by two items is checked once against the combined
// amount.
func (s *Service) consumption(ctx context.Context, items []Item) ([]IngredientNeed, error) {
	need := make(map[int64]*IngredientNeed)

	addRecipe := func(rollID int64, servings int) error {
		lines, err := s.catalog.Recipe(ctx, rollID)
		if err != nil {
			return err
		}
		q := decimal.NewFromInt(int64(servings))
		for _, l := range lines {
			n, ok := need[l.IngredientID]
			if !ok {
				n = &IngredientNeed{IngredientID: l.IngredientID, Name: l.IngredientName}
				need[l.IngredientID] = n
			}
			n.Amount = n.Amount.Add(l.AmountPerRoll.Mul(q))
		}
		return nil
	}

	for _, it := range items {
		switch it.ItemType {
		case cart.ItemRoll, cart.ItemLoyaltyRoll:
			if err := addRecipe(it.ItemID, it.Quantity); err != nil {
				return nil, err
			}
		case cart.ItemSet:
			composition, err := s.catalog.Composition(ctx, it.ItemID)
			if err != nil {
				return nil, err
			}
			for _, ci := range composition {
				if err := addRecipe(ci.RollID, ci.Quantity*it.Quantity); err != nil {
					return nil, err
				}
			}
		}
	}

	out := make([]IngredientNeed, 0, len(need))
	for _, n := range need {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientID < out[j].IngredientID })
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) Usage(ctx context.Context, orderID int64) ([]IngredientNeed, error) {
	if _, err := s.repo.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.Usage(ctx, orderID)
}

// UpdateStatus moves the order forward through its lifecycle. Entering
// "Готов" or "Сделан" journals the order's ingredient usage exactly
// once, however many times the kitchen taps the button.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Order, error) {
	if !KnownStatus(status) {
		return nil, core.Invalid("unknown status %q", status)
	}

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, status) {
		return nil, core.Invalid("cannot change status from %q to %q", order.Status, status)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	if journalsUsage(status) {
		usage, err := s.consumption(ctx, order.Items)
		if err != nil {
			return nil, err
		}
		written, err := s.repo.JournalUsage(ctx, id, usage)
		if err != nil {
			return nil, err
		}
		if written {
			logrus.WithField("order_id", id).Info("ingredient usage journaled")
		}
	}

	s.pub.Publish(events.TopicOrderStatus, events.OrderStatusEvent{
		EventID:    events.NewEventID(),
		OrderID:    id,
		From:       order.Status,
		To:         status,
		OccurredAt: time.Now().UTC(),
	})

	order.Status = status
	return order, nil
}
