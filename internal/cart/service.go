package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/anteyko-labs/sushi-flutter/internal/catalog"
	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

// CatalogReader resolves cart lines to live catalog items and prices.
type CatalogReader interface {
	GetRoll(ctx context.Context, id int64) (*catalog.Roll, error)
	GetSet(ctx context.Context, id int64) (*catalog.Set, error)
}

// AvailabilityChecker gates additions: a line may only grow to a
// quantity the current stock can cover. Implemented by
// availability.Resolver.
type AvailabilityChecker interface {
	RollAvailable(ctx context.Context, rollID int64, quantity int) (bool, []core.Shortfall, error)
	SetAvailable(ctx context.Context, setID int64, quantity int) (bool, []core.Shortfall, error)
}

// Service serializes mutations per user, so two devices on the same
// account cannot interleave a read-modify-write on the cart row.
type Service struct {
	repo    Repository
	catalog CatalogReader
	avail   AvailabilityChecker

	locks sync.Map // userID -> *sync.Mutex
}

func NewService(repo Repository, cat CatalogReader, avail AvailabilityChecker) *Service {
	return &Service{repo: repo, catalog: cat, avail: avail}
}

func (s *Service) userLock(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Add puts an item in the cart, merging with an existing line of the
// same type and id. The availability check runs against the RESULTING
// line quantity: a cart already holding 2 of a roll cannot take a
// third the stock does not cover.
func (s *Service) Add(ctx context.Context, userID, itemType string, itemID int64, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, core.Invalid("quantity must be positive")
	}
	switch itemType {
	case ItemRoll, ItemSet, ItemLoyaltyRoll:
	default:
		return nil, core.Invalid("unknown item type %q", itemType)
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	resulting := quantity
	idx := -1
	for i, l := range cart.Items {
		if l.ItemType == itemType && l.ItemID == itemID {
			resulting += l.Quantity
			idx = i
			break
		}
	}

	if err := s.checkItem(ctx, itemType, itemID, resulting); err != nil {
		return nil, err
	}

	if idx >= 0 {
		cart.Items[idx].Quantity = resulting
	} else {
		cart.Items = append(cart.Items, Line{ItemType: itemType, ItemID: itemID, Quantity: quantity})
	}

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) checkItem(ctx context.Context, itemType string, itemID int64, quantity int) error {
	var (
		ok         bool
		shortfalls []core.Shortfall
		err        error
	)
	switch itemType {
	case ItemSet:
		if _, err = s.catalog.GetSet(ctx, itemID); err != nil {
			return err
		}
		ok, shortfalls, err = s.avail.SetAvailable(ctx, itemID, quantity)
	default: // roll and loyalty_roll resolve against the same recipe
		if _, err = s.catalog.GetRoll(ctx, itemID); err != nil {
			return err
		}
		ok, shortfalls, err = s.avail.RollAvailable(ctx, itemID, quantity)
	}
	if err != nil {
		return err
	}
	if !ok {
		return &core.InsufficientStockError{Shortfalls: shortfalls}
	}
	return nil
}

// Remove drops every line with the given item id, whatever its type.
func (s *Service) Remove(ctx context.Context, userID string, itemID int64) (*Cart, error) {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	removed := false
	for _, l := range cart.Items {
		if l.ItemID == itemID {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	if !removed {
		return nil, core.NotFound("cart item", itemID)
	}
	cart.Items = kept

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	return s.repo.Clear(ctx, userID)
}

// Raw returns the stored cart without price enrichment. The order
// service reads it when assembling a checkout.
func (s *Service) Raw(ctx context.Context, userID string) (*Cart, error) {
	return s.repo.Get(ctx, userID)
}

// CreateFor pre-creates an empty cart row. Called on registration.
func (s *Service) CreateFor(ctx context.Context, userID string) error {
	return s.repo.Create(ctx, userID)
}

// Get returns the cart with current catalog prices joined in. Lines
// referencing items deleted from the catalog are silently skipped; the
// stored cart is left untouched so a restored item reappears.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &View{UserID: userID, Items: []PricedLine{}, Total: decimal.Zero}
	for _, l := range cart.Items {
		priced, err := s.price(ctx, l)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		view.Items = append(view.Items, *priced)
		view.Total = view.Total.Add(priced.LineTotal)
	}
	return view, nil
}

func (s *Service) price(ctx context.Context, l Line) (*PricedLine, error) {
	priced := &PricedLine{Line: l}

	switch l.ItemType {
	case ItemRoll:
		roll, err := s.catalog.GetRoll(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		priced.Name = roll.Name
		priced.UnitPrice = roll.SalePrice
		priced.ImageURL = roll.ImageURL
	case ItemSet:
		set, err := s.catalog.GetSet(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		priced.Name = set.Name
		priced.UnitPrice = set.SetPrice
		priced.ImageURL = set.ImageURL
	case ItemLoyaltyRoll:
		roll, err := s.catalog.GetRoll(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		priced.Name = roll.Name + " (бонус)"
		priced.UnitPrice = decimal.Zero
		priced.ImageURL = roll.ImageURL
	default:
		return nil, core.NotFound("cart item", l.ItemID)
	}

	priced.LineTotal = priced.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return priced, nil
}
