package loyalty

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

// InMemoryRepository backs tests.
type InMemoryRepository struct {
	mu         sync.Mutex
	cards      map[int64]*Card
	rolls      map[int64]*Roll
	usage      []Usage
	nextCard   int64
	nextRoll   int64
	nextUsage  int64
	rollNames  map[int64]string // catalog roll id -> name, seeded by tests
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		cards:     make(map[int64]*Card),
		rolls:     make(map[int64]*Roll),
		rollNames: make(map[int64]string),
		nextCard:  1,
		nextRoll:  1,
		nextUsage: 1,
	}
}

// NameRoll registers a catalog roll name for joined reads.
func (r *InMemoryRepository) NameRoll(rollID int64, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollNames[rollID] = name
}

func (r *InMemoryRepository) ActiveCard(_ context.Context, userID string) (*Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var oldest *Card
	for _, c := range r.cards {
		if c.UserID != userID || c.IsCompleted {
			continue
		}
		if oldest == nil || c.CreatedAt.Before(oldest.CreatedAt) || (c.CreatedAt.Equal(oldest.CreatedAt) && c.ID < oldest.ID) {
			oldest = c
		}
	}
	if oldest == nil {
		return nil, nil
	}
	cp := *oldest
	return &cp, nil
}

func (r *InMemoryRepository) CreateCard(_ context.Context, card *Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	card.ID = r.nextCard
	r.nextCard++
	card.CreatedAt = time.Now().UTC()
	cp := *card
	r.cards[card.ID] = &cp
	return nil
}

func (r *InMemoryRepository) UpdateCard(_ context.Context, card *Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cards[card.ID]
	if !ok {
		return core.NotFound("loyalty card", card.ID)
	}
	stored.FilledRolls = card.FilledRolls
	stored.IsCompleted = card.IsCompleted
	stored.CompletedAt = card.CompletedAt
	return nil
}

func (r *InMemoryRepository) Cards(_ context.Context, userID string) ([]Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cards []Card
	for _, c := range r.cards {
		if c.UserID == userID {
			cards = append(cards, *c)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID > cards[j].ID })
	return cards, nil
}

func (r *InMemoryRepository) RedeemableCard(_ context.Context, userID string) (*Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	used := make(map[int64]bool)
	for _, u := range r.usage {
		used[u.CardID] = true
	}

	var oldest *Card
	for _, c := range r.cards {
		if c.UserID != userID || !c.IsCompleted || used[c.ID] {
			continue
		}
		if oldest == nil || c.ID < oldest.ID {
			oldest = c
		}
	}
	if oldest == nil {
		return nil, nil
	}
	cp := *oldest
	return &cp, nil
}

func (r *InMemoryRepository) AvailableRolls(_ context.Context) ([]Roll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var list []Roll
	for _, lr := range r.rolls {
		if lr.IsAvailable {
			cp := *lr
			cp.RollName = r.rollNames[lr.RollID]
			list = append(list, cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *InMemoryRepository) AddRoll(_ context.Context, rollID int64) (*Roll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lr := &Roll{ID: r.nextRoll, RollID: rollID, IsAvailable: true, CreatedAt: time.Now().UTC()}
	r.nextRoll++
	r.rolls[lr.ID] = lr
	cp := *lr
	return &cp, nil
}

func (r *InMemoryRepository) SetRollAvailability(_ context.Context, id int64, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lr, ok := r.rolls[id]
	if !ok {
		return core.NotFound("loyalty roll", id)
	}
	lr.IsAvailable = available
	return nil
}

func (r *InMemoryRepository) IsRollAvailable(_ context.Context, rollID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, lr := range r.rolls {
		if lr.RollID == rollID && lr.IsAvailable {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) RecordUsage(_ context.Context, usage *Usage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	usage.ID = r.nextUsage
	r.nextUsage++
	usage.UsedAt = time.Now().UTC()
	r.usage = append(r.usage, *usage)
	return nil
}

func (r *InMemoryRepository) History(_ context.Context, userID string) ([]Usage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var history []Usage
	for _, u := range r.usage {
		if u.UserID == userID {
			u.RollName = r.rollNames[u.RollID]
			history = append(history, u)
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i].ID > history[j].ID })
	return history, nil
}
