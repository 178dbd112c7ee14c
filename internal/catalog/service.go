package catalog

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

// imageKey builds an object key like "rolls/42/<uuid>.jpg". The uuid
// keeps re-uploads from colliding with cached copies of the old image.
func imageKey(prefix string, id int64, filename string) string {
	return fmt.Sprintf("%s/%d/%s%s", prefix, id, uuid.New().String(), filepath.Ext(filename))
}

// Storage uploads item images and returns the public URL.
// Implemented by storage.R2Client.
type Storage interface {
	Upload(ctx context.Context, key string, file multipart.File) (string, error)
}

// Service owns the catalog. Derived costs are kept in sync by the
// repository: every recipe or composition change recomputes the
// affected roll's cost and the cost of every set containing it in the
// same transaction as the mutation. Availability never lives here; it
// is resolved against the ledger at read time.
type Service struct {
	repo    Repository
	storage Storage
}

func NewService(repo Repository, storage Storage) *Service {
	return &Service{repo: repo, storage: storage}
}

// ---------------------------------------------------------------------------
// Rolls
// ---------------------------------------------------------------------------

func (s *Service) GetRoll(ctx context.Context, id int64) (*Roll, error) {
	return s.repo.GetRoll(ctx, id)
}

func (s *Service) ListRolls(ctx context.Context) ([]Roll, error) {
	return s.repo.ListRolls(ctx)
}

func (s *Service) CreateRoll(ctx context.Context, roll *Roll) error {
	if roll.Name == "" {
		return core.Invalid("roll name is required")
	}
	if roll.SalePrice.IsNegative() {
		return core.Invalid("sale price cannot be negative")
	}
	roll.CostPrice = decimal.Zero
	return s.repo.CreateRoll(ctx, roll)
}

// UpdateRoll changes descriptive fields and the sale price. The cost
// price is derived from the recipe and cannot be set directly.
func (s *Service) UpdateRoll(ctx context.Context, roll *Roll) error {
	if roll.Name == "" {
		return core.Invalid("roll name is required")
	}
	if roll.SalePrice.IsNegative() {
		return core.Invalid("sale price cannot be negative")
	}
	return s.repo.UpdateRoll(ctx, roll)
}

func (s *Service) DeleteRoll(ctx context.Context, id int64) error {
	sets, err := s.repo.SetsContainingRoll(ctx, id)
	if err != nil {
		return err
	}
	if len(sets) > 0 {
		return core.Invalid("roll %d is part of %d set(s) and cannot be deleted", id, len(sets))
	}
	return s.repo.DeleteRoll(ctx, id)
}

// UploadRollImage stores the image and records its public URL on the roll.
func (s *Service) UploadRollImage(ctx context.Context, rollID int64, file *multipart.FileHeader) (string, error) {
	if s.storage == nil {
		return "", core.Invalid("image storage is not configured")
	}

	roll, err := s.repo.GetRoll(ctx, rollID)
	if err != nil {
		return "", err
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	url, err := s.storage.Upload(ctx, imageKey("rolls", rollID, file.Filename), f)
	if err != nil {
		return "", err
	}

	roll.ImageURL = url
	if err := s.repo.UpdateRoll(ctx, roll); err != nil {
		return "", err
	}
	return url, nil
}

// ---------------------------------------------------------------------------
// Recipes
// ---------------------------------------------------------------------------

func (s *Service) Recipe(ctx context.Context, rollID int64) ([]RecipeLine, error) {
	if _, err := s.repo.GetRoll(ctx, rollID); err != nil {
		return nil, err
	}
	return s.repo.Recipe(ctx, rollID)
}

func (s *Service) AddRecipeLine(ctx context.Context, line *RecipeLine) error {
	if !line.AmountPerRoll.IsPositive() {
		return core.Invalid("amount per roll must be positive")
	}
	if err := s.repo.AddRecipeLine(ctx, line); err != nil {
		return err
	}
	logrus.WithField("roll_id", line.RollID).Info("recipe changed, costs recomputed")
	return nil
}

func (s *Service) UpdateRecipeLine(ctx context.Context, rollID, ingredientID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return core.Invalid("amount per roll must be positive")
	}
	if err := s.repo.UpdateRecipeLine(ctx, rollID, ingredientID, amount); err != nil {
		return err
	}
	logrus.WithField("roll_id", rollID).Info("recipe changed, costs recomputed")
	return nil
}

func (s *Service) RemoveRecipeLine(ctx context.Context, rollID, ingredientID int64) error {
	if err := s.repo.RemoveRecipeLine(ctx, rollID, ingredientID); err != nil {
		return err
	}
	logrus.WithField("roll_id", rollID).Info("recipe changed, costs recomputed")
	return nil
}

// RecomputeRollCost refreshes one roll's cost from its recipe and
// cascades into every set containing it.
func (s *Service) RecomputeRollCost(ctx context.Context, rollID int64) error {
	return s.repo.RecomputeRoll(ctx, rollID)
}

// RecomputeForIngredient refreshes every roll whose recipe uses the
// ingredient. The ingredient service calls this when a unit cost
// changes, so persisted roll and set costs track their inputs.
func (s *Service) RecomputeForIngredient(ctx context.Context, ingredientID int64) error {
	rollIDs, err := s.repo.RollsUsingIngredient(ctx, ingredientID)
	if err != nil {
		return err
	}
	for _, rollID := range rollIDs {
		if err := s.repo.RecomputeRoll(ctx, rollID); err != nil {
			return err
		}
	}
	if len(rollIDs) > 0 {
		logrus.WithFields(logrus.Fields{
			"ingredient_id": ingredientID,
			"rolls":         len(rollIDs),
		}).Info("ingredient cost change propagated")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Sets
// ---------------------------------------------------------------------------

func (s *Service) GetSet(ctx context.Context, id int64) (*Set, error) {
	return s.repo.GetSet(ctx, id)
}

func (s *Service) ListSets(ctx context.Context) ([]Set, error) {
	return s.repo.ListSets(ctx)
}

func (s *Service) CreateSet(ctx context.Context, set *Set) error {
	if set.Name == "" {
		return core.Invalid("set name is required")
	}
	if set.SetPrice.IsNegative() {
		return core.Invalid("set price cannot be negative")
	}
	set.CostPrice = decimal.Zero
	return s.repo.CreateSet(ctx, set)
}

func (s *Service) UpdateSet(ctx context.Context, set *Set) error {
	if set.Name == "" {
		return core.Invalid("set name is required")
	}
	if set.SetPrice.IsNegative() {
		return core.Invalid("set price cannot be negative")
	}
	return s.repo.UpdateSet(ctx, set)
}

func (s *Service) DeleteSet(ctx context.Context, id int64) error {
	return s.repo.DeleteSet(ctx, id)
}

func (s *Service) UploadSetImage(ctx context.Context, setID int64, file *multipart.FileHeader) (string, error) {
	if s.storage == nil {
		return "", core.Invalid("image storage is not configured")
	}

	set, err := s.repo.GetSet(ctx, setID)
	if err != nil {
		return "", err
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	url, err := s.storage.Upload(ctx, imageKey("sets", setID, file.Filename), f)
	if err != nil {
		return "", err
	}

	set.ImageURL = url
	if err := s.repo.UpdateSet(ctx, set); err != nil {
		return "", err
	}
	return url, nil
}

// ---------------------------------------------------------------------------
// Set composition
// ---------------------------------------------------------------------------

func (s *Service) Composition(ctx context.Context, setID int64) ([]SetItem, error) {
	if _, err := s.repo.GetSet(ctx, setID); err != nil {
		return nil, err
	}
	return s.repo.Composition(ctx, setID)
}

func (s *Service) AddSetItem(ctx context.Context, item *SetItem) error {
	if item.Quantity <= 0 {
		return core.Invalid("quantity must be positive")
	}
	if err := s.repo.AddSetItem(ctx, item); err != nil {
		return err
	}
	logrus.WithField("set_id", item.SetID).Info("composition changed, cost recomputed")
	return nil
}

func (s *Service) UpdateSetItem(ctx context.Context, setID, rollID int64, quantity int) error {
	if quantity <= 0 {
		return core.Invalid("quantity must be positive")
	}
	if err := s.repo.UpdateSetItem(ctx, setID, rollID, quantity); err != nil {
		return err
	}
	logrus.WithField("set_id", setID).Info("composition changed, cost recomputed")
	return nil
}

func (s *Service) RemoveSetItem(ctx context.Context, setID, rollID int64) error {
	if err := s.repo.RemoveSetItem(ctx, setID, rollID); err != nil {
		return err
	}
	logrus.WithField("set_id", setID).Info("composition changed, cost recomputed")
	return nil
}
