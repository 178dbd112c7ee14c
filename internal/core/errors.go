package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Business-rule rejections for order creation.
var (
	ErrEmptyOrder    = errors.New("order contains no items")
	ErrNoPaidItems   = errors.New("order contains no paid items")
	ErrNegativeTotal = errors.New("order total cannot be negative")
)

// ErrConcurrencyConflict is returned when stock changed between the
// availability check and the commit of the reserving transaction.
var ErrConcurrencyConflict = errors.New("stock changed concurrently, retry the order")

// NotFoundError identifies a missing entity by kind and id.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func NotFound(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError reports malformed or rule-breaking input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Shortfall is one ingredient that cannot cover the requested amount.
type Shortfall struct {
	IngredientID   int64           `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Have           decimal.Decimal `json:"have"`
	Need           decimal.Decimal `json:"need"`
}

func (s Shortfall) String() string {
	if !s.Have.IsPositive() {
		return fmt.Sprintf("%s: out of stock", s.IngredientName)
	}
	return fmt.Sprintf("%s: have %s, need %s", s.IngredientName, s.Have, s.Need)
}

// InsufficientStockError carries EVERY shortfall, not just the first,
// so the caller can show one consolidated message.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = s.String()
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
