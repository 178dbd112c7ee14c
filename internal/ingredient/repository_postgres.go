package ingredient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Ingredient, error) {
	ing := &Ingredient{}

	err := r.db.QueryRow(ctx, `
		SELECT id, name, unit, stock_quantity, cost_per_unit, price_per_unit,
		       created_at, updated_at
		FROM ingredients
		WHERE id = $1
	`, id).Scan(
		&ing.ID, &ing.Name, &ing.Unit, &ing.StockQuantity,
		&ing.CostPerUnit, &ing.PricePerUnit, &ing.CreatedAt, &ing.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NotFound("ingredient", id)
		}
		return nil, err
	}

	return ing, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Ingredient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, unit, stock_quantity, cost_per_unit, price_per_unit,
		       created_at, updated_at
		FROM ingredients
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(
			&ing.ID, &ing.Name, &ing.Unit, &ing.StockQuantity,
			&ing.CostPerUnit, &ing.PricePerUnit, &ing.CreatedAt, &ing.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, ing)
	}

	return list, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, ing *Ingredient) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO ingredients (name, unit, stock_quantity, cost_per_unit, price_per_unit)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, ing.Name, ing.Unit, ing.StockQuantity, ing.CostPerUnit, ing.PricePerUnit).
		Scan(&ing.ID, &ing.CreatedAt, &ing.UpdatedAt)
}

func (r *PostgresRepository) Update(ctx context.Context, ing *Ingredient) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE ingredients
		SET name = $1, unit = $2, cost_per_unit = $3, price_per_unit = $4,
		    updated_at = now()
		WHERE id = $5
	`, ing.Name, ing.Unit, ing.CostPerUnit, ing.PricePerUnit, ing.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return core.NotFound("ingredient", ing.ID)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return core.NotFound("ingredient", id)
	}
	return nil
}

// AdjustStock locks the row, validates the resulting quantity and
// writes the movement in the same transaction.
func (r *PostgresRepository) AdjustStock(ctx context.Context, id int64, m *StockMovement) (*StockMovement, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT stock_quantity FROM ingredients WHERE id = $1 FOR UPDATE
	`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NotFound("ingredient", id)
		}
		return nil, err
	}

	after := current.Add(m.Delta)
	if after.IsNegative() {
		return nil, core.Invalid("stock of ingredient %d cannot go below zero (have %s, delta %s)",
			id, current, m.Delta)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE ingredients SET stock_quantity = $1, updated_at = now() WHERE id = $2
	`, after, id); err != nil {
		return nil, err
	}

	m.ID = uuid.New().String()
	m.IngredientID = id
	m.StockBefore = current
	m.StockAfter = after
	m.CreatedAt = time.Now().UTC()

	if _, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (id, ingredient_id, delta, stock_before, stock_after, reason, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.IngredientID, m.Delta, m.StockBefore, m.StockAfter, m.Reason, m.Comment, m.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return m, nil
}

func (r *PostgresRepository) Movements(ctx context.Context, ingredientID int64) ([]StockMovement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ingredient_id, delta, stock_before, stock_after, reason, comment, created_at
		FROM stock_movements
		WHERE ingredient_id = $1
		ORDER BY created_at DESC
	`, ingredientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []StockMovement
	for rows.Next() {
		var m StockMovement
		var comment *string
		if err := rows.Scan(
			&m.ID, &m.IngredientID, &m.Delta, &m.StockBefore, &m.StockAfter,
			&m.Reason, &comment, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		if comment != nil {
			m.Comment = *comment
		}
		list = append(list, m)
	}

	return list, rows.Err()
}

func (r *PostgresRepository) InUse(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx, `
		SELECT 1 FROM roll_recipes WHERE ingredient_id = $1 LIMIT 1
	`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
