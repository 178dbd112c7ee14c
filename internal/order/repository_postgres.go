package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
	"github.com/anteyko-labs/sushi-flutter/internal/ingredient"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// lockConflict reports the pg errors raised when two checkouts fight
// over the same ingredient rows: serialization failure, deadlock, lock
// timeout. They surface as ErrConcurrencyConflict (409) so the client
// simply retries.
func lockConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

// Create runs the whole fulfillment inside one transaction. Ingredient
// rows are locked in id order so two concurrent orders over the same
// ingredients cannot deadlock; shortfall detection runs over the FULL
// list before anything is written, so the rejection names every
// problem at once.
func (r *PostgresRepository) Create(ctx context.Context, o *Order, consumption []IngredientNeed, clearCartFor string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	sort.Slice(consumption, func(i, j int) bool {
		return consumption[i].IngredientID < consumption[j].IngredientID
	})

	type locked struct {
		need  IngredientNeed
		stock decimal.Decimal
	}
	var (
		lockedRows []locked
		shortfalls []core.Shortfall
	)
	for _, need := range consumption {
		var stock decimal.Decimal
		err := tx.QueryRow(ctx, `
			SELECT stock_quantity FROM ingredients WHERE id = $1 FOR UPDATE
		`, need.IngredientID).Scan(&stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return core.NotFound("ingredient", need.IngredientID)
			}
			if lockConflict(err) {
				return core.ErrConcurrencyConflict
			}
			return err
		}
		if stock.LessThan(need.Amount) {
			shortfalls = append(shortfalls, core.Shortfall{
				IngredientID:   need.IngredientID,
				IngredientName: need.Name,
				Have:           stock,
				Need:           need.Amount,
			})
			continue
		}
		lockedRows = append(lockedRows, locked{need: need, stock: stock})
	}
	if len(shortfalls) > 0 {
		return &core.InsufficientStockError{Shortfalls: shortfalls}
	}

	now := time.Now().UTC()
	o.Status = StatusAccepted
	o.CreatedAt = now
	o.UpdatedAt = now
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, phone, delivery_address, payment_method, status, total_price, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`, o.UserID, o.Phone, o.DeliveryAddress, o.PaymentMethod, o.Status, o.TotalPrice, o.Comment, now).Scan(&o.ID)
	if err != nil {
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, item_type, item_id, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, it.OrderID, it.ItemType, it.ItemID, it.Quantity, it.UnitPrice, it.TotalPrice).Scan(&it.ID)
		if err != nil {
			return err
		}
	}

	for _, row := range lockedRows {
		after := row.stock.Sub(row.need.Amount)
		if _, err := tx.Exec(ctx, `
			UPDATE ingredients SET stock_quantity = $1, updated_at = now() WHERE id = $2
		`, after, row.need.IngredientID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_movements (id, ingredient_id, delta, stock_before, stock_after, reason, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New().String(), row.need.IngredientID, row.need.Amount.Neg(), row.stock, after,
			ingredient.ReasonReservation, fmt.Sprintf("заказ #%d", o.ID), now); err != nil {
			return err
		}
	}

	if clearCartFor != "" {
		if _, err := tx.Exec(ctx, `
			UPDATE carts SET items = '[]'::jsonb, updated_at = now() WHERE user_id = $1
		`, clearCartFor); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if lockConflict(err) {
			return core.ErrConcurrencyConflict
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Order, error) {
	o := &Order{}
	var comment *string
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, phone, delivery_address, payment_method, status, total_price, comment, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&o.ID, &o.UserID, &o.Phone, &o.DeliveryAddress, &o.PaymentMethod,
		&o.Status, &o.TotalPrice, &comment, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NotFound("order", id)
		}
		return nil, err
	}
	if comment != nil {
		o.Comment = *comment
	}

	items, err := r.items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *PostgresRepository) items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, item_type, item_id, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemType, &it.ItemID,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, phone, delivery_address, payment_method, status, total_price, comment, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, phone, delivery_address, payment_method, status, total_price, comment, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var (
			o       Order
			comment *string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.Phone, &o.DeliveryAddress, &o.PaymentMethod,
			&o.Status, &o.TotalPrice, &comment, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if comment != nil {
			o.Comment = *comment
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("order", id)
	}
	return nil
}

// JournalUsage relies on the (order_id, ingredient_id) primary key: a
// second journaling attempt inserts nothing.
func (r *PostgresRepository) JournalUsage(ctx context.Context, orderID int64, usage []IngredientNeed) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM order_ingredients WHERE order_id = $1)
	`, orderID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	for _, u := range usage {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_ingredients (order_id, ingredient_id, used_amount)
			VALUES ($1, $2, $3)
			ON CONFLICT (order_id, ingredient_id) DO NOTHING
		`, orderID, u.IngredientID, u.Amount); err != nil {
			return false, err
		}
	}
	return true, tx.Commit(ctx)
}

func (r *PostgresRepository) Usage(ctx context.Context, orderID int64) ([]IngredientNeed, error) {
	rows, err := r.db.Query(ctx, `
		SELECT oi.ingredient_id, i.name, oi.used_amount
		FROM order_ingredients oi
		JOIN ingredients i ON i.id = oi.ingredient_id
		WHERE oi.order_id = $1
		ORDER BY oi.ingredient_id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []IngredientNeed
	for rows.Next() {
		var n IngredientNeed
		if err := rows.Scan(&n.IngredientID, &n.Name, &n.Amount); err != nil {
			return nil, err
		}
		usage = append(usage, n)
	}
	return usage, rows.Err()
}
