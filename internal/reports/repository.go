package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs the back-office aggregates straight against the
// database; there is no domain logic to put behind an interface here.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// IngredientUsage sums journaled usage per ingredient for orders
// placed inside the period. Cost is priced at the CURRENT unit cost.
func (r *Repository) IngredientUsage(ctx context.Context, from, to time.Time) ([]IngredientUsageRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.name, i.unit,
		       SUM(oi.used_amount) AS total_used,
		       SUM(oi.used_amount * i.cost_per_unit) AS total_cost
		FROM order_ingredients oi
		JOIN orders o ON o.id = oi.order_id
		JOIN ingredients i ON i.id = oi.ingredient_id
		WHERE o.created_at >= $1 AND o.created_at < $2
		GROUP BY i.id, i.name, i.unit
		ORDER BY total_cost DESC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []IngredientUsageRow
	for rows.Next() {
		var row IngredientUsageRow
		if err := rows.Scan(&row.IngredientID, &row.Name, &row.Unit,
			&row.TotalUsed, &row.TotalCost); err != nil {
			return nil, err
		}
		usage = append(usage, row)
	}
	return usage, rows.Err()
}

func (r *Repository) Sales(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	s := &SalesSummary{From: from, To: to, Revenue: decimal.Zero, AverageOrder: decimal.Zero}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&s.Orders, &s.Revenue)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(oi.used_amount * i.cost_per_unit), 0)
		FROM order_ingredients oi
		JOIN orders o ON o.id = oi.order_id
		JOIN ingredients i ON i.id = oi.ingredient_id
		WHERE o.created_at >= $1 AND o.created_at < $2
	`, from, to).Scan(&s.Cost)
	if err != nil {
		return nil, err
	}

	s.Profit = s.Revenue.Sub(s.Cost)
	if s.Orders > 0 {
		s.AverageOrder = s.Revenue.Div(decimal.NewFromInt(s.Orders))
	}
	return s, nil
}

// TopItems ranks positions by sold quantity. Names are resolved per
// item type; a position deleted from the catalog keeps its row with an
// empty name.
func (r *Repository) TopItems(ctx context.Context, from, to time.Time, limit int) ([]TopItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT oi.item_type, oi.item_id,
		       COALESCE(
		           CASE oi.item_type
		               WHEN 'set' THEN (SELECT name FROM sets WHERE id = oi.item_id)
		               ELSE (SELECT name FROM rolls WHERE id = oi.item_id)
		           END, ''),
		       SUM(oi.quantity) AS quantity,
		       SUM(oi.total_price) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= $1 AND o.created_at < $2
		GROUP BY oi.item_type, oi.item_id
		ORDER BY quantity DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TopItem
	for rows.Next() {
		var it TopItem
		if err := rows.Scan(&it.ItemType, &it.ItemID, &it.Name, &it.Quantity, &it.Revenue); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
