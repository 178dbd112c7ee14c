package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the BOM
// reads below can run standalone or inside a recompute transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// inTx runs fn inside one transaction, committing on success.
func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --------------------------------------------------
// ROLLS
// --------------------------------------------------

const rollColumns = `id, name, COALESCE(description, ''), cost_price, sale_price,
	COALESCE(image_url, ''), is_popular, is_new, created_at, updated_at`

func scanRoll(row pgx.Row, r *Roll) error {
	return row.Scan(
		&r.ID, &r.Name, &r.Description, &r.CostPrice, &r.SalePrice,
		&r.ImageURL, &r.IsPopular, &r.IsNew, &r.CreatedAt, &r.UpdatedAt,
	)
}

func (r *PostgresRepository) GetRoll(ctx context.Context, id int64) (*Roll, error) {
	roll := &Roll{}
	err := scanRoll(r.db.QueryRow(ctx, `
		SELECT `+rollColumns+` FROM rolls WHERE id = $1
	`, id), roll)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NotFound("roll", id)
		}
		return nil, err
	}
	return roll, nil
}

func (r *PostgresRepository) ListRolls(ctx context.Context) ([]Roll, error) {
	rows, err := r.db.Query(ctx, `SELECT `+rollColumns+` FROM rolls ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rolls []Roll
	for rows.Next() {
		var roll Roll
		if err := scanRoll(rows, &roll); err != nil {
			return nil, err
		}
		rolls = append(rolls, roll)
	}
	return rolls, rows.Err()
}

func (r *PostgresRepository) CreateRoll(ctx context.Context, roll *Roll) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO rolls (name, description, cost_price, sale_price, image_url, is_popular, is_new)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, roll.Name, roll.Description, roll.CostPrice, roll.SalePrice,
		roll.ImageURL, roll.IsPopular, roll.IsNew).
		Scan(&roll.ID, &roll.CreatedAt, &roll.UpdatedAt)
}

func (r *PostgresRepository) UpdateRoll(ctx context.Context, roll *Roll) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE rolls
		SET name = $1, description = $2, sale_price = $3, image_url = $4,
		    is_popular = $5, is_new = $6, updated_at = now()
		WHERE id = $7
	`, roll.Name, roll.Description, roll.SalePrice, roll.ImageURL,
		roll.IsPopular, roll.IsNew, roll.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return core.NotFound("roll", roll.ID)
	}
	return nil
}

func (r *PostgresRepository) DeleteRoll(ctx context.Context, id int64) error {
	// recipe lines cascade with the roll
	cmd, err := r.db.Exec(ctx, `DELETE FROM rolls WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return core.NotFound("roll", id)
	}
	return nil
}

// --------------------------------------------------
// RECIPE LINES
// --------------------------------------------------

func (r *PostgresRepository) Recipe(ctx context.Context, rollID int64) ([]RecipeLine, error) {
	return recipe(ctx, r.db, rollID)
}

func recipe(ctx context.Context, q querier, rollID int64) ([]RecipeLine, error) {
	rows, err := q.Query(ctx, `
		SELECT rr.roll_id, rr.ingredient_id, rr.amount_per_roll,
		       i.name, i.unit, i.cost_per_unit, i.stock_quantity
		FROM roll_recipes rr
		JOIN ingredients i ON i.id = rr.ingredient_id
		WHERE rr.roll_id = $1
		ORDER BY rr.ingredient_id
	`, rollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []RecipeLine
	for rows.Next() {
		var l RecipeLine
		if err := rows.Scan(
			&l.RollID, &l.IngredientID, &l.AmountPerRoll,
			&l.IngredientName, &l.Unit, &l.CostPerUnit, &l.StockQuantity,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *PostgresRepository) AddRecipeLine(ctx context.Context, line *RecipeLine) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO roll_recipes (roll_id, ingredient_id, amount_per_roll)
			VALUES ($1, $2, $3)
		`, line.RollID, line.IngredientID, line.AmountPerRoll)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case "23505": // unique_violation
					return core.Invalid("ingredient %d is already in the recipe of roll %d",
						line.IngredientID, line.RollID)
				case "23503": // foreign_key_violation
					return core.NotFound("roll or ingredient", line.RollID)
				}
			}
			return err
		}
		return recomputeRoll(ctx, tx, line.RollID)
	})
}

func (r *PostgresRepository) UpdateRecipeLine(ctx context.Context, rollID, ingredientID int64, amount decimal.Decimal) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
			UPDATE roll_recipes SET amount_per_roll = $1
			WHERE roll_id = $2 AND ingredient_id = $3
		`, amount, rollID, ingredientID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return core.NotFound("recipe line", ingredientID)
		}
		return recomputeRoll(ctx, tx, rollID)
	})
}

func (r *PostgresRepository) RemoveRecipeLine(ctx context.Context, rollID, ingredientID int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
			DELETE FROM roll_recipes WHERE roll_id = $1 AND ingredient_id = $2
		`, rollID, ingredientID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return core.NotFound("recipe line", ingredientID)
		}
		return recomputeRoll(ctx, tx, rollID)
	})
}

func (r *PostgresRepository) RecomputeRoll(ctx context.Context, rollID int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return recomputeRoll(ctx, tx, rollID)
	})
}

// recomputeRoll rewrites the roll's cost from its recipe and cascades
// into every set containing it, all on the caller's transaction.
func recomputeRoll(ctx context.Context, tx pgx.Tx, rollID int64) error {
	lines, err := recipe(ctx, tx, rollID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE rolls SET cost_price = $1, updated_at = now() WHERE id = $2
	`, RecipeCost(lines), rollID); err != nil {
		return err
	}

	setIDs, err := setsContainingRoll(ctx, tx, rollID)
	if err != nil {
		return err
	}
	for _, setID := range setIDs {
		if err := recomputeSet(ctx, tx, setID); err != nil {
			return err
		}
	}
	return nil
}

func recomputeSet(ctx context.Context, tx pgx.Tx, setID int64) error {
	items, err := composition(ctx, tx, setID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE sets SET cost_price = $1, updated_at = now() WHERE id = $2
	`, CompositionCost(items), setID)
	return err
}

// --------------------------------------------------
// SETS
// --------------------------------------------------

const setColumns = `id, name, COALESCE(description, ''), cost_price, set_price,
	COALESCE(image_url, ''), is_popular, is_new, created_at, updated_at`

func scanSet(row pgx.Row, s *Set) error {
	return row.Scan(
		&s.ID, &s.Name, &s.Description, &s.CostPrice, &s.SetPrice,
		&s.ImageURL, &s.IsPopular, &s.IsNew, &s.CreatedAt, &s.UpdatedAt,
	)
}

func (r *PostgresRepository) GetSet(ctx context.Context, id int64) (*Set, error) {
	set := &Set{}
	err := scanSet(r.db.QueryRow(ctx, `
		SELECT `+setColumns+` FROM sets WHERE id = $1
	`, id), set)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NotFound("set", id)
		}
		return nil, err
	}
	return set, nil
}

func (r *PostgresRepository) ListSets(ctx context.Context) ([]Set, error) {
	rows, err := r.db.Query(ctx, `SELECT `+setColumns+` FROM sets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []Set
	for rows.Next() {
		var s Set
		if err := scanSet(rows, &s); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (r *PostgresRepository) CreateSet(ctx context.Context, set *Set) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO sets (name, description, cost_price, set_price, image_url, is_popular, is_new)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, set.Name, set.Description, set.CostPrice, set.SetPrice,
		set.ImageURL, set.IsPopular, set.IsNew).
		Scan(&set.ID, &set.CreatedAt, &set.UpdatedAt)
}

func (r *PostgresRepository) UpdateSet(ctx context.Context, set *Set) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE sets
		SET name = $1, description = $2, set_price = $3, image_url = $4,
		    is_popular = $5, is_new = $6, updated_at = now()
		WHERE id = $7
	`, set.Name, set.Description, set.SetPrice, set.ImageURL,
		set.IsPopular, set.IsNew, set.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return core.NotFound("set", set.ID)
	}
	return nil
}

func (r *PostgresRepository) DeleteSet(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM sets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return core.NotFound("set", id)
	}
	return nil
}

// --------------------------------------------------
// SET COMPOSITION
// --------------------------------------------------

func (r *PostgresRepository) Composition(ctx context.Context, setID int64) ([]SetItem, error) {
	return composition(ctx, r.db, setID)
}

func composition(ctx context.Context, q querier, setID int64) ([]SetItem, error) {
	rows, err := q.Query(ctx, `
		SELECT sr.set_id, sr.roll_id, sr.quantity,
		       rl.name, rl.cost_price, rl.sale_price
		FROM set_rolls sr
		JOIN rolls rl ON rl.id = sr.roll_id
		WHERE sr.set_id = $1
		ORDER BY sr.roll_id
	`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SetItem
	for rows.Next() {
		var it SetItem
		if err := rows.Scan(
			&it.SetID, &it.RollID, &it.Quantity,
			&it.RollName, &it.RollCostPrice, &it.RollSalePrice,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) AddSetItem(ctx context.Context, item *SetItem) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO set_rolls (set_id, roll_id, quantity)
			VALUES ($1, $2, $3)
		`, item.SetID, item.RollID, item.Quantity)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case "23505":
					return core.Invalid("roll %d is already in set %d", item.RollID, item.SetID)
				case "23503":
					return core.NotFound("set or roll", item.SetID)
				}
			}
			return err
		}
		return recomputeSet(ctx, tx, item.SetID)
	})
}

func (r *PostgresRepository) UpdateSetItem(ctx context.Context, setID, rollID int64, quantity int) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
			UPDATE set_rolls SET quantity = $1 WHERE set_id = $2 AND roll_id = $3
		`, quantity, setID, rollID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return core.NotFound("set composition line", rollID)
		}
		return recomputeSet(ctx, tx, setID)
	})
}

func (r *PostgresRepository) RemoveSetItem(ctx context.Context, setID, rollID int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
			DELETE FROM set_rolls WHERE set_id = $1 AND roll_id = $2
		`, setID, rollID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return core.NotFound("set composition line", rollID)
		}
		return recomputeSet(ctx, tx, setID)
	})
}

func (r *PostgresRepository) RollsUsingIngredient(ctx context.Context, ingredientID int64) ([]int64, error) {
	return scanIDs(r.db.Query(ctx, `
		SELECT roll_id FROM roll_recipes WHERE ingredient_id = $1 ORDER BY roll_id
	`, ingredientID))
}

func (r *PostgresRepository) SetsContainingRoll(ctx context.Context, rollID int64) ([]int64, error) {
	return setsContainingRoll(ctx, r.db, rollID)
}

func setsContainingRoll(ctx context.Context, q querier, rollID int64) ([]int64, error) {
	return scanIDs(q.Query(ctx, `
		SELECT set_id FROM set_rolls WHERE roll_id = $1 ORDER BY set_id
	`, rollID))
}

func scanIDs(rows pgx.Rows, err error) ([]int64, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
