package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*Cart, error) {
	cart := &Cart{UserID: userID}

	var raw []byte
	err := r.db.QueryRow(ctx, `
		SELECT items, updated_at
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&raw, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			cart.Items = []Line{}
			return cart, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(raw, &cart.Items); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *PostgresRepository) Save(ctx context.Context, cart *Cart) error {
	raw, err := json.Marshal(cart.Items)
	if err != nil {
		return err
	}

	cart.UpdatedAt = time.Now().UTC()
	_, err = r.db.Exec(ctx, `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET items = $2, updated_at = $3
	`, cart.UserID, raw, cart.UpdatedAt)
	return err
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE carts SET items = '[]'::jsonb, updated_at = NOW()
		WHERE user_id = $1
	`, userID)
	return err
}

func (r *PostgresRepository) Create(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, '[]'::jsonb, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}
