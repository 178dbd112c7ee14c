package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anteyko-labs/sushi-flutter/internal/core"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const cardColumns = "id, user_id, card_number, filled_rolls, is_completed, created_at, completed_at"

func (r *PostgresRepository) ActiveCard(ctx context.Context, userID string) (*Card, error) {
	card := &Card{}
	err := r.db.QueryRow(ctx, `
		SELECT `+cardColumns+`
		FROM loyalty_cards
		WHERE user_id = $1 AND is_completed = FALSE
		ORDER BY created_at
		LIMIT 1
	`, userID).Scan(&card.ID, &card.UserID, &card.CardNumber, &card.FilledRolls,
		&card.IsCompleted, &card.CreatedAt, &card.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return card, nil
}

func (r *PostgresRepository) CreateCard(ctx context.Context, card *Card) error {
	card.CreatedAt = time.Now().UTC()
	return r.db.QueryRow(ctx, `
		INSERT INTO loyalty_cards (user_id, card_number, filled_rolls, is_completed, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, card.UserID, card.CardNumber, card.FilledRolls, card.IsCompleted,
		card.CreatedAt, card.CompletedAt).Scan(&card.ID)
}

func (r *PostgresRepository) UpdateCard(ctx context.Context, card *Card) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE loyalty_cards
		SET filled_rolls = $1, is_completed = $2, completed_at = $3
		WHERE id = $4
	`, card.FilledRolls, card.IsCompleted, card.CompletedAt, card.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("loyalty card", card.ID)
	}
	return nil
}

func (r *PostgresRepository) Cards(ctx context.Context, userID string) ([]Card, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+cardColumns+`
		FROM loyalty_cards
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.UserID, &c.CardNumber, &c.FilledRolls,
			&c.IsCompleted, &c.CreatedAt, &c.CompletedAt); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *PostgresRepository) RedeemableCard(ctx context.Context, userID string) (*Card, error) {
	card := &Card{}
	err := r.db.QueryRow(ctx, `
		SELECT `+cardColumns+`
		FROM loyalty_cards c
		WHERE c.user_id = $1 AND c.is_completed = TRUE
		  AND NOT EXISTS (SELECT 1 FROM loyalty_card_usage u WHERE u.loyalty_card_id = c.id)
		ORDER BY c.created_at
		LIMIT 1
	`, userID).Scan(&card.ID, &card.UserID, &card.CardNumber, &card.FilledRolls,
		&card.IsCompleted, &card.CreatedAt, &card.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return card, nil
}

func (r *PostgresRepository) AvailableRolls(ctx context.Context) ([]Roll, error) {
	rows, err := r.db.Query(ctx, `
		SELECT lr.id, lr.roll_id, lr.is_available, lr.created_at,
		       r.name, COALESCE(r.image_url, '')
		FROM loyalty_rolls lr
		JOIN rolls r ON r.id = lr.roll_id
		WHERE lr.is_available = TRUE
		ORDER BY lr.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Roll
	for rows.Next() {
		var lr Roll
		if err := rows.Scan(&lr.ID, &lr.RollID, &lr.IsAvailable, &lr.CreatedAt,
			&lr.RollName, &lr.RollImageURL); err != nil {
			return nil, err
		}
		list = append(list, lr)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) AddRoll(ctx context.Context, rollID int64) (*Roll, error) {
	lr := &Roll{RollID: rollID, IsAvailable: true, CreatedAt: time.Now().UTC()}
	err := r.db.QueryRow(ctx, `
		INSERT INTO loyalty_rolls (roll_id, is_available, created_at)
		VALUES ($1, TRUE, $2)
		RETURNING id
	`, rollID, lr.CreatedAt).Scan(&lr.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, core.NotFound("roll", rollID)
		}
		return nil, err
	}
	return lr, nil
}

func (r *PostgresRepository) SetRollAvailability(ctx context.Context, id int64, available bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE loyalty_rolls SET is_available = $1 WHERE id = $2
	`, available, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NotFound("loyalty roll", id)
	}
	return nil
}

func (r *PostgresRepository) IsRollAvailable(ctx context.Context, rollID int64) (bool, error) {
	var available bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM loyalty_rolls WHERE roll_id = $1 AND is_available = TRUE
		)
	`, rollID).Scan(&available)
	return available, err
}

func (r *PostgresRepository) RecordUsage(ctx context.Context, usage *Usage) error {
	usage.UsedAt = time.Now().UTC()
	return r.db.QueryRow(ctx, `
		INSERT INTO loyalty_card_usage (user_id, loyalty_card_id, roll_id, order_id, used_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, usage.UserID, usage.CardID, usage.RollID, usage.OrderID, usage.UsedAt).Scan(&usage.ID)
}

func (r *PostgresRepository) History(ctx context.Context, userID string) ([]Usage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.user_id, u.loyalty_card_id, u.roll_id, u.order_id, u.used_at,
		       r.name, c.card_number
		FROM loyalty_card_usage u
		JOIN rolls r ON r.id = u.roll_id
		JOIN loyalty_cards c ON c.id = u.loyalty_card_id
		WHERE u.user_id = $1
		ORDER BY u.used_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Usage
	for rows.Next() {
		var u Usage
		if err := rows.Scan(&u.ID, &u.UserID, &u.CardID, &u.RollID, &u.OrderID,
			&u.UsedAt, &u.RollName, &u.CardNumber); err != nil {
			return nil, err
		}
		history = append(history, u)
	}
	return history, rows.Err()
}
