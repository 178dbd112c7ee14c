package db

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func ConnectPostgres() *pgxpool.Pool {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logrus.Fatal("DATABASE_URL not set")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logrus.WithError(err).Fatal("invalid DATABASE_URL")
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create pool")
	}

	if err := pool.Ping(context.Background()); err != nil {
		logrus.WithError(err).Fatal("postgres connection failed")
	}

	logrus.Info("connected to PostgreSQL")

	if err := initSchema(pool); err != nil {
		logrus.WithError(err).Fatal("failed to initialize schema")
	}

	return pool
}

// initSchema creates or updates the database schema. Every statement is
// idempotent so restarts are safe.
//
// Column names preserve the back-office contract: ingredients keep
// id/name/stock_quantity/unit/cost_per_unit/price_per_unit, recipe rows
// keep roll_id/ingredient_id/amount_per_roll, composition rows keep
// set_id/roll_id/quantity.
func initSchema(pool *pgxpool.Pool) error {
	ctx := context.Background()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(120) UNIQUE NOT NULL,
			phone VARCHAR(20) NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(50) NOT NULL DEFAULT 'USER',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS ingredients (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			unit VARCHAR(20) NOT NULL,
			stock_quantity NUMERIC(20,4) NOT NULL DEFAULT 0,
			cost_per_unit NUMERIC(20,4) NOT NULL,
			price_per_unit NUMERIC(20,4) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS stock_movements (
			id UUID PRIMARY KEY,
			ingredient_id BIGINT NOT NULL REFERENCES ingredients(id),
			delta NUMERIC(20,4) NOT NULL,
			stock_before NUMERIC(20,4) NOT NULL,
			stock_after NUMERIC(20,4) NOT NULL,
			reason VARCHAR(50) NOT NULL,
			comment TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_movements_ingredient
			ON stock_movements (ingredient_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS rolls (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			description TEXT,
			cost_price NUMERIC(20,4) NOT NULL DEFAULT 0,
			sale_price NUMERIC(20,4) NOT NULL DEFAULT 0,
			image_url VARCHAR(500),
			is_popular BOOLEAN NOT NULL DEFAULT FALSE,
			is_new BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS roll_recipes (
			roll_id BIGINT NOT NULL REFERENCES rolls(id) ON DELETE CASCADE,
			ingredient_id BIGINT NOT NULL REFERENCES ingredients(id),
			amount_per_roll NUMERIC(20,4) NOT NULL,
			PRIMARY KEY (roll_id, ingredient_id)
		)`,

		`CREATE TABLE IF NOT EXISTS sets (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			description TEXT,
			cost_price NUMERIC(20,4) NOT NULL DEFAULT 0,
			set_price NUMERIC(20,4) NOT NULL DEFAULT 0,
			image_url VARCHAR(500),
			is_popular BOOLEAN NOT NULL DEFAULT FALSE,
			is_new BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS set_rolls (
			set_id BIGINT NOT NULL REFERENCES sets(id) ON DELETE CASCADE,
			roll_id BIGINT NOT NULL REFERENCES rolls(id),
			quantity INT NOT NULL DEFAULT 1,
			PRIMARY KEY (set_id, roll_id)
		)`,

		`CREATE TABLE IF NOT EXISTS carts (
			user_id UUID PRIMARY KEY REFERENCES users(id),
			items JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			phone VARCHAR(20) NOT NULL,
			delivery_address TEXT NOT NULL,
			payment_method VARCHAR(50) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'Принят',
			total_price NUMERIC(20,4) NOT NULL,
			comment TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS order_items (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			item_type VARCHAR(20) NOT NULL,
			item_id BIGINT NOT NULL,
			quantity INT NOT NULL,
			unit_price NUMERIC(20,4) NOT NULL,
			total_price NUMERIC(20,4) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS order_ingredients (
			order_id BIGINT NOT NULL REFERENCES orders(id),
			ingredient_id BIGINT NOT NULL REFERENCES ingredients(id),
			used_amount NUMERIC(20,4) NOT NULL,
			PRIMARY KEY (order_id, ingredient_id)
		)`,

		`CREATE TABLE IF NOT EXISTS loyalty_cards (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			card_number VARCHAR(50) NOT NULL,
			filled_rolls INT NOT NULL DEFAULT 0,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS loyalty_rolls (
			id BIGSERIAL PRIMARY KEY,
			roll_id BIGINT NOT NULL REFERENCES rolls(id),
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS loyalty_card_usage (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			loyalty_card_id BIGINT NOT NULL REFERENCES loyalty_cards(id),
			roll_id BIGINT NOT NULL REFERENCES rolls(id),
			order_id BIGINT REFERENCES orders(id),
			used_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	logrus.Info("schema initialized")
	return nil
}
