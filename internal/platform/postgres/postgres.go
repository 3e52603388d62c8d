// Package postgres opens the database handle and bootstraps the schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables if they don't exist yet. Statements are
// ordered parent-first so foreign keys always reference existing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS countries (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS regions (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		country_id BIGINT REFERENCES countries(id),
		UNIQUE (country_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS districts (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		region_id BIGINT REFERENCES regions(id),
		UNIQUE (region_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS cities (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		country_id BIGINT NOT NULL REFERENCES countries(id),
		region_id BIGINT REFERENCES regions(id),
		district_id BIGINT REFERENCES districts(id),
		UNIQUE (country_id, region_id, district_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS streets (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		city_id BIGINT NOT NULL REFERENCES cities(id),
		UNIQUE (city_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id BIGSERIAL PRIMARY KEY,
		city_id BIGINT NOT NULL REFERENCES cities(id),
		street_id BIGINT REFERENCES streets(id),
		building VARCHAR(16),
		adds VARCHAR(16),
		office VARCHAR(16)
	)`,
	`CREATE TABLE IF NOT EXISTS phones (
		id BIGSERIAL PRIMARY KEY,
		number BIGINT NOT NULL,
		address_id BIGINT NOT NULL REFERENCES addresses(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS phones_address_id_idx ON phones (address_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS owners (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS institutions (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		owner_id BIGINT NOT NULL REFERENCES owners(id),
		address_id BIGINT NOT NULL REFERENCES addresses(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id BIGSERIAL PRIMARY KEY,
		event_type VARCHAR(100) NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		published_at TIMESTAMPTZ
	)`,
}
