// Package postgres provides the PostgreSQL implementation of the ingredient
// directory, the price store, and recipe persistence.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"recipe-cost/costing/pricing"
	"recipe-cost/costing/standardize"
	"recipe-cost/costing/units"
)

// Config holds PostgreSQL connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		Database: "recipecost",
		Username: "postgres",
		Password: "",
		SSLMode:  "disable",
	}
}

// DSN renders the config as a lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode)
}

// Store implements standardize.Directory, pricing.PriceStore, and
// pricing.ParsedQuantitySink over PostgreSQL.
type Store struct {
	db  *sql.DB
	cfg *Config
}

// NewStore opens a connection pool against the configured database.
func NewStore(cfg *Config) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db, cfg: cfg}, nil
}

// NewStoreFromDSN creates a store from a raw connection string.
func NewStoreFromDSN(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return &Store{db: db}, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ingredients (
		id UUID PRIMARY KEY,
		canonical_name VARCHAR(100) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ingredient_prices (
		id UUID PRIMARY KEY,
		ingredient_id UUID NOT NULL REFERENCES ingredients(id),
		price NUMERIC(12,4) NOT NULL,
		unit VARCHAR(32) NOT NULL,
		basis_quantity NUMERIC(12,4) NOT NULL DEFAULT 1,
		country_code CHAR(3) NOT NULL,
		currency CHAR(3) NOT NULL DEFAULT 'USD',
		last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prices_lookup
		ON ingredient_prices (ingredient_id, country_code, last_updated DESC)`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id UUID PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		servings INT NOT NULL DEFAULT 4,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS recipe_lines (
		id UUID PRIMARY KEY,
		recipe_id UUID NOT NULL REFERENCES recipes(id),
		position INT NOT NULL,
		raw_text TEXT NOT NULL,
		amount NUMERIC(12,4),
		unit VARCHAR(32),
		ingredient_id UUID REFERENCES ingredients(id)
	)`,
}

// InitSchema creates the tables and indexes if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// =============================================================================
// INGREDIENT DIRECTORY
// =============================================================================

// ResolveOrCreate returns the ingredient row for a canonical name, inserting
// it on first sight. Concurrent first sights race on the unique constraint;
// the loser re-reads the winner's row.
func (s *Store) ResolveOrCreate(canonicalName string) (standardize.CanonicalIngredient, error) {
	return s.ResolveOrCreateContext(context.Background(), canonicalName)
}

func (s *Store) ResolveOrCreateContext(ctx context.Context, canonicalName string) (standardize.CanonicalIngredient, error) {
	var ing standardize.CanonicalIngredient
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO ingredients (id, canonical_name)
		VALUES ($1, $2)
		ON CONFLICT (canonical_name) DO UPDATE SET canonical_name = EXCLUDED.canonical_name
		RETURNING id, canonical_name
	`, uuid.New(), canonicalName).Scan(&ing.ID, &ing.CanonicalName)
	if err != nil {
		return standardize.CanonicalIngredient{}, fmt.Errorf("failed to resolve ingredient %q: %w", canonicalName, err)
	}
	return ing, nil
}

// =============================================================================
// PRICE OPERATIONS
// =============================================================================

// LookupPrice returns the newest price for an (ingredient, country) pair, or
// (nil, nil) when none exists.
func (s *Store) LookupPrice(ctx context.Context, ingredientID, countryCode string) (*pricing.PriceRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT ingredient_id, price, unit, basis_quantity, country_code, currency, last_updated
		FROM ingredient_prices
		WHERE ingredient_id = $1 AND country_code = $2
		ORDER BY last_updated DESC
		LIMIT 1
	`, ingredientID, countryCode)

	var rec pricing.PriceRecord
	var price, basis string
	err := row.Scan(&rec.IngredientID, &price, &rec.Unit, &basis, &rec.CountryCode, &rec.Currency, &rec.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up price: %w", err)
	}
	if rec.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("failed to parse stored price %q: %w", price, err)
	}
	if rec.BasisQuantity, err = decimal.NewFromString(basis); err != nil {
		return nil, fmt.Errorf("failed to parse stored basis %q: %w", basis, err)
	}
	return &rec, nil
}

// UpsertPrice inserts a price record. History is append-only; LookupPrice
// selects the newest row, so an update is just a newer insert.
func (s *Store) UpsertPrice(ctx context.Context, rec pricing.PriceRecord) error {
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingredient_prices (id, ingredient_id, price, unit, basis_quantity, country_code, currency, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), rec.IngredientID, rec.Price.String(), rec.Unit, rec.BasisQuantity.String(),
		rec.CountryCode, rec.Currency, rec.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to insert price: %w", err)
	}
	return nil
}

// ListByCountry returns the newest price per ingredient for a country.
func (s *Store) ListByCountry(ctx context.Context, countryCode string) ([]pricing.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (ingredient_id)
			ingredient_id, price, unit, basis_quantity, country_code, currency, last_updated
		FROM ingredient_prices
		WHERE country_code = $1
		ORDER BY ingredient_id, last_updated DESC
	`, countryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	defer rows.Close()

	var out []pricing.PriceRecord
	for rows.Next() {
		var rec pricing.PriceRecord
		var price, basis string
		if err := rows.Scan(&rec.IngredientID, &price, &rec.Unit, &basis,
			&rec.CountryCode, &rec.Currency, &rec.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		if rec.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse stored price %q: %w", price, err)
		}
		if rec.BasisQuantity, err = decimal.NewFromString(basis); err != nil {
			return nil, fmt.Errorf("failed to parse stored basis %q: %w", basis, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// RECIPE OPERATIONS
// =============================================================================

// SaveRecipe stores a recipe and its lines, returning the recipe ID.
func (s *Store) SaveRecipe(ctx context.Context, name string, servings int, lines []pricing.RecipeLine) (uuid.UUID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	recipeID := uuid.New()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (id, name, servings) VALUES ($1, $2, $3)
	`, recipeID, name, servings); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert recipe: %w", err)
	}

	for i, line := range lines {
		var amount *string
		if line.Amount != nil {
			a := line.Amount.String()
			amount = &a
		}
		var ingredientID *string
		if line.IngredientID != "" {
			id := line.IngredientID
			ingredientID = &id
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_lines (id, recipe_id, position, raw_text, amount, unit, ingredient_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New(), recipeID, i, line.RawText, amount, line.Unit, ingredientID); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert recipe line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit recipe: %w", err)
	}
	return recipeID, nil
}

// LoadRecipeLines returns a recipe's lines in position order.
func (s *Store) LoadRecipeLines(ctx context.Context, recipeID uuid.UUID) ([]pricing.RecipeLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.raw_text, l.amount, l.unit, l.ingredient_id, COALESCE(i.canonical_name, '')
		FROM recipe_lines l
		LEFT JOIN ingredients i ON i.id = l.ingredient_id
		WHERE l.recipe_id = $1
		ORDER BY l.position
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe lines: %w", err)
	}
	defer rows.Close()

	var out []pricing.RecipeLine
	for rows.Next() {
		var line pricing.RecipeLine
		var amount, unit, ingredientID sql.NullString
		if err := rows.Scan(&line.ID, &line.RawText, &amount, &unit, &ingredientID, &line.Ingredient); err != nil {
			return nil, fmt.Errorf("failed to scan recipe line: %w", err)
		}
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount.String, err)
			}
			line.Amount = &d
		}
		if unit.Valid {
			line.Unit = unit.String
		}
		if ingredientID.Valid {
			line.IngredientID = ingredientID.String
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// PersistParsedQuantity writes a lazily parsed amount and unit back onto a
// stored recipe line.
func (s *Store) PersistParsedQuantity(ctx context.Context, lineID string, amount decimal.Decimal, unit units.Token) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE recipe_lines SET amount = $2, unit = $3 WHERE id = $1
	`, lineID, amount.String(), string(unit))
	if err != nil {
		return fmt.Errorf("failed to persist parsed quantity: %w", err)
	}
	return nil
}
