// Package history archives computed cost reports in ClickHouse for trend
// queries: how the cost of a recipe, or an ingredient, moves over time and
// across countries.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"recipe-cost/costing/pricing"
)

// ReportRecord is the archived header of one cost computation.
type ReportRecord struct {
	ID             uuid.UUID       `ch:"id"`
	RecipeName     string          `ch:"recipe_name"`
	CountryCode    string          `ch:"country_code"`
	Servings       int32           `ch:"servings"`
	TotalCost      decimal.Decimal `ch:"total_cost"`
	CostPerServing decimal.Decimal `ch:"cost_per_serving"`
	Currency       string          `ch:"currency"`
	LinesProcessed int32           `ch:"lines_processed"`
	LinesPriced    int32           `ch:"lines_priced"`
	LinesMissing   int32           `ch:"lines_missing"`
	ComputedAt     time.Time       `ch:"computed_at"`
}

// LineRecord is one archived report line, priced or missing.
type LineRecord struct {
	ReportID   uuid.UUID       `ch:"report_id"`
	Ingredient string          `ch:"ingredient"`
	RawText    string          `ch:"raw_text"`
	Priced     bool            `ch:"priced"`
	Cost       decimal.Decimal `ch:"cost"`
	Currency   string          `ch:"currency"`
	Reason     string          `ch:"reason"`
	ComputedAt time.Time       `ch:"computed_at"`
}

// CostPoint is one sample of a cost-over-time series.
type CostPoint struct {
	ComputedAt time.Time
	TotalCost  decimal.Decimal
	Currency   string
}

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "recipecost",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store archives cost reports in ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore creates a new report archive store
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// SaveReport archives a report header and its per-line breakdown.
func (s *Store) SaveReport(ctx context.Context, recipeName string, report *pricing.CostReport) error {
	err := s.conn.Exec(ctx, `
		INSERT INTO cost_reports (
			id, recipe_name, country_code, servings, total_cost, cost_per_serving,
			currency, lines_processed, lines_priced, lines_missing, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		recipeName,
		report.CountryCode,
		int32(report.Servings),
		report.TotalCost,
		report.CostPerServing,
		report.Currency,
		int32(report.LinesProcessed),
		int32(report.LinesPriced),
		int32(report.LinesMissing),
		report.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO cost_report_lines (
			report_id, ingredient, raw_text, priced, cost, currency, reason, computed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare line batch: %w", err)
	}
	for _, line := range report.IngredientCosts {
		if err := batch.Append(
			report.ID, line.Ingredient, line.RawText, boolToUInt8(true),
			line.Cost, line.Currency, "", report.ComputedAt,
		); err != nil {
			return fmt.Errorf("failed to append report line: %w", err)
		}
	}
	for _, miss := range report.Missing {
		if err := batch.Append(
			report.ID, miss.Ingredient, miss.RawText, boolToUInt8(false),
			decimal.Zero, "", string(miss.Reason), report.ComputedAt,
		); err != nil {
			return fmt.Errorf("failed to append report line: %w", err)
		}
	}
	return batch.Send()
}

// RecentReports returns the newest archived report headers, optionally
// filtered by recipe name.
func (s *Store) RecentReports(ctx context.Context, recipeName string, limit int) ([]ReportRecord, error) {
	query := `
		SELECT id, recipe_name, country_code, servings, total_cost, cost_per_serving,
			   currency, lines_processed, lines_priced, lines_missing, computed_at
		FROM cost_reports
	`
	args := []any{}
	if recipeName != "" {
		query += ` WHERE recipe_name = ?`
		args = append(args, recipeName)
	}
	query += ` ORDER BY computed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(
			&rec.ID, &rec.RecipeName, &rec.CountryCode, &rec.Servings,
			&rec.TotalCost, &rec.CostPerServing, &rec.Currency,
			&rec.LinesProcessed, &rec.LinesPriced, &rec.LinesMissing, &rec.ComputedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// CostTrend returns the total-cost time series for one recipe in one
// country, oldest first.
func (s *Store) CostTrend(ctx context.Context, recipeName, countryCode string, since time.Time) ([]CostPoint, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT computed_at, total_cost, currency
		FROM cost_reports
		WHERE recipe_name = ? AND country_code = ? AND computed_at >= ?
		ORDER BY computed_at ASC
	`, recipeName, countryCode, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost trend: %w", err)
	}
	defer rows.Close()

	var out []CostPoint
	for rows.Next() {
		var p CostPoint
		if err := rows.Scan(&p.ComputedAt, &p.TotalCost, &p.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan cost point: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
