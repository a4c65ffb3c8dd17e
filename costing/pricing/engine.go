// Package pricing resolves prices for parsed recipe lines and aggregates
// them into a cost report. Per-line failures (no price, incompatible units,
// unparseable quantities) are captured as data in the report, never as
// errors: a recipe with some unpriceable ingredients still yields a
// best-effort total for the rest.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"recipe-cost/costing/format"
	"recipe-cost/costing/parse"
	"recipe-cost/costing/units"
)

// BaseCountry is the fallback pricing country consulted when no
// country-specific price exists.
const BaseCountry = "USA"

// DefaultServings applies when the caller does not specify a serving count.
const DefaultServings = 4

var (
	// ErrInvalidServings rejects servings ≤ 0 before aggregation begins.
	ErrInvalidServings = errors.New("servings must be greater than zero")

	// ErrNoRecipe rejects a nil line set.
	ErrNoRecipe = errors.New("no recipe lines provided")
)

// PriceRecord is a stored price: Price Currency buys BasisQuantity Unit of
// the ingredient in CountryCode.
type PriceRecord struct {
	IngredientID  string          `json:"ingredient_id"`
	Price         decimal.Decimal `json:"price"`
	Unit          string          `json:"unit"`
	BasisQuantity decimal.Decimal `json:"basis_quantity"`
	CountryCode   string          `json:"country_code"`
	Currency      string          `json:"currency"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// PriceStore is the read boundary to wherever prices live. Lookup returns
// (nil, nil) when no record exists for the pair; when several exist, the
// newest LastUpdated wins.
type PriceStore interface {
	LookupPrice(ctx context.Context, ingredientID, countryCode string) (*PriceRecord, error)
}

// ParsedQuantitySink receives write-back commands for lazily parsed
// amounts/units so the next computation can skip the re-parse. Persistence
// belongs to the caller's storage layer, not to this engine.
type ParsedQuantitySink interface {
	PersistParsedQuantity(ctx context.Context, lineID string, amount decimal.Decimal, unit units.Token) error
}

// RecipeLine is one ingredient entry of a recipe. Amount and Unit may be
// absent, in which case RawText is re-parsed during costing.
type RecipeLine struct {
	ID           string           `json:"id,omitempty"`
	RawText      string           `json:"raw_text"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Unit         string           `json:"unit,omitempty"`
	IngredientID string           `json:"ingredient_id"`
	Ingredient   string           `json:"ingredient"` // canonical name, for display
}

// MissingReason classifies why a line contributed no cost.
type MissingReason string

const (
	ReasonUnparseable      MissingReason = "unparseable"
	ReasonNoPrice          MissingReason = "no-price"
	ReasonUnitIncompatible MissingReason = "unit-incompatible"
)

// MissingEntry diagnoses a line that could not be priced.
type MissingEntry struct {
	Ingredient string        `json:"ingredient"`
	RawText    string        `json:"raw_text"`
	Reason     MissingReason `json:"reason"`
	Note       string        `json:"note,omitempty"`
}

// IngredientCost is one priced line of the report.
type IngredientCost struct {
	Ingredient string          `json:"ingredient"`
	RawText    string          `json:"raw_text"`
	Cost       decimal.Decimal `json:"cost"`
	Currency   string          `json:"currency"`
	PriceBasis string          `json:"price_basis"`
}

// CostReport is the aggregate result. Every input line appears in exactly
// one of IngredientCosts or Missing, in input order.
type CostReport struct {
	ID          uuid.UUID `json:"id"`
	CountryCode string    `json:"country_code"`
	Servings    int       `json:"servings"`

	TotalCost      decimal.Decimal `json:"total_cost"`
	CostPerServing decimal.Decimal `json:"cost_per_serving"`
	Currency       string          `json:"currency"`

	IngredientCosts []IngredientCost `json:"ingredient_costs"`
	Missing         []MissingEntry   `json:"missing"`
	Warnings        []string         `json:"warnings"`

	// Statistics
	LinesProcessed int `json:"lines_processed"`
	LinesPriced    int `json:"lines_priced"`
	LinesMissing   int `json:"lines_missing"`

	ComputedAt time.Time `json:"computed_at"`
}

// Engine resolves prices and aggregates recipe costs. Stateless per
// invocation; safe for concurrent use.
type Engine struct {
	store PriceStore
	table *units.Table
	sink  ParsedQuantitySink
}

// NewEngine creates a costing engine over a price store and a conversion
// table.
func NewEngine(store PriceStore, table *units.Table) *Engine {
	return &Engine{store: store, table: table}
}

// WithSink adds a write-back sink for lazily parsed quantities.
func (e *Engine) WithSink(sink ParsedQuantitySink) *Engine {
	e.sink = sink
	return e
}

// ComputeCost prices each line in countryCode (falling back to BaseCountry)
// and totals the result. servings must be > 0; callers wanting the default
// pass DefaultServings. Only structurally invalid input returns an error.
func (e *Engine) ComputeCost(ctx context.Context, lines []RecipeLine, countryCode string, servings int) (*CostReport, error) {
	if lines == nil {
		return nil, ErrNoRecipe
	}
	if servings <= 0 {
		return nil, ErrInvalidServings
	}
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode == "" {
		countryCode = BaseCountry
	}

	report := &CostReport{
		ID:              uuid.New(),
		CountryCode:     countryCode,
		Servings:        servings,
		TotalCost:       decimal.Zero,
		Currency:        "USD",
		IngredientCosts: make([]IngredientCost, 0, len(lines)),
		Missing:         make([]MissingEntry, 0),
		Warnings:        make([]string, 0),
		ComputedAt:      time.Now().UTC(),
	}

	currencies := make(map[string]bool)

	for _, line := range lines {
		report.LinesProcessed++

		amount, unitText, ok := e.resolveQuantity(ctx, line)
		if !ok {
			report.Missing = append(report.Missing, MissingEntry{
				Ingredient: line.Ingredient,
				RawText:    line.RawText,
				Reason:     ReasonUnparseable,
			})
			continue
		}

		rec, err := e.lookupWithFallback(ctx, line.IngredientID, countryCode)
		if err != nil {
			return nil, fmt.Errorf("price lookup for %s: %w", line.Ingredient, err)
		}
		if rec == nil || !rec.BasisQuantity.IsPositive() {
			note := ""
			if rec != nil {
				note = "price record has a non-positive basis quantity"
			}
			report.Missing = append(report.Missing, MissingEntry{
				Ingredient: line.Ingredient,
				RawText:    line.RawText,
				Reason:     ReasonNoPrice,
				Note:       note,
			})
			continue
		}

		// Compound qualifiers like "cups water" keep only the unit word.
		if i := strings.IndexByte(unitText, ' '); i > 0 {
			unitText = unitText[:i]
		}
		recipeUnit := units.Resolve(unitText)
		priceUnit := units.Resolve(rec.Unit)

		converted, convErr := e.table.ConvertForItem(amount, recipeUnit, priceUnit, e.itemNoun(line.Ingredient))
		if convErr != nil {
			report.Missing = append(report.Missing, MissingEntry{
				Ingredient: line.Ingredient,
				RawText:    line.RawText,
				Reason:     ReasonUnitIncompatible,
				Note:       fmt.Sprintf("cannot convert %s to %s", recipeUnit, priceUnit),
			})
			continue
		}

		cost := converted.Div(rec.BasisQuantity).Mul(rec.Price)
		report.TotalCost = report.TotalCost.Add(cost)
		report.IngredientCosts = append(report.IngredientCosts, IngredientCost{
			Ingredient: line.Ingredient,
			RawText:    line.RawText,
			Cost:       cost,
			Currency:   rec.Currency,
			PriceBasis: format.PriceBasis(rec.Price, rec.Currency, rec.BasisQuantity, priceUnit),
		})

		// The report currency follows the last resolved price; mixed
		// currencies are surfaced rather than silently summed.
		report.Currency = rec.Currency
		currencies[rec.Currency] = true
	}

	if len(currencies) > 1 {
		names := make([]string, 0, len(currencies))
		for c := range currencies {
			names = append(names, c)
		}
		sort.Strings(names)
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("prices resolved in multiple currencies (%s); total is not exchange-adjusted", strings.Join(names, ", ")))
	}

	report.LinesPriced = len(report.IngredientCosts)
	report.LinesMissing = len(report.Missing)
	report.CostPerServing = report.TotalCost.Div(decimal.NewFromInt(int64(servings)))
	return report, nil
}

// resolveQuantity returns the line's amount and unit text, lazily re-parsing
// RawText when either is absent and emitting the write-back command on
// success.
func (e *Engine) resolveQuantity(ctx context.Context, line RecipeLine) (decimal.Decimal, string, bool) {
	if line.Amount != nil && line.Unit != "" {
		return *line.Amount, line.Unit, true
	}

	parsed := parse.Line(line.RawText)
	if !parsed.Parsed {
		return decimal.Zero, "", false
	}

	if e.sink != nil && line.ID != "" {
		unitText := parsed.UnitText
		if i := strings.IndexByte(unitText, ' '); i > 0 {
			unitText = unitText[:i]
		}
		// Best-effort: a failed write-back must not fail the costing.
		_ = e.sink.PersistParsedQuantity(ctx, line.ID, parsed.Amount, units.Resolve(unitText))
	}
	return parsed.Amount, parsed.UnitText, true
}

// lookupWithFallback queries the requested country, then BaseCountry.
func (e *Engine) lookupWithFallback(ctx context.Context, ingredientID, countryCode string) (*PriceRecord, error) {
	rec, err := e.store.LookupPrice(ctx, ingredientID, countryCode)
	if err != nil || rec != nil {
		return rec, err
	}
	if countryCode != BaseCountry {
		return e.store.LookupPrice(ctx, ingredientID, BaseCountry)
	}
	return nil, nil
}

// itemNoun maps a canonical ingredient name to the item-weight table noun it
// contains, if any. Keys are scanned in sorted order so the choice is
// deterministic.
func (e *Engine) itemNoun(canonical string) string {
	name := strings.ToLower(strings.ReplaceAll(canonical, "_", " "))
	keys := make([]string, 0, len(e.table.ItemWeightsLb))
	for k := range e.table.ItemWeightsLb {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(name, k) {
			return k
		}
	}
	return ""
}
