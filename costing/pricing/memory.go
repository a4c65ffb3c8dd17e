package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"recipe-cost/costing/standardize"
)

// MemoryStore is an in-memory PriceStore for tests, the CLI, and seeding.
// When several records exist for an (ingredient, country) pair, the newest
// LastUpdated wins, matching the relational store's selection rule.
type MemoryStore struct {
	mu      sync.RWMutex
	records []PriceRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// UpsertPrice adds a price record, satisfying the same write surface as the
// relational store.
func (m *MemoryStore) UpsertPrice(_ context.Context, rec PriceRecord) error {
	m.Put(rec)
	return nil
}

// Put adds a price record.
func (m *MemoryStore) Put(rec PriceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = time.Now().UTC()
	}
	m.records = append(m.records, rec)
}

func (m *MemoryStore) LookupPrice(_ context.Context, ingredientID, countryCode string) (*PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *PriceRecord
	for i := range m.records {
		rec := &m.records[i]
		if rec.IngredientID != ingredientID || rec.CountryCode != countryCode {
			continue
		}
		if best == nil || rec.LastUpdated.After(best.LastUpdated) {
			best = rec
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	return &out, nil
}

// ListByCountry returns all records for a country, insertion-ordered.
func (m *MemoryStore) ListByCountry(_ context.Context, countryCode string) ([]PriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []PriceRecord
	for _, rec := range m.records {
		if rec.CountryCode == countryCode {
			out = append(out, rec)
		}
	}
	return out, nil
}

// seedPrice is a curated US price estimate for one canonical ingredient.
type seedPrice struct {
	canonical string
	price     string
	unit      string
}

// standardUSPrices are rough US price estimates per unit, used to seed a
// fresh store.
var standardUSPrices = []seedPrice{
	{"FLOUR", "0.50", "lb"},
	{"RICE", "1.00", "lb"},
	{"CORNMEAL", "0.75", "lb"},
	{"SUGAR", "0.75", "lb"},
	{"BROWN_SUGAR", "0.85", "lb"},
	{"BUTTER", "3.50", "lb"},
	{"LARD", "2.00", "lb"},
	{"OIL", "5.00", "gal"},
	{"MILK", "3.50", "gal"},
	{"EGGS", "3.00", "dozen"},
	{"HARD_BOILED_EGGS", "3.50", "dozen"},
	{"GROUND_BEEF", "4.50", "lb"},
	{"BEEF", "5.00", "lb"},
	{"DRIED_BEEF", "8.00", "lb"},
	{"TUNA", "1.50", "can"},
	{"HOT_DOGS", "3.00", "lb"},
	{"POTATOES", "0.50", "lb"},
	{"ONION", "1.00", "lb"},
	{"CARROTS", "0.80", "lb"},
	{"CELERY", "1.50", "lb"},
	{"GARLIC", "3.00", "lb"},
	{"CANNED_TOMATOES", "1.00", "can"},
	{"CANNED_CORN", "1.00", "can"},
	{"CREAMED_CORN", "1.20", "can"},
	{"CANNED_BEANS", "1.00", "can"},
	{"CHICKEN_SOUP", "1.50", "can"},
	{"EGG_NOODLES", "2.00", "lb"},
	{"MACARONI", "1.00", "lb"},
	{"DRIED_BEANS", "1.50", "lb"},
	{"SALT", "0.50", "lb"},
	{"PEPPER", "15.00", "lb"},
	{"CINNAMON", "20.00", "lb"},
	{"PAPRIKA", "25.00", "lb"},
	{"CARAWAY_SEEDS", "30.00", "lb"},
	{"BAKING_SODA", "1.00", "lb"},
	{"BAKING_POWDER", "3.00", "lb"},
	{"VANILLA", "8.00", "oz"},
	{"BANANAS", "0.50", "lb"},
	{"RAISINS", "3.00", "lb"},
	{"WATER", "0.00", "gal"},
	{"STOCK", "2.00", "qt"},
	{"HONEY", "6.00", "lb"},
	{"MOLASSES", "4.00", "lb"},
	{"SYRUP", "5.00", "lb"},
	{"BREAD", "2.00", "loaf"},
}

// SeedStandardPrices loads the curated US prices into a Putter, resolving
// ingredient IDs through the directory. Returns the number of records added.
func SeedStandardPrices(dir standardize.Directory, put func(PriceRecord)) (int, error) {
	added := 0
	for _, sp := range standardUSPrices {
		ing, err := dir.ResolveOrCreate(sp.canonical)
		if err != nil {
			return added, err
		}
		put(PriceRecord{
			IngredientID:  ing.ID,
			Price:         decimal.RequireFromString(sp.price),
			Unit:          sp.unit,
			BasisQuantity: decimal.NewFromInt(1),
			CountryCode:   BaseCountry,
			Currency:      "USD",
			LastUpdated:   time.Now().UTC(),
		})
		added++
	}
	return added, nil
}
