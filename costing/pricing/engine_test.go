package pricing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"recipe-cost/costing/standardize"
	"recipe-cost/costing/units"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func approxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(decimal.New(1, -6))
}

func newTestEngine(store PriceStore) *Engine {
	return NewEngine(store, units.NewTable())
}

func usdRecord(ingredientID, price, unit, basis string) PriceRecord {
	return PriceRecord{
		IngredientID:  ingredientID,
		Price:         dec(price),
		Unit:          unit,
		BasisQuantity: dec(basis),
		CountryCode:   BaseCountry,
		Currency:      "USD",
	}
}

func TestComputeCostSingleLine(t *testing.T) {
	store := NewMemoryStore()
	store.Put(usdRecord("tom-1", "1.00", "can", "1"))

	lines := []RecipeLine{{
		RawText:      "1 can of tomatoes",
		Amount:       decPtr("1"),
		Unit:         "can",
		IngredientID: "tom-1",
		Ingredient:   "CANNED_TOMATOES",
	}}

	report, err := newTestEngine(store).ComputeCost(context.Background(), lines, "USA", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if len(report.IngredientCosts) != 1 || len(report.Missing) != 0 {
		t.Fatalf("got %d costed, %d missing; want 1, 0", len(report.IngredientCosts), len(report.Missing))
	}
	if !report.TotalCost.Equal(dec("1.00")) {
		t.Errorf("TotalCost = %s, want 1.00", report.TotalCost)
	}
	if !report.CostPerServing.Equal(dec("0.25")) {
		t.Errorf("CostPerServing = %s, want 0.25", report.CostPerServing)
	}
	if report.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", report.Currency)
	}
	if report.LinesProcessed != 1 || report.LinesPriced != 1 || report.LinesMissing != 0 {
		t.Errorf("stats = %d/%d/%d, want 1/1/0",
			report.LinesProcessed, report.LinesPriced, report.LinesMissing)
	}
}

// An engine never drops a line: every input lands in exactly one of
// IngredientCosts or Missing, in input order, and per-line failures never
// abort the computation.
func TestComputeCostEveryLineAccountedFor(t *testing.T) {
	std := standardize.New()
	dir := standardize.NewMemoryDirectory()
	store := NewMemoryStore()
	if _, err := SeedStandardPrices(dir, store.Put); err != nil {
		t.Fatalf("SeedStandardPrices: %v", err)
	}

	raws := []string{
		"1 can of tomatoes",   // priced
		"2 cups flour",        // volume against a per-lb price: unit-incompatible
		"1 lb mystery meat",   // synthesized ingredient, no price
		"",                    // unparseable
		"2 eggs",              // priced via each->dozen
		"salt to taste",       // degrades to 1 each, priced via the default item weight
	}
	lines, err := BuildLines(raws, std, dir)
	if err != nil {
		t.Fatalf("BuildLines: %v", err)
	}

	report, err := newTestEngine(store).ComputeCost(context.Background(), lines, "USA", DefaultServings)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}

	if got := report.LinesPriced + report.LinesMissing; got != len(raws) {
		t.Fatalf("priced+missing = %d, want %d", got, len(raws))
	}
	if report.LinesProcessed != len(raws) {
		t.Errorf("LinesProcessed = %d, want %d", report.LinesProcessed, len(raws))
	}
	if report.TotalCost.IsNegative() {
		t.Errorf("TotalCost = %s, must not be negative", report.TotalCost)
	}

	// Input order is preserved within each bucket.
	if report.IngredientCosts[0].RawText != "1 can of tomatoes" {
		t.Errorf("first costed line = %q", report.IngredientCosts[0].RawText)
	}
	if report.Missing[0].RawText != "2 cups flour" {
		t.Errorf("first missing line = %q", report.Missing[0].RawText)
	}
}

func TestComputeCostMissingReasons(t *testing.T) {
	std := standardize.New()
	dir := standardize.NewMemoryDirectory()
	store := NewMemoryStore()
	if _, err := SeedStandardPrices(dir, store.Put); err != nil {
		t.Fatalf("SeedStandardPrices: %v", err)
	}

	lines, err := BuildLines([]string{
		"2 cups flour",
		"1 lb mystery meat",
		"",
	}, std, dir)
	if err != nil {
		t.Fatalf("BuildLines: %v", err)
	}

	report, err := newTestEngine(store).ComputeCost(context.Background(), lines, "USA", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if len(report.Missing) != 3 {
		t.Fatalf("got %d missing entries, want 3: %+v", len(report.Missing), report.Missing)
	}

	want := []MissingReason{ReasonUnitIncompatible, ReasonNoPrice, ReasonUnparseable}
	for i, entry := range report.Missing {
		if entry.Reason != want[i] {
			t.Errorf("missing[%d] reason = %q, want %q", i, entry.Reason, want[i])
		}
	}
	if note := report.Missing[0].Note; !strings.Contains(note, "cup") || !strings.Contains(note, "lb") {
		t.Errorf("unit-incompatible note = %q, want both units named", note)
	}
}

func TestComputeCostCountryFallback(t *testing.T) {
	store := NewMemoryStore()
	store.Put(usdRecord("tom-1", "1.00", "can", "1"))

	lines := []RecipeLine{{
		RawText:      "1 can of tomatoes",
		Amount:       decPtr("1"),
		Unit:         "can",
		IngredientID: "tom-1",
		Ingredient:   "CANNED_TOMATOES",
	}}

	report, err := newTestEngine(store).ComputeCost(context.Background(), lines, "GBR", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if report.CountryCode != "GBR" {
		t.Errorf("CountryCode = %q, want GBR", report.CountryCode)
	}
	if len(report.IngredientCosts) != 1 {
		t.Fatalf("got %d costed lines, want 1 (USA fallback)", len(report.IngredientCosts))
	}
	if !report.TotalCost.Equal(dec("1.00")) || report.Currency != "USD" {
		t.Errorf("total = %s %s, want 1.00 USD", report.TotalCost, report.Currency)
	}
}

func TestComputeCostCountryPriceBeatsFallback(t *testing.T) {
	store := NewMemoryStore()
	store.Put(usdRecord("tom-1", "1.00", "can", "1"))
	store.Put(PriceRecord{
		IngredientID: "tom-1", Price: dec("0.80"), Unit: "can",
		BasisQuantity: dec("1"), CountryCode: "GBR", Currency: "GBP",
	})

	lines := []RecipeLine{{
		RawText:      "1 can of tomatoes",
		Amount:       decPtr("1"),
		Unit:         "can",
		IngredientID: "tom-1",
		Ingredient:   "CANNED_TOMATOES",
	}}

	report, err := newTestEngine(store).ComputeCost(context.Background(), lines, "GBR", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if !report.TotalCost.Equal(dec("0.80")) || report.Currency != "GBP" {
		t.Errorf("total = %s %s, want 0.80 GBP", report.TotalCost, report.Currency)
	}
}

func TestComputeCostMixedCurrencyWarning(t *testing.T) {
	store := NewMemoryStore()
	store.Put(usdRecord("tom-1", "1.00", "can", "1"))
	store.Put(PriceRecord{
		IngredientID: "milk-1", Price: dec("1.20"), Unit: "l",
		BasisQuantity: dec("1"), CountryCode: "GBR", Currency: "GBP",
	})

	lines := []RecipeLine{
		{RawText: "1 can of tomatoes", Amount: decPtr("1"), Unit: "can",
			IngredientID: "tom-1", Ingredient: "CANNED_TOMATOES"},
		{RawText: "1 liter milk", Amount: decPtr("1"), Unit: "liter",
			IngredientID: "milk-1", Ingredient: "MILK"},
	}

	report, err := newTestEngine(store).ComputeCost(context.Background(), lines, "GBR", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(report.Warnings), report.Warnings)
	}
	if !strings.Contains(report.Warnings[0], "GBP, USD") {
		t.Errorf("warning = %q, want currencies listed", report.Warnings[0])
	}
	// Report currency follows the last resolved price.
	if report.Currency != "GBP" {
		t.Errorf("Currency = %q, want GBP", report.Currency)
	}
}

func TestComputeCostEachToDozen(t *testing.T) {
	std := standardize.New()
	dir := standardize.NewMemoryDirectory()
	store := NewMemoryStore()
	if _, err := SeedStandardPrices(dir, store.Put); err != nil {
		t.Fatalf("SeedStandardPrices: %v", err)
	}

	lines, err := BuildLines([]string{"2 eggs"}, std, dir)
	if err != nil {
		t.Fatalf("BuildLines: %v", err)
	}
	report, err := newTestEngine(store).ComputeCost(context.Background(), lines, "USA", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if len(report.IngredientCosts) != 1 {
		t.Fatalf("eggs not priced: %+v", report.Missing)
	}
	// 2 eggs at $3.00/dozen.
	if !approxEqual(report.TotalCost, dec("0.50")) {
		t.Errorf("TotalCost = %s, want ~0.50", report.TotalCost)
	}
}

func TestComputeCostEachToWeight(t *testing.T) {
	std := standardize.New()
	dir := standardize.NewMemoryDirectory()
	store := NewMemoryStore()
	if _, err := SeedStandardPrices(dir, store.Put); err != nil {
		t.Fatalf("SeedStandardPrices: %v", err)
	}

	lines, err := BuildLines([]string{"2 onions"}, std, dir)
	if err != nil {
		t.Fatalf("BuildLines: %v", err)
	}
	report, err := newTestEngine(store).ComputeCost(context.Background(), lines, "USA", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if len(report.IngredientCosts) != 1 {
		t.Fatalf("onions not priced: %+v", report.Missing)
	}
	// 2 onions at 0.5 lb apiece against $1.00/lb.
	if !approxEqual(report.TotalCost, dec("1.00")) {
		t.Errorf("TotalCost = %s, want ~1.00", report.TotalCost)
	}
}

func TestComputeCostNonPositiveBasis(t *testing.T) {
	store := NewMemoryStore()
	store.Put(usdRecord("tom-1", "1.00", "can", "0"))

	lines := []RecipeLine{{
		RawText:      "1 can of tomatoes",
		Amount:       decPtr("1"),
		Unit:         "can",
		IngredientID: "tom-1",
		Ingredient:   "CANNED_TOMATOES",
	}}

	report, err := newTestEngine(store).ComputeCost(context.Background(), lines, "USA", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if len(report.Missing) != 1 || report.Missing[0].Reason != ReasonNoPrice {
		t.Fatalf("want one no-price entry, got %+v", report.Missing)
	}
	if report.Missing[0].Note == "" {
		t.Error("want an explanatory note for the degenerate record")
	}
}

func TestComputeCostInvalidInput(t *testing.T) {
	e := newTestEngine(NewMemoryStore())

	if _, err := e.ComputeCost(context.Background(), nil, "USA", 4); !errors.Is(err, ErrNoRecipe) {
		t.Errorf("nil lines: err = %v, want ErrNoRecipe", err)
	}
	for _, servings := range []int{0, -1} {
		if _, err := e.ComputeCost(context.Background(), []RecipeLine{}, "USA", servings); !errors.Is(err, ErrInvalidServings) {
			t.Errorf("servings=%d: err = %v, want ErrInvalidServings", servings, err)
		}
	}
}

func TestComputeCostEmptyRecipe(t *testing.T) {
	report, err := newTestEngine(NewMemoryStore()).ComputeCost(context.Background(), []RecipeLine{}, "", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if report.CountryCode != BaseCountry {
		t.Errorf("CountryCode = %q, want default %q", report.CountryCode, BaseCountry)
	}
	if !report.TotalCost.IsZero() || !report.CostPerServing.IsZero() {
		t.Errorf("empty recipe total = %s / serving %s, want zero", report.TotalCost, report.CostPerServing)
	}
}

type recordingSink struct {
	lineID string
	amount decimal.Decimal
	unit   units.Token
	calls  int
}

func (r *recordingSink) PersistParsedQuantity(_ context.Context, lineID string, amount decimal.Decimal, unit units.Token) error {
	r.lineID = lineID
	r.amount = amount
	r.unit = unit
	r.calls++
	return nil
}

func TestComputeCostWritesBackLazyParse(t *testing.T) {
	store := NewMemoryStore()
	store.Put(usdRecord("tom-1", "1.00", "can", "1"))

	sink := &recordingSink{}
	e := newTestEngine(store).WithSink(sink)

	lines := []RecipeLine{{
		ID:           "line-1",
		RawText:      "2 cans of tomatoes",
		IngredientID: "tom-1",
		Ingredient:   "CANNED_TOMATOES",
	}}
	report, err := e.ComputeCost(context.Background(), lines, "USA", 4)
	if err != nil {
		t.Fatalf("ComputeCost: %v", err)
	}
	if len(report.IngredientCosts) != 1 {
		t.Fatalf("line not priced: %+v", report.Missing)
	}
	if sink.calls != 1 || sink.lineID != "line-1" {
		t.Fatalf("sink calls = %d for %q, want 1 for line-1", sink.calls, sink.lineID)
	}
	if !sink.amount.Equal(dec("2")) || sink.unit != units.Can {
		t.Errorf("sink got %s %s, want 2 can", sink.amount, sink.unit)
	}
}

func TestMemoryStoreNewestWins(t *testing.T) {
	store := NewMemoryStore()
	old := usdRecord("tom-1", "1.00", "can", "1")
	old.LastUpdated = time.Now().Add(-time.Hour)
	store.Put(old)

	newer := usdRecord("tom-1", "1.25", "can", "1")
	newer.LastUpdated = time.Now()
	store.Put(newer)

	rec, err := store.LookupPrice(context.Background(), "tom-1", BaseCountry)
	if err != nil {
		t.Fatalf("LookupPrice: %v", err)
	}
	if rec == nil || !rec.Price.Equal(dec("1.25")) {
		t.Fatalf("got %+v, want the newer 1.25 record", rec)
	}
}

func TestSeedStandardPrices(t *testing.T) {
	dir := standardize.NewMemoryDirectory()
	store := NewMemoryStore()

	n, err := SeedStandardPrices(dir, store.Put)
	if err != nil {
		t.Fatalf("SeedStandardPrices: %v", err)
	}
	if n != len(standardUSPrices) {
		t.Errorf("seeded %d records, want %d", n, len(standardUSPrices))
	}

	recs, err := store.ListByCountry(context.Background(), BaseCountry)
	if err != nil {
		t.Fatalf("ListByCountry: %v", err)
	}
	if len(recs) != n {
		t.Errorf("ListByCountry returned %d, want %d", len(recs), n)
	}
	for _, rec := range recs {
		if rec.Currency != "USD" || !rec.BasisQuantity.Equal(dec("1")) {
			t.Errorf("seed record %+v: want USD with basis 1", rec)
			break
		}
	}
}
