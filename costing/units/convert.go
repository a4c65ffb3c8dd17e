package units

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ConversionError reports a dimensionally incompatible or unregistered unit
// pair. It is a normal outcome for mixed dimensions (e.g. cup → lb), never
// silently approximated away.
type ConversionError struct {
	From Token
	To   Token
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// Rule states that 1 From == Factor To. Rules are stored once per ordered
// pair; the inverse direction is always derived as 1/Factor so the two
// directions cannot drift apart.
type Rule struct {
	From   Token
	To     Token
	Factor decimal.Decimal
}

type pair struct {
	from Token
	to   Token
}

// Table is the process-wide conversion configuration: exact ladder rules
// plus the item-weight heuristic for count↔weight. Construct once at
// startup, inject by reference, never mutate afterwards.
type Table struct {
	direct map[pair]decimal.Decimal

	// ItemWeightsLb holds approximate per-item weights in pounds, keyed by
	// the ingredient's descriptive noun. Consulted only on the each↔weight
	// path.
	ItemWeightsLb map[string]decimal.Decimal

	// DefaultItemWeightLb applies when the item noun is missing from
	// ItemWeightsLb (or unavailable to the call).
	DefaultItemWeightLb decimal.Decimal
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// standardRules is the cooking unit ladder. Factors are exact decimal
// literals, not derived at runtime from floating constants.
var standardRules = []Rule{
	// Volume
	{Gallon, Quart, d("4")},
	{Gallon, Cup, d("16")},
	{Quart, Cup, d("4")},
	{Quart, Pint, d("2")},
	{Pint, Cup, d("2")},
	{Cup, FluidOunce, d("8")},
	{Cup, Tablespoon, d("16")},
	{Cup, Teaspoon, d("48")},
	{FluidOunce, Tablespoon, d("2")},
	{Tablespoon, Teaspoon, d("3")},

	// Volume, metric
	{Gallon, Liter, d("3.78541")},
	{Quart, Liter, d("0.946353")},
	{Pint, Milliliter, d("473.176")},
	{Cup, Milliliter, d("236.588")},
	{FluidOunce, Milliliter, d("29.5735")},
	{Tablespoon, Milliliter, d("14.7868")},
	{Teaspoon, Milliliter, d("4.92892")},
	{Liter, Milliliter, d("1000")},

	// Weight
	{Pound, Ounce, d("16")},
	{Pound, Gram, d("453.592")},
	{Pound, Kilogram, d("0.453592")},
	{Ounce, Gram, d("28.3495")},
	{Kilogram, Gram, d("1000")},

	// Count
	{Dozen, Each, d("12")},

	// Food-specific escape hatches (approximate, standard sizes)
	{Can, FluidOunce, d("15")},
	{Loaf, Pound, d("1.5")},
}

// standardItemWeightsLb holds rough per-item weights for produce and eggs,
// used when a recipe counts items but the price is by weight.
var standardItemWeightsLb = map[string]decimal.Decimal{
	"egg":    d("0.125"),
	"onion":  d("0.5"),
	"potato": d("0.33"),
	"carrot": d("0.15"),
	"apple":  d("0.33"),
	"banana": d("0.25"),
}

// NewTable builds the standard cooking conversion table.
func NewTable() *Table {
	t := &Table{
		direct:              make(map[pair]decimal.Decimal, len(standardRules)),
		ItemWeightsLb:       standardItemWeightsLb,
		DefaultItemWeightLb: d("0.25"),
	}
	for _, r := range standardRules {
		t.direct[pair{r.From, r.To}] = r.Factor
	}
	return t
}

// Rules returns the registered rules in a stable order. Used by tests and
// diagnostics; the inverse directions are not listed.
func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(standardRules))
	for _, r := range standardRules {
		if _, ok := t.direct[pair{r.From, r.To}]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Convert converts amount from one unit to another with no item context.
// Equivalent to ConvertForItem with an empty item noun.
func (t *Table) Convert(amount decimal.Decimal, from, to Token) (decimal.Decimal, error) {
	return t.ConvertForItem(amount, from, to, "")
}

// ConvertForItem converts amount between units, consulting the item-weight
// table for the each↔weight path. item is the ingredient's descriptive noun
// ("egg", "onion"); pass "" when unavailable and the default weight applies.
//
// Resolution order: identity, direct rule, derived inverse, each↔weight
// heuristic. Anything else is a *ConversionError.
func (t *Table) ConvertForItem(amount decimal.Decimal, from, to Token, item string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	if f, ok := t.direct[pair{from, to}]; ok {
		return amount.Mul(f), nil
	}
	if f, ok := t.direct[pair{to, from}]; ok {
		return amount.Div(f), nil
	}

	// Count↔weight: the only cross-category path without a registered rule.
	if from == Each && CategoryOf(to) == CategoryWeight {
		lbs := amount.Mul(t.itemWeightLb(item))
		return t.ConvertForItem(lbs, Pound, to, item)
	}
	if CategoryOf(from) == CategoryWeight && to == Each {
		lbs, err := t.ConvertForItem(amount, from, Pound, item)
		if err != nil {
			return decimal.Zero, err
		}
		return lbs.Div(t.itemWeightLb(item)), nil
	}

	return decimal.Zero, &ConversionError{From: from, To: to}
}

func (t *Table) itemWeightLb(item string) decimal.Decimal {
	if w, ok := t.ItemWeightsLb[item]; ok {
		return w
	}
	return t.DefaultItemWeightLb
}
