// Package format renders parsed quantities, units, and prices for human
// display: decimal amounts back to kitchen fractions, singular units to
// plurals, canonical ingredient identifiers to readable names.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"recipe-cost/costing/units"
)

var displayFractions = []struct {
	value decimal.Decimal
	glyph string
}{
	{decimal.RequireFromString("0.25"), "¼"},
	{decimal.RequireFromString("0.33"), "⅓"},
	{decimal.RequireFromString("0.5"), "½"},
	{decimal.RequireFromString("0.67"), "⅔"},
	{decimal.RequireFromString("0.75"), "¾"},
}

var fractionTolerance = decimal.RequireFromString("0.01")

// Amount renders a decimal quantity the way a recipe card would: whole
// numbers without decimals, common fractions as glyphs, mixed numbers as
// "1 ½", anything else trimmed to two decimal places.
func Amount(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return amount.Truncate(0).String()
	}

	whole := amount.Truncate(0)
	frac := amount.Sub(whole)
	for _, f := range displayFractions {
		if frac.Sub(f.value).Abs().LessThan(fractionTolerance) {
			if whole.IsZero() {
				return f.glyph
			}
			return whole.String() + " " + f.glyph
		}
	}

	s := amount.StringFixed(2)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

var plurals = map[units.Token]string{
	units.Pound:      "pounds",
	units.Ounce:      "ounces",
	units.Cup:        "cups",
	units.Tablespoon: "tablespoons",
	units.Teaspoon:   "teaspoons",
	units.FluidOunce: "fl oz",
	units.Pint:       "pints",
	units.Quart:      "quarts",
	units.Gallon:     "gallons",
	units.Can:        "cans",
	units.Loaf:       "loaves",
	units.Package:    "packages",
	units.Bag:        "bags",
	units.Box:        "boxes",
}

var singulars = map[units.Token]string{
	units.Pound:      "pound",
	units.Ounce:      "ounce",
	units.Cup:        "cup",
	units.Tablespoon: "tablespoon",
	units.Teaspoon:   "teaspoon",
	units.FluidOunce: "fl oz",
	units.Pint:       "pint",
	units.Quart:      "quart",
	units.Gallon:     "gallon",
	units.Can:        "can",
	units.Loaf:       "loaf",
	units.Package:    "package",
	units.Bag:        "bag",
	units.Box:        "box",
}

// Unit renders a unit token for display next to the given amount, handling
// pluralization. The sentinel "each" renders as nothing: "2 eggs", not
// "2 each eggs".
func Unit(amount decimal.Decimal, t units.Token) string {
	if t == units.Each {
		return ""
	}
	if !amount.Equal(decimal.NewFromInt(1)) {
		if p, ok := plurals[t]; ok {
			return p
		}
	}
	if s, ok := singulars[t]; ok {
		return s
	}
	return string(t)
}

// displayNames maps canonical ingredient identifiers to readable names for
// the curated set; synthesized identifiers fall back to a mechanical
// lowering.
var displayNames = map[string]string{
	"FLOUR": "flour", "RICE": "rice", "CORNMEAL": "cornmeal",
	"SUGAR": "sugar", "BROWN_SUGAR": "brown sugar",
	"BUTTER": "butter", "LARD": "lard", "OIL": "vegetable oil",
	"MILK": "milk", "EGGS": "eggs", "HARD_BOILED_EGGS": "hard-boiled eggs",
	"GROUND_BEEF": "ground beef", "BEEF": "beef", "DRIED_BEEF": "dried beef",
	"TUNA": "tuna", "HOT_DOGS": "hot dogs",
	"POTATOES": "potatoes", "ONION": "onion", "CARROTS": "carrots",
	"CELERY": "celery", "GARLIC": "garlic",
	"CANNED_TOMATOES": "canned tomatoes", "CANNED_CORN": "corn",
	"CREAMED_CORN": "creamed corn", "CANNED_BEANS": "beans",
	"CHICKEN_SOUP": "chicken noodle soup",
	"EGG_NOODLES": "egg noodles", "MACARONI": "macaroni",
	"DRIED_BEANS": "dried beans",
	"SALT": "salt", "PEPPER": "pepper", "CINNAMON": "cinnamon",
	"PAPRIKA": "paprika", "CARAWAY_SEEDS": "caraway seeds",
	"BAKING_SODA": "baking soda", "BAKING_POWDER": "baking powder",
	"VANILLA": "vanilla extract",
	"BANANAS": "bananas", "RAISINS": "raisins",
	"WATER": "water", "STOCK": "stock",
	"HONEY": "honey", "MOLASSES": "molasses", "SYRUP": "syrup",
	"BREAD": "bread",
}

// IngredientName renders a canonical identifier for display.
func IngredientName(canonical string) string {
	if name, ok := displayNames[canonical]; ok {
		return name
	}
	if strings.Contains(canonical, "_") && canonical == strings.ToUpper(canonical) {
		return strings.ToLower(strings.ReplaceAll(canonical, "_", " "))
	}
	return canonical
}

// Price renders a currency amount: "$1.50" for USD, "1.50 GBP" otherwise.
func Price(amount decimal.Decimal, currency string) string {
	if currency == "USD" {
		return "$" + amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}

// PriceBasis describes the quantity a stored price applies to, e.g.
// "$1.00 per 1 can".
func PriceBasis(price decimal.Decimal, currency string, basisQuantity decimal.Decimal, unit units.Token) string {
	basis := Amount(basisQuantity)
	if u := Unit(basisQuantity, unit); u != "" {
		basis += " " + u
	}
	return fmt.Sprintf("%s per %s", Price(price, currency), basis)
}
