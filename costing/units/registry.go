// Package units provides the unit token registry and the unit conversion
// engine. Tokens form a closed vocabulary partitioned into categories;
// conversions are exact decimal rules with derived inverses plus a single
// cross-category escape hatch for count↔weight.
package units

import "strings"

// Token is a canonical unit identifier. Aliases resolve to exactly one
// token; strings outside the vocabulary pass through unchanged (lowercased)
// so later stages can reject them at conversion time instead.
type Token string

const (
	// Weight
	Pound    Token = "lb"
	Ounce    Token = "oz"
	Gram     Token = "g"
	Kilogram Token = "kg"

	// Volume
	Cup        Token = "cup"
	Tablespoon Token = "tbsp"
	Teaspoon   Token = "tsp"
	FluidOunce Token = "fl_oz"
	Pint       Token = "pt"
	Quart      Token = "qt"
	Gallon     Token = "gal"
	Milliliter Token = "ml"
	Liter      Token = "l"

	// Count
	Each  Token = "each"
	Dozen Token = "dozen"

	// Food-specific
	Can     Token = "can"
	Loaf    Token = "loaf"
	Package Token = "package"
	Bag     Token = "bag"
	Box     Token = "box"
)

// Category is the dimensional class of a token. Conversions are defined
// within a category, plus the registered food-specific escape hatches.
type Category string

const (
	CategoryWeight       Category = "weight"
	CategoryVolume       Category = "volume"
	CategoryCount        Category = "count"
	CategoryFoodSpecific Category = "food"
	CategoryUnknown      Category = ""
)

var categories = map[Token]Category{
	Pound: CategoryWeight, Ounce: CategoryWeight, Gram: CategoryWeight, Kilogram: CategoryWeight,

	Cup: CategoryVolume, Tablespoon: CategoryVolume, Teaspoon: CategoryVolume,
	FluidOunce: CategoryVolume, Pint: CategoryVolume, Quart: CategoryVolume,
	Gallon: CategoryVolume, Milliliter: CategoryVolume, Liter: CategoryVolume,

	Each: CategoryCount, Dozen: CategoryCount,

	Can: CategoryFoodSpecific, Loaf: CategoryFoodSpecific, Package: CategoryFoodSpecific,
	Bag: CategoryFoodSpecific, Box: CategoryFoodSpecific,
}

// aliases maps every recognized spelling to its canonical token. The empty
// string means "no unit was written", which is a count of one item.
var aliases = map[string]Token{
	"": Each,

	// Weight
	"lb": Pound, "lbs": Pound, "pound": Pound, "pounds": Pound,
	"oz": Ounce, "ounce": Ounce, "ounces": Ounce,
	"g": Gram, "gram": Gram, "grams": Gram,
	"kg": Kilogram, "kilogram": Kilogram, "kilograms": Kilogram,

	// Volume
	"cup": Cup, "cups": Cup, "c": Cup,
	"tbsp": Tablespoon, "tbsps": Tablespoon, "tbs": Tablespoon,
	"tablespoon": Tablespoon, "tablespoons": Tablespoon,
	"tsp": Teaspoon, "tsps": Teaspoon, "teaspoon": Teaspoon, "teaspoons": Teaspoon,
	"fl_oz": FluidOunce, "fl oz": FluidOunce, "fl. oz": FluidOunce,
	"fluid ounce": FluidOunce, "fluid ounces": FluidOunce,
	"pt": Pint, "pint": Pint, "pints": Pint,
	"qt": Quart, "quart": Quart, "quarts": Quart,
	"gal": Gallon, "gallon": Gallon, "gallons": Gallon,
	"ml": Milliliter, "milliliter": Milliliter, "milliliters": Milliliter,
	"l": Liter, "liter": Liter, "liters": Liter,

	// Count
	"each": Each, "whole": Each,
	"dozen": Dozen, "doz": Dozen,

	// Food-specific
	"can": Can, "cans": Can, "tin": Can,
	"loaf": Loaf, "loaves": Loaf,
	"package": Package, "packages": Package, "pkg": Package, "pack": Package,
	"bag": Bag, "bags": Bag,
	"box": Box, "boxes": Box,
}

// Resolve maps an alias string to its canonical token. Case-insensitive and
// whitespace-trimmed. Unrecognized text is returned lowercased, unchanged:
// resolution never fails, the conversion engine rejects unknown tokens later.
func Resolve(alias string) Token {
	cleaned := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(alias))), " ")
	if tok, ok := aliases[cleaned]; ok {
		return tok
	}
	return Token(cleaned)
}

// CategoryOf reports the dimensional category of a token. Tokens outside the
// vocabulary have CategoryUnknown.
func CategoryOf(t Token) Category {
	return categories[t]
}

// Known reports whether t belongs to the closed vocabulary.
func Known(t Token) bool {
	_, ok := categories[t]
	return ok
}
