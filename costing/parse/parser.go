// Package parse turns free-text recipe ingredient lines into candidate
// (amount, unit-text, ingredient-text) triples. Malformed input is a normal,
// representable outcome, never a panic or error: numeric leads that fail to
// convert degrade to an amount of 1 so ingredient identification can still
// proceed.
package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Result is the outcome of parsing one ingredient line. When Parsed is
// false, Reason says why and the remaining fields are zero.
type Result struct {
	Raw            string          `json:"raw"`
	Parsed         bool            `json:"parsed"`
	Reason         string          `json:"reason,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	UnitText       string          `json:"unit_text"`
	IngredientText string          `json:"ingredient_text"`
}

// glyphReplacer rewrites vulgar-fraction glyphs as plain fractions so the
// numeric grammar can treat "1 ½ cups" and "1 1/2 cups" identically.
var glyphReplacer = strings.NewReplacer(
	"½", "1/2",
	"⅓", "1/3",
	"⅔", "2/3",
	"¼", "1/4",
	"¾", "3/4",
	"⅕", "1/5",
	"⅖", "2/5",
	"⅗", "3/5",
	"⅘", "4/5",
	"⅙", "1/6",
	"⅚", "5/6",
	"⅛", "1/8",
	"⅜", "3/8",
	"⅝", "5/8",
	"⅞", "7/8",
)

// linePattern matches a leading numeric expression, a unit phrase of up to
// two words, and the remaining ingredient text. bareAmountPattern catches
// lines where the unit word is absent ("2 eggs"): the remainder is all
// ingredient text and the unit defaults to each.
var (
	linePattern       = regexp.MustCompile(`^([\d\.\s/\-]+)\s*([a-zA-Z]+\.?(?:\s+[a-zA-Z]+\.?)?)\s+(.+)$`)
	bareAmountPattern = regexp.MustCompile(`^([\d\.\s/\-]+)\s+(\S.*)$`)

	// ozCanPattern catches sized cans like "15 oz can tomatoes": the weight
	// qualifies the can, so the can is the unit and the size text stays with
	// the ingredient.
	ozCanPattern = regexp.MustCompile(`(?i)^([\d\.\s/\-]+)\s*(oz|ounce|ounces)\s+(.*can.*)$`)
)

var one = decimal.NewFromInt(1)

// Line parses a single raw ingredient line.
func Line(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{Raw: raw, Reason: "empty line"}
	}

	text := glyphReplacer.Replace(trimmed)

	// "<amount> can of <rest>" is its own grammar: the can is the unit no
	// matter what precedes it.
	if lower := strings.ToLower(text); strings.Contains(lower, " can of ") {
		idx := strings.Index(lower, " can of ")
		rest := strings.TrimSpace(text[idx+len(" can of "):])
		if rest != "" {
			return Result{
				Raw:            raw,
				Parsed:         true,
				Amount:         parseAmount(text[:idx]),
				UnitText:       "can",
				IngredientText: rest,
			}
		}
	}

	if m := ozCanPattern.FindStringSubmatch(text); m != nil {
		return Result{
			Raw:            raw,
			Parsed:         true,
			Amount:         parseAmount(m[1]),
			UnitText:       "can",
			IngredientText: strings.TrimSpace(m[2]) + " " + strings.TrimSpace(m[3]),
		}
	}

	if m := linePattern.FindStringSubmatch(text); m != nil {
		return Result{
			Raw:            raw,
			Parsed:         true,
			Amount:         parseAmount(m[1]),
			UnitText:       strings.TrimSpace(m[2]),
			IngredientText: strings.TrimSpace(m[3]),
		}
	}

	if m := bareAmountPattern.FindStringSubmatch(text); m != nil {
		return Result{
			Raw:            raw,
			Parsed:         true,
			Amount:         parseAmount(m[1]),
			UnitText:       "",
			IngredientText: strings.TrimSpace(m[2]),
		}
	}

	// No numeric lead: one of whatever the line names.
	return Result{
		Raw:            raw,
		Parsed:         true,
		Amount:         one,
		UnitText:       "",
		IngredientText: trimmed,
	}
}

// parseAmount evaluates a numeric lead: integer, decimal, simple fraction,
// mixed number, or a range averaged to its midpoint. Malformed input
// degrades to 1.
func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)

	if strings.Contains(s, "-") {
		parts := strings.SplitN(s, "-", 2)
		low, okLow := parseSimpleAmount(parts[0])
		high, okHigh := parseSimpleAmount(parts[1])
		if okLow && okHigh {
			return low.Add(high).Div(decimal.NewFromInt(2))
		}
		return one
	}

	if v, ok := parseSimpleAmount(s); ok {
		return v
	}
	return one
}

// parseSimpleAmount handles "2", "1.5", "1/2" and "1 1/2".
func parseSimpleAmount(s string) (decimal.Decimal, bool) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return parseNumberOrFraction(fields[0])
	case 2:
		whole, ok := parseNumberOrFraction(fields[0])
		if !ok || !strings.Contains(fields[1], "/") {
			return decimal.Zero, false
		}
		frac, ok := parseNumberOrFraction(fields[1])
		if !ok {
			return decimal.Zero, false
		}
		return whole.Add(frac), true
	default:
		return decimal.Zero, false
	}
}

func parseNumberOrFraction(s string) (decimal.Decimal, bool) {
	if num, den, found := strings.Cut(s, "/"); found {
		n, err := decimal.NewFromString(num)
		if err != nil {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(den)
		if err != nil || d.IsZero() {
			return decimal.Zero, false
		}
		return n.Div(d), true
	}
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return decimal.Zero, false
	}
	return v, true
}
