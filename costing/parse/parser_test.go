package parse

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantAmount     string
		wantUnit       string
		wantIngredient string
	}{
		{"plain", "2 cups flour", "2", "cups", "flour"},
		{"mixed number", "1 1/2 cups flour", "1.5", "cups", "flour"},
		{"simple fraction", "1/2 tsp salt", "0.5", "tsp", "salt"},
		{"decimal", "1.5 lb ground beef", "1.5", "lb", "ground beef"},
		{"vulgar glyph", "½ cup sugar", "0.5", "cup", "sugar"},
		{"mixed with glyph", "1 ½ cups milk", "1.5", "cups", "milk"},
		{"range averages", "1-2 tbsp butter", "1.5", "tbsp", "butter"},
		{"two word unit", "4 fl oz cream", "4", "fl oz", "cream"},
		{"can of grammar", "1 can of tomatoes", "1", "can", "tomatoes"},
		{"sized can of", "15 oz can of tomatoes, chopped", "1", "can", "tomatoes, chopped"},
		{"oz can reattribution", "15 oz can tomatoes", "15", "can", "oz can tomatoes"},
		{"no unit word", "2 eggs", "2", "", "eggs"},
		{"no numeric lead", "salt to taste", "1", "", "salt to taste"},
		{"qualifier word as unit", "1 large onion", "1", "large", "onion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Line(tt.input)
			if !got.Parsed {
				t.Fatalf("Line(%q) unparsed: %s", tt.input, got.Reason)
			}
			if !got.Amount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("amount = %s, want %s", got.Amount, tt.wantAmount)
			}
			if got.UnitText != tt.wantUnit {
				t.Errorf("unit = %q, want %q", got.UnitText, tt.wantUnit)
			}
			if got.IngredientText != tt.wantIngredient {
				t.Errorf("ingredient = %q, want %q", got.IngredientText, tt.wantIngredient)
			}
		})
	}
}

func TestLineBlank(t *testing.T) {
	for _, input := range []string{"", "   ", "\t"} {
		got := Line(input)
		if got.Parsed {
			t.Errorf("Line(%q) should be unparsed", input)
		}
		if got.Reason == "" {
			t.Errorf("Line(%q) should carry a reason", input)
		}
	}
}

// Malformed numeric leads degrade to 1 rather than failing the parse or
// producing a negative amount.
func TestLineMalformedAmountDegrades(t *testing.T) {
	tests := []struct {
		input string
	}{
		{"1/0 cup flour"},
		{"2- tbsp sugar"},
		{"3/ cups milk"},
	}
	for _, tt := range tests {
		got := Line(tt.input)
		if !got.Parsed {
			t.Fatalf("Line(%q) unparsed: %s", tt.input, got.Reason)
		}
		if !got.Amount.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Line(%q) amount = %s, want degraded 1", tt.input, got.Amount)
		}
	}
}

func TestLineNeverNegative(t *testing.T) {
	inputs := []string{
		"2 cups flour", "1-3 tbsp oil", "1/2 tsp salt", "0.25 lb butter",
		"salt", "", "15 oz can of tomatoes", "100 g rice",
	}
	for _, input := range inputs {
		got := Line(input)
		if got.Parsed && got.Amount.IsNegative() {
			t.Errorf("Line(%q) produced negative amount %s", input, got.Amount)
		}
	}
}
