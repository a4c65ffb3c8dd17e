package format

import (
	"testing"

	"github.com/shopspring/decimal"

	"recipe-cost/costing/units"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2", "2"},
		{"2.00", "2"},
		{"0.5", "½"},
		{"0.25", "¼"},
		{"0.75", "¾"},
		{"1.5", "1 ½"},
		{"2.25", "2 ¼"},
		// 1/3 survives the round trip through decimal within tolerance.
		{"0.3333333333333333", "⅓"},
		{"0.6666666666666667", "⅔"},
		{"1.33", "1 ⅓"},
		// No nearby kitchen fraction: two decimals, trailing zeros trimmed.
		{"1.1", "1.1"},
		{"0.13", "0.13"},
		{"3.14159", "3.14"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Amount(dec(tt.in)); got != tt.want {
				t.Errorf("Amount(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnit(t *testing.T) {
	tests := []struct {
		amount string
		unit   units.Token
		want   string
	}{
		{"1", units.Cup, "cup"},
		{"2", units.Cup, "cups"},
		{"0.5", units.Cup, "cups"},
		{"1", units.Loaf, "loaf"},
		{"3", units.Loaf, "loaves"},
		{"2", units.Box, "boxes"},
		{"2", units.FluidOunce, "fl oz"},
		{"1", units.Each, ""},
		{"5", units.Each, ""},
		// Unknown tokens pass through as-is.
		{"2", units.Token("bunch"), "bunch"},
	}
	for _, tt := range tests {
		if got := Unit(dec(tt.amount), tt.unit); got != tt.want {
			t.Errorf("Unit(%s, %s) = %q, want %q", tt.amount, tt.unit, got, tt.want)
		}
	}
}

func TestIngredientName(t *testing.T) {
	tests := []struct {
		canonical string
		want      string
	}{
		{"FLOUR", "flour"},
		{"GROUND_BEEF", "ground beef"},
		{"HARD_BOILED_EGGS", "hard-boiled eggs"},
		// Synthesized identifiers lower mechanically.
		{"SAFFRON_THREADS", "saffron threads"},
		// Anything that doesn't look canonical is left alone.
		{"Gochujang", "Gochujang"},
	}
	for _, tt := range tests {
		if got := IngredientName(tt.canonical); got != tt.want {
			t.Errorf("IngredientName(%q) = %q, want %q", tt.canonical, got, tt.want)
		}
	}
}

func TestPrice(t *testing.T) {
	if got := Price(dec("1.5"), "USD"); got != "$1.50" {
		t.Errorf("Price USD = %q, want $1.50", got)
	}
	if got := Price(dec("1.5"), "GBP"); got != "1.50 GBP" {
		t.Errorf("Price GBP = %q, want 1.50 GBP", got)
	}
}

func TestPriceBasis(t *testing.T) {
	tests := []struct {
		price    string
		currency string
		basis    string
		unit     units.Token
		want     string
	}{
		{"1.00", "USD", "1", units.Can, "$1.00 per 1 can"},
		{"0.50", "USD", "1", units.Pound, "$0.50 per 1 pound"},
		{"3.00", "USD", "1", units.Dozen, "$3.00 per 1 dozen"},
		{"2.20", "GBP", "1", units.Each, "2.20 GBP per 1"},
	}
	for _, tt := range tests {
		got := PriceBasis(dec(tt.price), tt.currency, dec(tt.basis), tt.unit)
		if got != tt.want {
			t.Errorf("PriceBasis(%s %s / %s %s) = %q, want %q",
				tt.price, tt.currency, tt.basis, tt.unit, got, tt.want)
		}
	}
}
