package pricing

import (
	"recipe-cost/costing/parse"
	"recipe-cost/costing/standardize"
)

// BuildLines runs the front half of the pipeline: each raw line is parsed,
// its ingredient text standardized, and its canonical name resolved to an
// identifier. Lines that fail to parse are kept (with no amount or
// ingredient) so ComputeCost can account for them as unparseable.
func BuildLines(raws []string, std *standardize.Standardizer, dir standardize.Directory) ([]RecipeLine, error) {
	lines := make([]RecipeLine, 0, len(raws))
	for _, raw := range raws {
		parsed := parse.Line(raw)
		if !parsed.Parsed {
			lines = append(lines, RecipeLine{RawText: raw})
			continue
		}

		ing, err := dir.ResolveOrCreate(std.Standardize(parsed.IngredientText))
		if err != nil {
			return nil, err
		}

		amount := parsed.Amount
		lines = append(lines, RecipeLine{
			RawText:      raw,
			Amount:       &amount,
			Unit:         parsed.UnitText,
			IngredientID: ing.ID,
			Ingredient:   ing.CanonicalName,
		})
	}
	return lines, nil
}
