package engine

import "github.com/shopspring/decimal"

// Yield is a consolidated refined-material quantity.
type Yield struct {
	Item   ItemType
	Volume int64
}

// RefineResult is the outcome of refining a set of contract items: the
// consolidated material yields, the items that have no refinement mapping and
// flow through unchanged, and any unresolved-material errors encountered.
// Any error present fails the enclosing request, even though the engine keeps
// scanning remaining rows before returning.
type RefineResult struct {
	Yields      []Yield
	Passthrough []ResolvedItem
	Errors      []error
}

// Refinery converts contract items into their refined-material equivalents
// using the static refinement table and an efficiency percentage.
type Refinery struct {
	catalog ItemCatalog
	table   RefinementTable
}

// NewRefinery creates a refinery over the given catalog and refinement table.
func NewRefinery(catalog ItemCatalog, table RefinementTable) *Refinery {
	return &Refinery{catalog: catalog, table: table}
}

// Refine processes each item's yield rows and consolidates the output per
// material. Only whole portions refine: the volume remainder modulo portion
// size is discarded before the yield is computed, and the efficiency
// percentage is applied to the raw yield with a final floor.
func (r *Refinery) Refine(items []ResolvedItem, efficiencyPct decimal.Decimal) RefineResult {
	var result RefineResult
	totals := make(map[int32]int64)
	var order []ItemType // material ids in first-seen order, for stable output

	for _, it := range items {
		yields := r.table.YieldsFor(it.Item.ID)
		if len(yields) == 0 {
			result.Passthrough = append(result.Passthrough, it)
			continue
		}

		remainder := it.Volume % int64(it.Item.PortionSize)
		refineable := it.Volume - remainder
		portions := refineable / int64(it.Item.PortionSize)

		for _, y := range yields {
			material, ok := r.catalog.ByID(y.MaterialTypeID)
			if !ok {
				result.Errors = append(result.Errors, &UnknownMaterialTypeError{TypeID: y.MaterialTypeID})
				continue
			}
			raw := portions * int64(y.Quantity)
			adjusted := applyEfficiency(raw, efficiencyPct)
			if _, seen := totals[material.ID]; !seen {
				order = append(order, material)
			}
			totals[material.ID] += adjusted
		}
	}

	for _, material := range order {
		result.Yields = append(result.Yields, Yield{Item: material, Volume: totals[material.ID]})
	}
	return result
}

// applyEfficiency floors raw * pct / 100.
func applyEfficiency(raw int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(raw).
		Mul(pct).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}
