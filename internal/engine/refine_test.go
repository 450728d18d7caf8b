package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// fakeCatalog and fakeTable stand in for the static reference data.
type fakeCatalog struct {
	items map[int32]ItemType
}

func newFakeCatalog(items ...ItemType) *fakeCatalog {
	c := &fakeCatalog{items: make(map[int32]ItemType)}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

func (c *fakeCatalog) ByID(id int32) (ItemType, bool) {
	it, ok := c.items[id]
	return it, ok
}

func (c *fakeCatalog) ByName(name string) (ItemType, bool) {
	for _, it := range c.items {
		if strings.EqualFold(it.Name, name) {
			return it, true
		}
	}
	return ItemType{}, false
}

type fakeTable map[int32][]MaterialYield

func (t fakeTable) YieldsFor(itemTypeID int32) []MaterialYield { return t[itemTypeID] }

var (
	pyerite      = ItemType{ID: 35, Name: "Pyerite", PortionSize: 1}
	veldsparComp = ItemType{ID: 62516, Name: "Compressed Veldspar", PortionSize: 100}
	scordite     = ItemType{ID: 1228, Name: "Scordite", PortionSize: 100}
	rifter       = ItemType{ID: 587, Name: "Rifter", PortionSize: 1}
)

func testRefinery() *Refinery {
	catalog := newFakeCatalog(tritanium, pyerite, veldsparComp, scordite, rifter)
	table := fakeTable{
		veldsparComp.ID: {{MaterialTypeID: 34, Quantity: 400}},
		scordite.ID:     {{MaterialTypeID: 34, Quantity: 150}, {MaterialTypeID: 35, Quantity: 90}},
	}
	return NewRefinery(catalog, table)
}

func pct(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestRefine_FloorsPartialPortionsAndAppliesEfficiency(t *testing.T) {
	r := testRefinery()

	// 250 units at portion size 100: remainder 50 discarded, 2 portions refine
	// to 800 Tritanium, 75% efficiency floors to 600.
	result := r.Refine([]ResolvedItem{{Name: "Compressed Veldspar", Item: veldsparComp, Volume: 250}}, pct(75))

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Yields) != 1 {
		t.Fatalf("got %d yields, want 1", len(result.Yields))
	}
	y := result.Yields[0]
	if y.Item.ID != 34 || y.Volume != 600 {
		t.Fatalf("yield = %s x%d, want Tritanium x600", y.Item.Name, y.Volume)
	}
}

func TestRefine_BelowOnePortionYieldsZero(t *testing.T) {
	r := testRefinery()

	result := r.Refine([]ResolvedItem{{Name: "Compressed Veldspar", Item: veldsparComp, Volume: 99}}, pct(100))

	if len(result.Yields) != 1 {
		t.Fatalf("got %d yields, want 1", len(result.Yields))
	}
	if result.Yields[0].Volume != 0 {
		t.Fatalf("yield volume = %d, want 0 for a partial portion", result.Yields[0].Volume)
	}
}

func TestRefine_EfficiencyBounds(t *testing.T) {
	r := testRefinery()
	item := ResolvedItem{Name: "Compressed Veldspar", Item: veldsparComp, Volume: 300}

	full := r.Refine([]ResolvedItem{item}, pct(100))
	if full.Yields[0].Volume != 1200 {
		t.Fatalf("100%% efficiency yield = %d, want 1200", full.Yields[0].Volume)
	}

	zero := r.Refine([]ResolvedItem{item}, pct(0))
	if zero.Yields[0].Volume != 0 {
		t.Fatalf("0%% efficiency yield = %d, want 0", zero.Yields[0].Volume)
	}
}

func TestRefine_PassthroughForUnrefinableItems(t *testing.T) {
	r := testRefinery()

	result := r.Refine([]ResolvedItem{{Name: "Rifter", Item: rifter, Volume: 3}}, pct(75))

	if len(result.Yields) != 0 {
		t.Fatalf("got %d yields, want 0", len(result.Yields))
	}
	if len(result.Passthrough) != 1 || result.Passthrough[0].Item.ID != rifter.ID || result.Passthrough[0].Volume != 3 {
		t.Fatalf("passthrough = %+v, want Rifter x3 unchanged", result.Passthrough)
	}
}

func TestRefine_ConsolidatesYieldsAcrossItems(t *testing.T) {
	r := testRefinery()

	result := r.Refine([]ResolvedItem{
		{Name: "Compressed Veldspar", Item: veldsparComp, Volume: 100}, // 400 Tritanium
		{Name: "Scordite", Item: scordite, Volume: 200},               // 300 Tritanium, 180 Pyerite
	}, pct(100))

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Yields) != 2 {
		t.Fatalf("got %d yields, want 2 consolidated materials", len(result.Yields))
	}
	byID := make(map[int32]int64)
	for _, y := range result.Yields {
		byID[y.Item.ID] = y.Volume
	}
	if byID[34] != 700 {
		t.Fatalf("Tritanium = %d, want 700", byID[34])
	}
	if byID[35] != 180 {
		t.Fatalf("Pyerite = %d, want 180", byID[35])
	}
}

func TestRefine_UnknownMaterialRecordsErrorAndContinues(t *testing.T) {
	catalog := newFakeCatalog(tritanium, veldsparComp)
	table := fakeTable{
		veldsparComp.ID: {
			{MaterialTypeID: 99999, Quantity: 10}, // not in catalog
			{MaterialTypeID: 34, Quantity: 400},
		},
	}
	r := NewRefinery(catalog, table)

	result := r.Refine([]ResolvedItem{{Name: "Compressed Veldspar", Item: veldsparComp, Volume: 100}}, pct(100))

	if len(result.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(result.Errors))
	}
	var unknown *UnknownMaterialTypeError
	if !errors.As(result.Errors[0], &unknown) || unknown.TypeID != 99999 {
		t.Fatalf("error = %v, want UnknownMaterialTypeError for 99999", result.Errors[0])
	}
	// The valid row after the bad one is still processed.
	if len(result.Yields) != 1 || result.Yields[0].Volume != 400 {
		t.Fatalf("yields = %+v, want Tritanium x400 despite the bad row", result.Yields)
	}
}
