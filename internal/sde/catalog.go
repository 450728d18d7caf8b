// Package sde loads the bundled static reference data: the item catalog and
// the refinement yield table. Both are parsed once during startup and injected
// into the components that need them; nothing in this package refreshes after
// load.
package sde

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"eve-buyback/internal/engine"
)

//go:embed data/typeIDs.yaml
var typeIDsYAML []byte

//go:embed data/typeMaterials.yaml
var typeMaterialsYAML []byte

// Catalog is the immutable item reference table, addressable by numeric id or
// case-insensitive name.
type Catalog struct {
	byID   map[int32]engine.ItemType
	byName map[string]engine.ItemType // lowercase name
}

type itemTypeData struct {
	Name struct {
		En string `yaml:"en"`
	} `yaml:"name"`
	PortionSize int32 `yaml:"portionSize"`
}

// LoadCatalog parses the embedded type-id table.
func LoadCatalog() (*Catalog, error) {
	var raw map[string]itemTypeData
	if err := yaml.Unmarshal(typeIDsYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse typeIDs.yaml: %w", err)
	}

	c := &Catalog{
		byID:   make(map[int32]engine.ItemType, len(raw)),
		byName: make(map[string]engine.ItemType, len(raw)),
	}
	for idStr, data := range raw {
		id, err := strconv.ParseInt(idStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("typeIDs.yaml: bad type id %q", idStr)
		}
		name := strings.TrimSpace(data.Name.En)
		if name == "" {
			return nil, fmt.Errorf("typeIDs.yaml: type %d has no name", id)
		}
		portion := data.PortionSize
		if portion < 1 {
			portion = 1
		}
		item := engine.ItemType{ID: int32(id), Name: name, PortionSize: portion}
		c.byID[item.ID] = item
		c.byName[strings.ToLower(name)] = item
	}
	return c, nil
}

// ByID looks up an item type by numeric id.
func (c *Catalog) ByID(id int32) (engine.ItemType, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// ByName looks up an item type by name, case-insensitively.
func (c *Catalog) ByName(name string) (engine.ItemType, bool) {
	item, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return item, ok
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int { return len(c.byID) }

// RefinementTable maps an item type id to its reprocessing yield rows. Items
// without an entry do not reprocess.
type RefinementTable struct {
	yields map[int32][]engine.MaterialYield
}

type materialData struct {
	Materials []struct {
		MaterialTypeID int32 `yaml:"materialTypeID"`
		Quantity       int32 `yaml:"quantity"`
	} `yaml:"materials"`
}

// LoadRefinementTable parses the embedded type-materials table.
func LoadRefinementTable() (*RefinementTable, error) {
	var raw map[string]materialData
	if err := yaml.Unmarshal(typeMaterialsYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse typeMaterials.yaml: %w", err)
	}

	t := &RefinementTable{yields: make(map[int32][]engine.MaterialYield, len(raw))}
	for idStr, data := range raw {
		id, err := strconv.ParseInt(idStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("typeMaterials.yaml: bad type id %q", idStr)
		}
		rows := make([]engine.MaterialYield, 0, len(data.Materials))
		for _, m := range data.Materials {
			rows = append(rows, engine.MaterialYield{
				MaterialTypeID: m.MaterialTypeID,
				Quantity:       m.Quantity,
			})
		}
		t.yields[int32(id)] = rows
	}
	return t, nil
}

// YieldsFor returns the yield rows for an item type, or nil when the item does
// not reprocess.
func (t *RefinementTable) YieldsFor(itemTypeID int32) []engine.MaterialYield {
	return t.yields[itemTypeID]
}

// Len reports the number of refinable item types.
func (t *RefinementTable) Len() int { return len(t.yields) }
