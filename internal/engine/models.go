package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ItemType is one entry of the static item catalog: a tradable item identified
// by numeric id and canonical name. PortionSize is the number of units consumed
// per reprocessing portion (1 for items that do not reprocess in batches).
type ItemType struct {
	ID          int32
	Name        string
	PortionSize int32
}

// Station identifies a trade hub: the region its order book lives in and the
// exact location used for order eligibility filtering.
type Station struct {
	RegionID   int32
	LocationID int64
	Name       string
}

// Order is a raw market order as returned by the order source. Orders are
// transient inputs to a summary recompute and are never cached.
type Order struct {
	OrderID      int64
	TypeID       int32
	LocationID   int64
	SystemID     int32
	IsBuyOrder   bool
	Price        decimal.Decimal
	VolumeRemain int64
	VolumeTotal  int64
	MinVolume    int64
	Issued       time.Time
	DurationDays int32
	ExpiresAt    time.Time
}

// OrderSummary is the cached, derived best-available buy price and coverage
// for one (station, item) pair. Summaries are replaced wholesale on refresh,
// never mutated in place.
type OrderSummary struct {
	Usable       bool // false = diagnostics only, excluded from pricing
	IsBuyOrder   bool
	Price        decimal.Decimal
	Item         ItemType
	VolumeRemain int64
	MinVolume    int64
	ExpiresAt    time.Time
}

// ContractItem is one line of a pasted contract before catalog resolution.
type ContractItem struct {
	Name   string
	Volume int64
}

// ResolvedItem is a contract item after catalog lookup. It carries both the
// name as the user typed it and the resolved catalog entry.
type ResolvedItem struct {
	Name   string
	Item   ItemType
	Volume int64
}

// MaterialYield is one row of the refinement table: reprocessing one portion
// of the source item yields Quantity units of the material.
type MaterialYield struct {
	MaterialTypeID int32
	Quantity       int32
}

// ItemCatalog is the read-only item reference table, loaded once at startup.
type ItemCatalog interface {
	ByID(id int32) (ItemType, bool)
	ByName(name string) (ItemType, bool) // case-insensitive
}

// RefinementTable maps an item type to its reprocessing yields. Items that do
// not reprocess return an empty slice.
type RefinementTable interface {
	YieldsFor(itemTypeID int32) []MaterialYield
}

// OrderSource returns the full set of currently open buy orders for an item
// around a station's region. Implementations own paging, timeouts and retry
// policy; the engine treats any error as fatal for that item's refresh.
type OrderSource interface {
	FetchBuyOrders(ctx context.Context, station Station, typeID int32, asOf time.Time) ([]Order, error)
}
