package engine

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteParams are the per-request knobs of a buyback calculation.
type QuoteParams struct {
	Station       Station
	Refine        bool
	TaxPct        decimal.Decimal
	EfficiencyPct decimal.Decimal
}

// QuoteItem is the per-item breakdown of a quote. Items whose summary is not
// usable for pricing contribute zero to the total but are reported so the
// caller can see the best-effort price that was found.
type QuoteItem struct {
	Item   ItemType        `json:"item"`
	Volume int64           `json:"volume"`
	Price  decimal.Decimal `json:"price"` // unit price
	Total  decimal.Decimal `json:"total"`
	Usable bool            `json:"usable"`
}

// Quote is a priced buyback offer for one pasted contract.
type Quote struct {
	Amount decimal.Decimal `json:"amount"` // after tax, rounded to 2 decimals
	Items  []QuoteItem     `json:"items"`
}

// Buyback sequences the full pricing pipeline: catalog resolution, optional
// refinement, per-item summary refresh, and tax arithmetic.
type Buyback struct {
	catalog  ItemCatalog
	refinery *Refinery
	cache    *SummaryCache
	source   OrderSource
	now      func() time.Time
}

// NewBuyback wires the pipeline over its collaborators.
func NewBuyback(catalog ItemCatalog, refinery *Refinery, cache *SummaryCache, source OrderSource) *Buyback {
	return &Buyback{
		catalog:  catalog,
		refinery: refinery,
		cache:    cache,
		source:   source,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Resolve looks up every contract item in the catalog. An unknown item name
// fails the whole request before any market data is touched.
func (b *Buyback) Resolve(items []ContractItem) ([]ResolvedItem, error) {
	resolved := make([]ResolvedItem, 0, len(items))
	for _, it := range items {
		itemType, ok := b.catalog.ByName(it.Name)
		if !ok {
			return nil, &UnknownItemTypeError{Name: it.Name}
		}
		resolved = append(resolved, ResolvedItem{Name: it.Name, Item: itemType, Volume: it.Volume})
	}
	return resolved, nil
}

// Quote prices a contract. Cancellation is cooperative: the context is checked
// between pipeline stages and after each per-item refresh; an aborted request
// commits nothing for the item that was in flight.
func (b *Buyback) Quote(ctx context.Context, items []ContractItem, p QuoteParams) (*Quote, error) {
	resolved, err := b.Resolve(items)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.Refine {
		refined := b.refinery.Refine(resolved, p.EfficiencyPct)
		if len(refined.Errors) > 0 {
			return nil, errors.Join(refined.Errors...)
		}
		resolved = resolved[:0]
		for _, y := range refined.Yields {
			resolved = append(resolved, ResolvedItem{Name: y.Item.Name, Item: y.Item, Volume: y.Volume})
		}
		resolved = append(resolved, refined.Passthrough...)
	}

	now := b.now()
	var updated []OrderSummary
	quote := &Quote{Items: make([]QuoteItem, 0, len(resolved))}
	gross := decimal.Zero

	for _, it := range resolved {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		check := b.cache.Check(p.Station, it.Item, it.Volume, now)
		summary := check.Summary
		if !check.Reusable {
			orders, err := b.source.FetchBuyOrders(ctx, p.Station, it.Item.ID, now)
			if err != nil {
				return nil, &UpstreamError{Station: p.Station.Name, TypeID: it.Item.ID, Err: err}
			}
			summary = Recompute(p.Station, it.Item, it.Volume, orders, now)
			updated = append(updated, summary)
		}

		qi := QuoteItem{
			Item:   it.Item,
			Volume: it.Volume,
			Price:  summary.Price,
			Usable: summary.Usable,
		}
		if summary.Usable {
			qi.Total = summary.Price.Mul(decimal.NewFromInt(it.Volume))
			gross = gross.Add(qi.Total)
		} else {
			qi.Total = decimal.Zero
		}
		quote.Items = append(quote.Items, qi)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.cache.Commit(p.Station, updated)

	hundred := decimal.NewFromInt(100)
	net := gross.Mul(hundred.Sub(p.TaxPct)).Div(hundred)
	quote.Amount = net.Round(2)
	return quote, nil
}
