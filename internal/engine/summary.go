package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MaxMatchPasses bounds how many times a recompute may restart its scan after
// a minimum-volume constraint blocks progress. The value is a safety valve
// against pathological cycling, not a derived invariant; reaching it is
// treated the same as exhausting the candidate list.
const MaxMatchPasses = 15

// emptyResultTTL is the lifetime of a summary computed from zero candidate
// orders. Kept short so an empty order book is re-checked almost immediately
// instead of being cached for the usual window.
const emptyResultTTL = 2 * time.Second

// fallbackSummaryTTL caps a summary's lifetime when the accepted orders all
// expire further out than the market data refresh window.
const fallbackSummaryTTL = 5 * time.Minute

// Recompute derives a fresh order summary for item at station from a raw order
// list. It is a pure function of its inputs: calling it twice with the same
// orders and timestamp yields identical summaries.
//
// Candidates are filtered to buy orders at the station's exact location that
// live past now, will not lapse within a day of issue+duration, and whose
// minimum fill does not already exceed the requested volume. They are then
// matched greedily by descending price (descending expiration as tie-break)
// until the requested volume is covered or the candidates run out.
func Recompute(station Station, item ItemType, volume int64, orders []Order, now time.Time) OrderSummary {
	candidates := filterCandidates(station, volume, orders, now)
	sortCandidates(candidates)

	skip := 0
	for pass := 0; ; pass++ {
		summary, restartAt, restart := matchPass(item, volume, candidates, skip, now)
		if !restart || pass >= MaxMatchPasses {
			return summary
		}
		skip = restartAt
	}
}

// filterCandidates keeps only orders eligible for buyback pricing.
func filterCandidates(station Station, volume int64, orders []Order, now time.Time) []Order {
	candidates := make([]Order, 0, len(orders))
	for _, o := range orders {
		if !o.IsBuyOrder || o.LocationID != station.LocationID {
			continue
		}
		// Orders lapsing within a day are too close to expiry to price against.
		if o.Issued.AddDate(0, 0, int(o.DurationDays)).Before(now.Add(24 * time.Hour)) {
			continue
		}
		if !o.ExpiresAt.After(now) {
			continue
		}
		if o.MinVolume > volume {
			continue
		}
		candidates = append(candidates, o)
	}
	return candidates
}

// sortCandidates orders by price descending with expiration descending as a
// true secondary tie-break.
func sortCandidates(candidates []Order) {
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].Price.Equal(candidates[j].Price) {
			return candidates[i].Price.GreaterThan(candidates[j].Price)
		}
		return candidates[i].ExpiresAt.After(candidates[j].ExpiresAt)
	})
}

// matchPass runs one greedy scan over candidates[skip:]. It returns either a
// final summary (restart=false) or, when a high-minimum order blocks an
// otherwise fillable scan, a partial not-usable summary together with the
// index to restart from (restart=true). The partial summary becomes the final
// result if the caller has exhausted its pass budget.
func matchPass(item ItemType, volume int64, candidates []Order, skip int, now time.Time) (summary OrderSummary, restartAt int, restart bool) {
	if skip >= len(candidates) {
		return OrderSummary{
			Usable:       false,
			IsBuyOrder:   true,
			Price:        decimal.Zero,
			Item:         item,
			VolumeRemain: 0,
			MinVolume:    1,
			ExpiresAt:    now.Add(emptyResultTTL),
		}, 0, false
	}

	volumeToFill := volume
	maxPrice := decimal.Zero
	var totalRemain int64
	var maxMinVolume int64 = 1
	earliestExpiry := now.Add(fallbackSummaryTTL)
	accepted := 0
	lastAccepted := -1

	for i := skip; i < len(candidates); i++ {
		o := candidates[i]

		if o.MinVolume > volumeToFill {
			// This order's minimum fill cannot be met with what is left. If it
			// could have been met by the original volume and we already spent
			// volume on earlier orders, the scan order is at fault: restart
			// just past the last accepted order so the lower-priced orders
			// behind this one get a chance.
			if accepted > 0 && o.MinVolume < volume {
				return buildSummary(false, maxPrice, item, totalRemain, maxMinVolume, earliestExpiry), lastAccepted + 1, true
			}
			continue
		}

		accepted++
		lastAccepted = i
		if o.Price.GreaterThan(maxPrice) {
			maxPrice = o.Price
		}
		if o.MinVolume > maxMinVolume {
			maxMinVolume = o.MinVolume
		}
		if o.VolumeRemain >= volumeToFill {
			volumeToFill = 0
		} else {
			volumeToFill -= o.VolumeRemain
		}
		totalRemain += o.VolumeRemain
		if o.ExpiresAt.Before(earliestExpiry) {
			earliestExpiry = o.ExpiresAt
		}

		if volumeToFill < 1 {
			return buildSummary(true, maxPrice, item, totalRemain, maxMinVolume, earliestExpiry), 0, false
		}
	}

	// Candidates exhausted without covering the requested volume: emit what was
	// accumulated so callers still see a best-effort price for diagnostics.
	return buildSummary(false, maxPrice, item, totalRemain, maxMinVolume, earliestExpiry), 0, false
}

func buildSummary(usable bool, price decimal.Decimal, item ItemType, volumeRemain, minVolume int64, expiresAt time.Time) OrderSummary {
	return OrderSummary{
		Usable:       usable,
		IsBuyOrder:   true,
		Price:        price,
		Item:         item,
		VolumeRemain: volumeRemain,
		MinVolume:    minVolume,
		ExpiresAt:    expiresAt,
	}
}
