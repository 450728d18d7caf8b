package engine

import (
	"strings"
	"sync"
	"time"
)

// CheckResult is the outcome of a cache staleness check: either the stored
// summary is still trustworthy for the requested volume, or the entry must be
// recomputed from fresh orders.
type CheckResult struct {
	Reusable bool
	Summary  OrderSummary // set when Reusable
	Item     ItemType     // resolved item to refresh, set when stale
	Volume   int64        // requested volume, set when stale
}

// SummaryCache is the in-memory map of station name to per-item order
// summaries. Station keys are case-insensitive; items are keyed by numeric id.
// Reads may observe a stale snapshot (the staleness check governs correctness,
// not locking); writes within a station are serialized, writes across stations
// are independent.
type SummaryCache struct {
	mu       sync.Mutex
	stations map[string]*stationSummaries
}

type stationSummaries struct {
	mu        sync.RWMutex
	summaries map[int32]OrderSummary
}

// NewSummaryCache creates an empty summary cache.
func NewSummaryCache() *SummaryCache {
	return &SummaryCache{stations: make(map[string]*stationSummaries)}
}

// station returns the per-station table, creating it when create is set.
// Creation is compare-and-insert under the cache mutex so two concurrent
// first commits for the same station share one table.
func (c *SummaryCache) station(name string, create bool) *stationSummaries {
	key := strings.ToLower(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.stations[key]
	if !ok && create {
		st = &stationSummaries{summaries: make(map[int32]OrderSummary)}
		c.stations[key] = st
	}
	return st
}

// Lookup returns the stored summary for (station, item), if any.
func (c *SummaryCache) Lookup(station Station, itemID int32) (OrderSummary, bool) {
	st := c.station(station.Name, false)
	if st == nil {
		return OrderSummary{}, false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.summaries[itemID]
	return s, ok
}

// Check decides whether the cached summary for item can be reused for a
// request of the given volume at the given time. A summary is reusable iff it
// has not expired, covers at least the requested volume, and its minimum fill
// does not exceed the requested volume. Anything else — including a missing
// entry — is a stale signal telling the caller to fetch fresh orders.
func (c *SummaryCache) Check(station Station, item ItemType, volume int64, now time.Time) CheckResult {
	if s, ok := c.Lookup(station, item.ID); ok &&
		s.ExpiresAt.After(now) &&
		s.VolumeRemain >= volume &&
		s.MinVolume <= volume {
		return CheckResult{Reusable: true, Summary: s}
	}
	return CheckResult{Reusable: false, Item: item, Volume: volume}
}

// Commit merges recomputed summaries into the station's table, replacing any
// previous entry per item. This is the only path that mutates the cache.
func (c *SummaryCache) Commit(station Station, summaries []OrderSummary) {
	if len(summaries) == 0 {
		return
	}
	st := c.station(station.Name, true)
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range summaries {
		st.summaries[s.Item.ID] = s
	}
}

// Size reports the number of cached summaries per station, for diagnostics.
func (c *SummaryCache) Size() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	sizes := make(map[string]int, len(c.stations))
	for name, st := range c.stations {
		st.mu.RLock()
		sizes[name] = len(st.summaries)
		st.mu.RUnlock()
	}
	return sizes
}
