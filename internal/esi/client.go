// Package esi is the market order source: a rate-limited HTTP client for the
// EVE Swagger Interface.
package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"eve-buyback/internal/engine"
)

const (
	// DefaultBaseURL is the public ESI endpoint.
	DefaultBaseURL = "https://esi.evetech.net/latest"

	userAgent = "eve-buyback/1.0 (github.com)"

	// maxConcurrent bounds in-flight ESI requests across all quote requests.
	maxConcurrent = 20
)

// Client fetches market orders from ESI. A singleflight group coalesces
// concurrent fetches for the same (region, item) so parallel quote requests
// do not duplicate network work.
type Client struct {
	http    *http.Client
	baseURL string
	sem     chan struct{}
	group   singleflight.Group
}

// NewClient creates an ESI client with the given base URL and request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		sem:     make(chan struct{}, maxConcurrent),
	}
}

// orderRecord mirrors the ESI market order response.
type orderRecord struct {
	OrderID      int64           `json:"order_id"`
	TypeID       int32           `json:"type_id"`
	LocationID   int64           `json:"location_id"`
	SystemID     int32           `json:"system_id"`
	IsBuyOrder   bool            `json:"is_buy_order"`
	Price        decimal.Decimal `json:"price"`
	VolumeRemain int64           `json:"volume_remain"`
	VolumeTotal  int64           `json:"volume_total"`
	MinVolume    int64           `json:"min_volume"`
	Issued       time.Time       `json:"issued"`
	Duration     int32           `json:"duration"`
}

func (r orderRecord) toOrder(expiresAt time.Time) engine.Order {
	return engine.Order{
		OrderID:      r.OrderID,
		TypeID:       r.TypeID,
		LocationID:   r.LocationID,
		SystemID:     r.SystemID,
		IsBuyOrder:   r.IsBuyOrder,
		Price:        r.Price,
		VolumeRemain: r.VolumeRemain,
		VolumeTotal:  r.VolumeTotal,
		MinVolume:    r.MinVolume,
		Issued:       r.Issued,
		DurationDays: r.Duration,
		ExpiresAt:    expiresAt,
	}
}

// FetchBuyOrders returns all open buy orders for typeID in the station's
// region, fetched page by page until a page comes back empty or not found.
// Each order's expiration is taken from the response Expires header, falling
// back to asOf+5m when the header is missing or unparseable.
func (c *Client) FetchBuyOrders(ctx context.Context, station engine.Station, typeID int32, asOf time.Time) ([]engine.Order, error) {
	key := fmt.Sprintf("%d:%d", station.RegionID, typeID)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.fetchAllPages(ctx, station.RegionID, typeID, asOf)
	})
	if err != nil {
		return nil, err
	}
	return v.([]engine.Order), nil
}

func (c *Client) fetchAllPages(ctx context.Context, regionID, typeID int32, asOf time.Time) ([]engine.Order, error) {
	var orders []engine.Order
	for page := 1; ; page++ {
		pageOrders, err := c.fetchPage(ctx, regionID, typeID, page, asOf)
		if err != nil {
			return nil, err
		}
		if len(pageOrders) == 0 {
			return orders, nil
		}
		orders = append(orders, pageOrders...)
	}
}

func (c *Client) fetchPage(ctx context.Context, regionID, typeID int32, page int, asOf time.Time) ([]engine.Order, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.sem }()

	url := fmt.Sprintf("%s/markets/%d/orders/?datasource=tranquility&order_type=buy&type_id=%d&page=%d",
		c.baseURL, regionID, typeID, page)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// ESI signals "past the last page" with a 404.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ESI %d: %s", resp.StatusCode, string(body))
	}

	expiresAt := parseExpires(resp, asOf)

	var records []orderRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode orders page %d: %w", page, err)
	}

	orders := make([]engine.Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, r.toOrder(expiresAt))
	}
	return orders, nil
}

// parseExpires reads the Expires header from an ESI response. Falls back to
// asOf+5m; ESI market orders typically refresh every 5 minutes.
func parseExpires(resp *http.Response, asOf time.Time) time.Time {
	if exp := resp.Header.Get("Expires"); exp != "" {
		if t, err := time.Parse(time.RFC1123, exp); err == nil {
			return t
		}
	}
	return asOf.Add(5 * time.Minute)
}
