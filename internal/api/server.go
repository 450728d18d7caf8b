// Package api exposes the buyback service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eve-buyback/internal/config"
	"eve-buyback/internal/db"
	"eve-buyback/internal/engine"
	"eve-buyback/internal/logger"
	"eve-buyback/internal/sde"
)

// maxContractBytes caps the accepted plain-text contract body.
const maxContractBytes = 1 << 20

// Server is the HTTP server wiring the catalog, refinement engine, summary
// cache and quote history together.
type Server struct {
	cfg      *config.Config
	catalog  *sde.Catalog
	table    *sde.RefinementTable
	buyback  *engine.Buyback
	refinery *engine.Refinery
	cache    *engine.SummaryCache
	stations map[string]engine.Station // lowercase name
	db       *db.DB
}

// NewServer creates a Server over fully constructed collaborators. The station
// table comes from config; lookups are case-insensitive.
func NewServer(cfg *config.Config, catalog *sde.Catalog, table *sde.RefinementTable, buyback *engine.Buyback, refinery *engine.Refinery, cache *engine.SummaryCache, database *db.DB) *Server {
	stations := make(map[string]engine.Station, len(cfg.Stations))
	for _, s := range cfg.Stations {
		stations[strings.ToLower(s.Name)] = engine.Station{
			RegionID:   s.RegionID,
			LocationID: s.LocationID,
			Name:       s.Name,
		}
	}
	return &Server{
		cfg:      cfg,
		catalog:  catalog,
		table:    table,
		buyback:  buyback,
		refinery: refinery,
		cache:    cache,
		stations: stations,
		db:       database,
	}
}

// Handler returns the HTTP handler with all routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /buyback/calculate", s.handleBuybackCalculate)
	mux.HandleFunc("POST /reprocessing/calculate", s.handleReprocessingCalculate)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/buyback/history", s.handleHistory)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP status codes:
// input-class errors become 400s with their message verbatim, upstream market
// failures become 502s, anything else is a 500.
func writeEngineError(w http.ResponseWriter, err error) {
	var unknownItem *engine.UnknownItemTypeError
	var unknownMaterial *engine.UnknownMaterialTypeError
	var upstream *engine.UpstreamError
	switch {
	case errors.Is(err, engine.ErrBadInput),
		errors.Is(err, engine.ErrUnknownStation),
		errors.As(err, &unknownItem),
		errors.As(err, &unknownMaterial):
		writeError(w, 400, err.Error())
	case errors.As(err, &upstream):
		writeError(w, 502, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, 499, "request cancelled")
	default:
		writeError(w, 500, err.Error())
	}
}

func (s *Server) station(name string) (engine.Station, bool) {
	st, ok := s.stations[strings.ToLower(name)]
	return st, ok
}

func (s *Server) readContract(w http.ResponseWriter, r *http.Request) ([]engine.ContractItem, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxContractBytes))
	if err != nil {
		writeError(w, 400, "failed to read request body")
		return nil, false
	}
	items, err := ParseContract(string(body))
	if err != nil {
		writeError(w, 400, err.Error())
		return nil, false
	}
	if len(items) == 0 {
		writeError(w, 400, "contract is empty")
		return nil, false
	}
	return items, true
}

func (s *Server) handleBuybackCalculate(w http.ResponseWriter, r *http.Request) {
	items, ok := s.readContract(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	stationName := q.Get("station")
	if stationName == "" {
		stationName = s.cfg.Buyback.DefaultStation
	}
	station, ok := s.station(stationName)
	if !ok {
		writeError(w, 400, fmt.Sprintf("station '%s' not recognized", stationName))
		return
	}

	params := engine.QuoteParams{
		Station:       station,
		Refine:        boolParam(q.Get("shouldRefine"), s.cfg.Buyback.RefineByDefault),
		TaxPct:        decimalParam(q.Get("taxPercentage"), s.cfg.Buyback.TaxPercentage),
		EfficiencyPct: decimalParam(q.Get("efficiencyPercentage"), s.cfg.Buyback.EfficiencyPercentage),
	}

	quote, err := s.buyback.Quote(r.Context(), items, params)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	s.recordQuote(station.Name, params, quote)
	writeJSON(w, quote)
}

func (s *Server) handleReprocessingCalculate(w http.ResponseWriter, r *http.Request) {
	items, ok := s.readContract(w, r)
	if !ok {
		return
	}

	resolved, err := s.buyback.Resolve(items)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	efficiency := decimalParam(r.URL.Query().Get("efficiencyPercentage"), s.cfg.Buyback.EfficiencyPercentage)
	result := s.refinery.Refine(resolved, efficiency)
	if len(result.Errors) > 0 {
		writeEngineError(w, errors.Join(result.Errors...))
		return
	}

	type refinedItem struct {
		ItemTypeName string `json:"itemTypeName"`
		Volume       int64  `json:"volume"`
	}
	out := make([]refinedItem, 0, len(result.Yields)+len(result.Passthrough))
	for _, y := range result.Yields {
		out = append(out, refinedItem{ItemTypeName: y.Item.Name, Volume: y.Volume})
	}
	for _, p := range result.Passthrough {
		out = append(out, refinedItem{ItemTypeName: p.Item.Name, Volume: p.Volume})
	}
	writeJSON(w, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":          "ok",
		"item_types":      s.catalog.Len(),
		"refinable_types": s.table.Len(),
		"stations":        len(s.stations),
		"cached":          s.cache.Size(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.db.RecentQuotes(limit)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if records == nil {
		records = []db.QuoteRecord{}
	}
	writeJSON(w, records)
}

// recordQuote appends the computed quote to the history store. A storage
// failure never fails the request that produced the quote.
func (s *Server) recordQuote(station string, params engine.QuoteParams, quote *engine.Quote) {
	if s.db == nil {
		return
	}
	tax, _ := params.TaxPct.Float64()
	efficiency, _ := params.EfficiencyPct.Float64()
	err := s.db.SaveQuote(db.QuoteRecord{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Station:    station,
		Refined:    params.Refine,
		Tax:        tax,
		Efficiency: efficiency,
		Amount:     quote.Amount.StringFixed(2),
		ItemCount:  len(quote.Items),
	})
	if err != nil {
		logger.Warn("DB", fmt.Sprintf("Failed to record quote: %v", err))
	}
}

func boolParam(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func decimalParam(raw string, fallback float64) decimal.Decimal {
	if raw != "" {
		if v, err := decimal.NewFromString(raw); err == nil {
			return v
		}
	}
	return decimal.NewFromFloat(fallback)
}
