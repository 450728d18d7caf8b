package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"eve-buyback/internal/api"
	"eve-buyback/internal/config"
	"eve-buyback/internal/db"
	"eve-buyback/internal/engine"
	"eve-buyback/internal/esi"
	"eve-buyback/internal/logger"
	"eve-buyback/internal/sde"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	logger.Banner(version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Config", fmt.Sprintf("Load failed: %v", err))
		os.Exit(1)
	}
	if cfg.Logging.File != "" {
		logger.SetFile(cfg.Logging.File)
	}

	catalog, err := sde.LoadCatalog()
	if err != nil {
		logger.Error("SDE", fmt.Sprintf("Catalog load failed: %v", err))
		os.Exit(1)
	}
	table, err := sde.LoadRefinementTable()
	if err != nil {
		logger.Error("SDE", fmt.Sprintf("Refinement table load failed: %v", err))
		os.Exit(1)
	}
	logger.Section("Catalog")
	logger.Stats("Item types", catalog.Len())
	logger.Stats("Refinable", table.Len())
	logger.Stats("Stations", len(cfg.Stations))

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	source := esi.NewClient(cfg.ESI.BaseURL, cfg.ESI.Timeout)
	cache := engine.NewSummaryCache()
	refinery := engine.NewRefinery(catalog, table)
	buyback := engine.NewBuyback(catalog, refinery, cache, source)

	srv := api.NewServer(cfg, catalog, table, buyback, refinery, cache, database)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
