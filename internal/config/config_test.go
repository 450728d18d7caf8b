package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.ESI.Timeout != 30*time.Second {
		t.Errorf("esi timeout = %v, want 30s", cfg.ESI.Timeout)
	}
	if cfg.Buyback.DefaultStation != "Jita" {
		t.Errorf("default station = %q, want Jita", cfg.Buyback.DefaultStation)
	}
	if cfg.Buyback.TaxPercentage != 10.0 || cfg.Buyback.EfficiencyPercentage != 75.0 {
		t.Errorf("tax/efficiency = %v/%v", cfg.Buyback.TaxPercentage, cfg.Buyback.EfficiencyPercentage)
	}
	if !cfg.Buyback.RefineByDefault {
		t.Error("refine_by_default should default to true")
	}
	if len(cfg.Stations) != 5 {
		t.Fatalf("got %d stations, want 5", len(cfg.Stations))
	}
	if cfg.Stations[0].Name != "Jita" || cfg.Stations[0].RegionID != 10000002 {
		t.Errorf("station 0 = %+v", cfg.Stations[0])
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9000
buyback:
  default_station: Amarr
  tax_percentage: 7.5
stations:
  - name: Amarr
    region_id: 10000043
    location_id: 60008494
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Buyback.DefaultStation != "Amarr" || cfg.Buyback.TaxPercentage != 7.5 {
		t.Errorf("buyback = %+v", cfg.Buyback)
	}
	if len(cfg.Stations) != 1 || cfg.Stations[0].Name != "Amarr" {
		t.Errorf("stations = %+v", cfg.Stations)
	}
}

func TestValidate_Failures(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080},
			Buyback: BuybackConfig{DefaultStation: "Jita", TaxPercentage: 10, EfficiencyPercentage: 75},
			Stations: []StationConfig{
				{Name: "Jita", RegionID: 10000002, LocationID: 60003760},
			},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"tax out of range", func(c *Config) { c.Buyback.TaxPercentage = 101 }},
		{"efficiency negative", func(c *Config) { c.Buyback.EfficiencyPercentage = -1 }},
		{"no stations", func(c *Config) { c.Stations = nil }},
		{"station missing region", func(c *Config) { c.Stations[0].RegionID = 0 }},
		{"duplicate station", func(c *Config) {
			c.Stations = append(c.Stations, StationConfig{Name: "jita", RegionID: 1, LocationID: 1})
		}},
		{"unknown default station", func(c *Config) { c.Buyback.DefaultStation = "Nowhere" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
