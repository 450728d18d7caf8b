// Package config loads application settings from an optional YAML file and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	ESI      ESIConfig       `mapstructure:"esi"`
	Buyback  BuybackConfig   `mapstructure:"buyback"`
	Database DatabaseConfig  `mapstructure:"database"`
	Logging  LoggingConfig   `mapstructure:"logging"`
	Stations []StationConfig `mapstructure:"stations"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ESIConfig holds the market order source settings.
type ESIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// BuybackConfig holds the default quote parameters; each can be overridden per
// request through query parameters.
type BuybackConfig struct {
	DefaultStation       string  `mapstructure:"default_station"`
	TaxPercentage        float64 `mapstructure:"tax_percentage"`
	EfficiencyPercentage float64 `mapstructure:"efficiency_percentage"`
	RefineByDefault      bool    `mapstructure:"refine_by_default"`
}

// DatabaseConfig holds the quote history store settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	File string `mapstructure:"file"` // empty = console only
}

// StationConfig describes one supported trade hub.
type StationConfig struct {
	Name       string `mapstructure:"name"`
	RegionID   int32  `mapstructure:"region_id"`
	LocationID int64  `mapstructure:"location_id"`
}

// Load reads configuration from path (optional) and EVE_BUYBACK_* environment
// variables. A missing config file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("EVE_BUYBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)

	v.SetDefault("esi.base_url", "https://esi.evetech.net/latest")
	v.SetDefault("esi.timeout", 30*time.Second)

	v.SetDefault("buyback.default_station", "Jita")
	v.SetDefault("buyback.tax_percentage", 10.0)
	v.SetDefault("buyback.efficiency_percentage", 75.0)
	v.SetDefault("buyback.refine_by_default", true)

	v.SetDefault("database.path", "buyback.db")

	v.SetDefault("stations", []map[string]interface{}{
		{"name": "Jita", "region_id": 10000002, "location_id": 60003760},
		{"name": "Amarr", "region_id": 10000043, "location_id": 60008494},
		{"name": "Dodixie", "region_id": 10000032, "location_id": 60011866},
		{"name": "Rens", "region_id": 10000030, "location_id": 60004588},
		{"name": "Hek", "region_id": 10000042, "location_id": 60005686},
	})
}

// Validate checks invariants the rest of the application relies on.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Buyback.TaxPercentage < 0 || c.Buyback.TaxPercentage > 100 {
		return fmt.Errorf("buyback.tax_percentage %v out of range", c.Buyback.TaxPercentage)
	}
	if c.Buyback.EfficiencyPercentage < 0 || c.Buyback.EfficiencyPercentage > 100 {
		return fmt.Errorf("buyback.efficiency_percentage %v out of range", c.Buyback.EfficiencyPercentage)
	}
	if len(c.Stations) == 0 {
		return fmt.Errorf("at least one station is required")
	}
	seen := make(map[string]bool, len(c.Stations))
	defaultKnown := false
	for _, s := range c.Stations {
		key := strings.ToLower(s.Name)
		if s.Name == "" || s.RegionID == 0 || s.LocationID == 0 {
			return fmt.Errorf("station %q must have name, region_id and location_id", s.Name)
		}
		if seen[key] {
			return fmt.Errorf("duplicate station %q", s.Name)
		}
		seen[key] = true
		if strings.EqualFold(s.Name, c.Buyback.DefaultStation) {
			defaultKnown = true
		}
	}
	if !defaultKnown {
		return fmt.Errorf("default station %q is not in the station table", c.Buyback.DefaultStation)
	}
	return nil
}
