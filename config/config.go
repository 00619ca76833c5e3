// Package config loads the service configuration from a JSON or YAML
// file with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fleetai/fleetcharge/core/metrics"
	"github.com/fleetai/fleetcharge/infra/mqtt"
	"github.com/fleetai/fleetcharge/infra/pricing"
)

// HTTPConfig defines the API server settings.
type HTTPConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// PlannerConfig tunes the allocation engine and the caller-side price
// fallback.
type PlannerConfig struct {
	// DelayMarginRatio is the relative premium of the current price over
	// the best future price required before charging is deferred.
	DelayMarginRatio float64 `json:"delay_margin_ratio"`
	// UrgencyMinutes disables deferral when the route starts within this
	// lead time.
	UrgencyMinutes float64 `json:"urgency_minutes"`
	// DefaultPriceEURKWh is the last-resort price when no market source
	// answers and the request carries no explicit prices.
	DefaultPriceEURKWh float64 `json:"default_price_eur_kwh"`
}

// SetDefaults applies the stock planner policy.
func (c *PlannerConfig) SetDefaults() {
	if c.DelayMarginRatio == 0 {
		c.DelayMarginRatio = 0.15
	}
	if c.UrgencyMinutes == 0 {
		c.UrgencyMinutes = 60
	}
	if c.DefaultPriceEURKWh == 0 {
		c.DefaultPriceEURKWh = 0.20
	}
}

// Validate checks the planner policy.
func (c PlannerConfig) Validate() error {
	if c.DelayMarginRatio < 0 {
		return fmt.Errorf("delay margin must not be negative")
	}
	if c.UrgencyMinutes < 0 {
		return fmt.Errorf("urgency minutes must not be negative")
	}
	return nil
}

// Config is the root configuration of the service.
type Config struct {
	HTTP    HTTPConfig     `json:"http"`
	Planner PlannerConfig  `json:"planner"`
	Pricing pricing.Config `json:"pricing"`
	MQTT    mqtt.Config    `json:"mqtt"`
	Metrics metrics.Config `json:"metrics"`
}

// Load reads the configuration file, applies FC_-prefixed environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. FC_HTTP__ADDR=:9000.
	if err := k.Load(env.Provider("FC_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.HTTP.SetDefaults()
	cfg.Planner.SetDefaults()
	cfg.Pricing.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Planner.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
