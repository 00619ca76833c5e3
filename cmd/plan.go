package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetai/fleetcharge/config"
	"github.com/fleetai/fleetcharge/core/model"
	"github.com/fleetai/fleetcharge/core/planner"
)

var snapshotPath string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run one planning pass over a snapshot file",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "snapshot.json", "snapshot file")
	rootCmd.AddCommand(planCmd)
}

// planSnapshot mirrors the /api/plan request payload for offline runs.
type planSnapshot struct {
	Now       time.Time          `json:"now"`
	SiteMaxKW float64            `json:"site_max_kw"`
	Vehicles  []model.Vehicle    `json:"vehicles"`
	Chargers  []model.Charger    `json:"chargers"`
	Routes    []model.RoutePlan  `json:"routes"`
	Prices    []model.PricePoint `json:"prices"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	raw, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap planSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	now := snap.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	prices := snap.Prices
	if len(prices) == 0 {
		prices = []model.PricePoint{{TS: now, EURPerKWh: cfg.Planner.DefaultPriceEURKWh}}
	}

	eng := planner.New(planner.DelayPolicy{
		MarginRatio:    cfg.Planner.DelayMarginRatio,
		UrgencyMinutes: cfg.Planner.UrgencyMinutes,
	})
	res := eng.Plan(now, snap.Vehicles, snap.Chargers, snap.Routes, prices, model.SiteConstraints{SiteMaxKW: snap.SiteMaxKW})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
