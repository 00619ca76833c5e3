package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetai/fleetcharge/config"
	"github.com/fleetai/fleetcharge/core/pricing"
	infrapricing "github.com/fleetai/fleetcharge/infra/pricing"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Resolve today's energy prices from the market sources",
	RunE:  runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	chain := infrapricing.NewChain(cfg.Pricing)
	now := time.Now().UTC()

	out := struct {
		Current pricing.Snapshot    `json:"current"`
		Points  int                 `json:"points"`
		Stats   *pricing.CurveStats `json:"stats,omitempty"`
	}{}

	out.Current = chain.CurrentPrice(cmd.Context(), now)
	points, err := chain.TodayCurve(cmd.Context(), now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "day curve unavailable: %v\n", err)
	} else {
		out.Points = len(points)
		if stats, ok := pricing.Summarize(points); ok {
			out.Stats = &stats
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
