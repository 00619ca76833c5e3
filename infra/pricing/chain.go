package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetai/fleetcharge/core/model"
	"github.com/fleetai/fleetcharge/core/pricing"
	"github.com/fleetai/fleetcharge/infra/logger"
)

// Chain resolves prices through an ordered list of market sources:
// REN 15-minute prices, then REN hourly prices, then the OMIE day-ahead
// file. The planner's callers only ever see the final resolved snapshot
// or curve, never the fallback mechanics.
type Chain struct {
	ren  *renClient
	omie *omieClient
	log  logger.Logger
}

// NewChain builds the provider from the configured endpoints.
func NewChain(cfg Config) *Chain {
	cfg.SetDefaults()
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Chain{
		ren:  newRENClient(cfg.RENEndpoint, timeout),
		omie: newOMIEClient(cfg.OMIEBaseURL, timeout),
		log:  logger.New("price-chain"),
	}
}

// CurrentPrice tries each source in order and reports the last error
// inside the snapshot when all of them fail.
func (c *Chain) CurrentPrice(ctx context.Context, now time.Time) pricing.Snapshot {
	day := now.UTC().Format("2006-01-02")
	lastErr := &FetchError{Code: pricing.CodeGeneral, Message: "unknown error"}

	for _, infoType := range []string{renInfoPrice15M, renInfoPriceHourly} {
		items, ferr := c.ren.marketPrices(ctx, day, infoType)
		if ferr != nil {
			c.log.Warnf("REN %s failed: %v", infoType, ferr)
			lastErr = ferr
			continue
		}
		if price, ok := closestPriceEURKWh(items, now); ok {
			return pricing.Snapshot{
				OK:        true,
				TS:        now,
				EURPerKWh: &price,
				Source:    "REN:" + infoType,
			}
		}
		lastErr = &FetchError{Code: pricing.CodeNoData, Message: "no data available"}
	}

	points, err := c.omie.pricesToday(ctx, now)
	if err != nil {
		c.log.Warnf("OMIE fallback failed: %v", err)
		lastErr = &FetchError{
			Code:    lastErr.Code,
			Message: fmt.Sprintf("%s | OMIE failed: %v", lastErr.Message, err),
		}
	} else if price, ok := nearestPoint(points, now); ok {
		return pricing.Snapshot{
			OK:        true,
			TS:        now,
			EURPerKWh: &price,
			Source:    "OMIE:marginalpdbcpt",
		}
	}

	return pricing.Snapshot{
		OK:      false,
		TS:      now,
		Source:  "REN/OMIE",
		Err:     fmt.Sprintf("no price available (%s)", lastErr.Error()),
		ErrCode: lastErr.Code,
	}
}

// TodayCurve returns the hourly OMIE curve for the day. The OMIE file is
// the only source publishing a full day ahead.
func (c *Chain) TodayCurve(ctx context.Context, now time.Time) ([]model.PricePoint, error) {
	points, err := c.omie.pricesToday(ctx, now.UTC())
	if err != nil {
		return nil, err
	}
	c.log.Infow("resolved day curve", map[string]any{"points": len(points), "source": "OMIE"})
	return points, nil
}

func nearestPoint(points []model.PricePoint, now time.Time) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	naive := now.UTC()
	best := points[0]
	bestDist := absDuration(points[0].TS.Sub(naive))
	for _, p := range points[1:] {
		if d := absDuration(p.TS.Sub(naive)); d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best.EURPerKWh, true
}
