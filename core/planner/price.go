package planner

import (
	"math"
	"time"

	"github.com/fleetai/fleetcharge/core/model"
)

// PriceAt returns the price of the point closest in time to ts. It uses a
// nearest-neighbor lookup without interpolation; on duplicate distances
// the first point in input order wins. The second return value is false
// when the sequence is empty.
func PriceAt(prices []model.PricePoint, ts time.Time) (float64, bool) {
	if len(prices) == 0 {
		return 0, false
	}
	best := prices[0]
	bestDist := math.Abs(prices[0].TS.Sub(ts).Seconds())
	for _, p := range prices[1:] {
		d := math.Abs(p.TS.Sub(ts).Seconds())
		if d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best.EURPerKWh, true
}

// MinPriceUntil returns the minimum price among points whose timestamp
// falls in the closed interval [start, end]. The second return value is
// false when no point falls in the window.
func MinPriceUntil(prices []model.PricePoint, start, end time.Time) (float64, bool) {
	found := false
	var min float64
	for _, p := range prices {
		if p.TS.Before(start) || p.TS.After(end) {
			continue
		}
		if !found || p.EURPerKWh < min {
			min = p.EURPerKWh
			found = true
		}
	}
	return min, found
}
