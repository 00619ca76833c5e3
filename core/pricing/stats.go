package pricing

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fleetai/fleetcharge/core/model"
)

// CurveStats summarises a day curve for dashboards and logs.
type CurveStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summarize computes min, max and mean of the curve. The second return
// value is false for an empty curve.
func Summarize(points []model.PricePoint) (CurveStats, bool) {
	if len(points) == 0 {
		return CurveStats{}, false
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.EURPerKWh
	}
	return CurveStats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: stat.Mean(values, nil),
	}, true
}
