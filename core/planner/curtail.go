package planner

import "github.com/fleetai/fleetcharge/core/model"

// Curtailment thresholds protecting battery longevity. Factors compound:
// a hot vehicle above 92% SoC is scaled by 0.5*0.3*0.5.
const (
	highSoCThreshold     = 0.80
	veryHighSoCThreshold = 0.92
	hotBatteryTempC      = 40.0
)

// BatteryFriendlyKW reduces the requested power at high state-of-charge
// or high battery temperature and clamps the result to the charger limit.
func BatteryFriendlyKW(v model.Vehicle, c model.Charger, requestedKW float64) float64 {
	kw := requestedKW
	if v.SoC >= highSoCThreshold {
		kw *= 0.5
	}
	if v.SoC >= veryHighSoCThreshold {
		kw *= 0.3
	}
	if v.TempC >= hotBatteryTempC {
		kw *= 0.5
	}
	return clamp(kw, 0, c.MaxKW)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
