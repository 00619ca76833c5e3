package planner

// DelayPolicy tunes the price-based deferral decision.
type DelayPolicy struct {
	// MarginRatio is the relative premium the current price must carry
	// over the best future price before deferral pays off.
	MarginRatio float64
	// UrgencyMinutes is the minimum lead time before the route start
	// below which deferral is never allowed.
	UrgencyMinutes float64
}

// DefaultDelayPolicy returns the stock deferral thresholds.
func DefaultDelayPolicy() DelayPolicy {
	return DelayPolicy{MarginRatio: 0.15, UrgencyMinutes: 60}
}

// ShouldDelay decides whether charging should be deferred to a cheaper
// price window. Deferral requires a real SoC deficit, enough lead time
// before the route and both prices to be known; any missing input forces
// "charge now". Safety and data availability always dominate cost.
func ShouldDelay(priceNow float64, priceNowOK bool, bestFuture float64, bestFutureOK bool, minutesToStart, deficit float64, pol DelayPolicy) bool {
	if deficit <= 0 {
		return false
	}
	if minutesToStart <= pol.UrgencyMinutes {
		return false
	}
	if !priceNowOK || !bestFutureOK {
		return false
	}
	return priceNow > bestFuture*(1.0+pol.MarginRatio)
}
