package planner

import (
	"time"

	"github.com/fleetai/fleetcharge/core/model"
)

// imminenceHorizonMinutes bounds the scheduling nudge applied to routes
// starting soon. Routes further out than this gain no imminence score.
const imminenceHorizonMinutes = 180.0

// Urgency ranks a vehicle for allocation priority. The SoC deficit is a
// hard safety signal and dominates; among equal deficits, route imminence
// within a 180-minute horizon breaks ties.
func Urgency(v model.Vehicle, rt model.RoutePlan, now time.Time) float64 {
	minutesToStart := rt.StartTime.Sub(now).Minutes()
	deficit := max(0, rt.RequiredSoCMin-v.SoC)
	return deficit*1000.0 + max(0, imminenceHorizonMinutes-minutesToStart)
}
