package model

import (
	"fmt"
	"time"
)

// RoutePlan describes the next scheduled route of a vehicle. At most one
// active route per vehicle is considered by the planner.
type RoutePlan struct {
	ID             string    `json:"id"`
	VehicleID      string    `json:"vehicle_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	DistanceKM     float64   `json:"distance_km"`
	ETAMinutes     float64   `json:"eta_minutes"`
	ConsumptionKWh float64   `json:"consumption_kwh"`
	RequiredSoCMin float64   `json:"required_soc_min"` // minimum SoC at departure
}

// Validate checks that the route definition is sound.
func (r RoutePlan) Validate() error {
	if r.VehicleID == "" {
		return fmt.Errorf("route %s: vehicle id is required", r.ID)
	}
	if r.RequiredSoCMin < 0 || r.RequiredSoCMin > 1 {
		return fmt.Errorf("route %s: required soc must be within [0,1]", r.ID)
	}
	return nil
}
