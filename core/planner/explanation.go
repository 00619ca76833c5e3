package planner

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status classifies the outcome of a planning decision for one vehicle.
type Status int

const (
	// StatusOK means the vehicle already has enough charge for its route.
	StatusOK Status = iota
	// StatusIgnored means the vehicle failed an eligibility check.
	StatusIgnored
	// StatusError means the route should already have started.
	StatusError
	// StatusPlanned means a charging command was emitted.
	StatusPlanned
	// StatusNotPlanned means no command was emitted, either because the
	// sized power was negligible, charging was deferred on price, or the
	// site budget ran out before the vehicle was reached.
	StatusNotPlanned
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusIgnored:
		return "ignored"
	case StatusError:
		return "error"
	case StatusPlanned:
		return "planned"
	case StatusNotPlanned:
		return "not_planned"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status using its wire name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the status from its wire name.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "ok":
		*s = StatusOK
	case "ignored":
		*s = StatusIgnored
	case "error":
		*s = StatusError
	case "planned":
		*s = StatusPlanned
	case "not_planned":
		*s = StatusNotPlanned
	default:
		return fmt.Errorf("unknown plan status %q", raw)
	}
	return nil
}

// SizingDetail carries the power-sizing figures computed for vehicles
// that reached the sizing step.
type SizingDetail struct {
	NeedKWh     float64 `json:"need_kwh"`
	AvgKWNeeded float64 `json:"avg_kw_needed"`
	RequestedKW float64 `json:"requested_kw"`
	FinalKW     float64 `json:"final_kw"`
}

// Explanation records why the planner did or did not schedule charging
// for one vehicle. Vehicles rejected by the eligibility filter only carry
// identifiers, status and reason; vehicles that were ranked also carry
// the diagnostic base fields, and vehicles that reached power sizing
// additionally carry Sizing.
type Explanation struct {
	VehicleID      string  `json:"vehicle_id"`
	ChargerID      string  `json:"charger_id,omitempty"`
	SoC            float64 `json:"soc"`
	RequiredSoCMin float64 `json:"required_soc_min"`
	DeficitSoC     float64 `json:"deficit_soc"`
	BatteryKWh     float64 `json:"battery_kwh"`
	MinutesToStart float64 `json:"minutes_to_start"`

	SiteMaxKW       float64 `json:"site_max_kw"`
	RemainingSiteKW float64 `json:"remaining_site_kw"`
	ChargerMaxKW    float64 `json:"charger_max_kw"`

	RouteStart time.Time `json:"route_start"`
	RouteEnd   time.Time `json:"route_end"`

	PriceNow            *float64 `json:"price_now_eur_kwh,omitempty"`
	BestPriceUntilRoute *float64 `json:"best_price_until_route_eur_kwh,omitempty"`
	Deferred            bool     `json:"deferred"`

	Sizing *SizingDetail `json:"sizing,omitempty"`

	Status Status `json:"status"`
	Reason string `json:"reason"`
}
