package model

import (
	"encoding/json"
	"fmt"
)

// VehicleState describes the operational state reported by the fleet
// management system.
type VehicleState int

const (
	StateAvailable VehicleState = iota
	StateOnRoute
	StateMaintenance
)

// String returns the wire name of the state.
func (s VehicleState) String() string {
	switch s {
	case StateAvailable:
		return "AVAILABLE"
	case StateOnRoute:
		return "ON_ROUTE"
	case StateMaintenance:
		return "MAINTENANCE"
	default:
		return "unknown"
	}
}

// ParseVehicleState converts a wire name into a VehicleState.
func ParseVehicleState(s string) (VehicleState, error) {
	switch s {
	case "AVAILABLE":
		return StateAvailable, nil
	case "ON_ROUTE":
		return StateOnRoute, nil
	case "MAINTENANCE":
		return StateMaintenance, nil
	default:
		return 0, fmt.Errorf("unknown vehicle state %q", s)
	}
}

// MarshalJSON encodes the state using its wire name.
func (s VehicleState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the state from its wire name.
func (s *VehicleState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st, err := ParseVehicleState(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Vehicle represents an electric vehicle in the fleet snapshot. Snapshots
// are produced by the fleet management system and treated as immutable
// input by the planner.
type Vehicle struct {
	ID         string       `json:"id"`
	BatteryKWh float64      `json:"battery_kwh"` // total battery capacity in kWh
	SoC        float64      `json:"soc"`         // state of charge between 0 and 1
	SoH        float64      `json:"soh"`         // state of health between 0 and 1
	TempC      float64      `json:"temp_c"`      // battery temperature in Celsius
	State      VehicleState `json:"state"`
	ChargerID  string       `json:"charger_id,omitempty"` // empty when not plugged in
}

// Validate checks that the vehicle snapshot is sound.
func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if v.BatteryKWh <= 0 {
		return fmt.Errorf("vehicle %s: battery capacity must be positive", v.ID)
	}
	if v.SoC < 0 || v.SoC > 1 {
		return fmt.Errorf("vehicle %s: soc must be within [0,1]", v.ID)
	}
	return nil
}
