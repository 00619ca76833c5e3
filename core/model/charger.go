package model

import "fmt"

// DefaultChargerEfficiency is assumed when a snapshot omits the
// conversion efficiency of a charger.
const DefaultChargerEfficiency = 0.92

// Charger represents a charging point at the site.
type Charger struct {
	ID         string  `json:"id"`
	MaxKW      float64 `json:"max_kw"` // maximum deliverable power in kW
	Enabled    bool    `json:"enabled"`
	Efficiency float64 `json:"efficiency,omitempty"` // AC/DC conversion efficiency
}

// Validate checks that the charger definition is sound.
func (c Charger) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("charger id is required")
	}
	if c.MaxKW <= 0 {
		return fmt.Errorf("charger %s: max power must be positive", c.ID)
	}
	return nil
}
