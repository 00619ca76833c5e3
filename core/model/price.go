package model

import "time"

// PricePoint is a single timestamped energy price. Sequences of points are
// not required to be sorted or evenly spaced and may be empty.
type PricePoint struct {
	TS        time.Time `json:"ts"`
	EURPerKWh float64   `json:"eur_per_kwh"`
}
