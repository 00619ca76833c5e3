// Package pricing defines the contract between the planner's callers and
// the external energy-price suppliers. The planner itself never talks to
// a supplier; it only consumes a resolved price sequence by value and
// must tolerate an empty one.
package pricing

import (
	"context"
	"time"

	"github.com/fleetai/fleetcharge/core/model"
)

// Error codes shared by all market data sources.
const (
	// CodeNoData means the source answered but had no data for the day.
	CodeNoData = "GEN02"
	// CodeGeneral covers transport failures and malformed responses.
	CodeGeneral = "GEN03"
)

// Snapshot is the result of a current-price lookup.
type Snapshot struct {
	OK        bool      `json:"ok"`
	TS        time.Time `json:"ts"`
	EURPerKWh *float64  `json:"eur_per_kwh,omitempty"`
	Source    string    `json:"source"`
	Err       string    `json:"error,omitempty"`
	ErrCode   string    `json:"error_code,omitempty"`
}

// Provider resolves energy prices from one or more market data sources.
type Provider interface {
	// CurrentPrice returns the price closest to now. A failed resolution
	// is reported inside the snapshot, never as a Go error, so callers
	// can degrade to planning without price data.
	CurrentPrice(ctx context.Context, now time.Time) Snapshot
	// TodayCurve returns the ordered price curve for the day of now.
	TodayCurve(ctx context.Context, now time.Time) ([]model.PricePoint, error)
}
